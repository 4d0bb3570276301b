package achievement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ingvionio/fullstack/pkg/timeutil"
)

var today = timeutil.DateTime(2026, 4, 15, 10, 0, 0)

func daysAgo(n int, hour int) time.Time {
	d := timeutil.StartOfDay(today).AddDate(0, 0, -n)
	return d.Add(time.Duration(hour) * time.Hour)
}

func TestCalculateStreak(t *testing.T) {
	tests := []struct {
		name  string
		marks []time.Time
		want  int
	}{
		{"no marks", nil, 0},
		{"single mark today", []time.Time{daysAgo(0, 9)}, 1},
		{"three consecutive days", []time.Time{daysAgo(0, 1), daysAgo(1, 5), daysAgo(2, 23)}, 3},
		{"gap today and yesterday", []time.Time{daysAgo(2, 12), daysAgo(3, 12)}, 0},
		{"grace day: yesterday anchors", []time.Time{daysAgo(1, 12), daysAgo(2, 12)}, 2},
		{"several marks per day count once", []time.Time{daysAgo(0, 1), daysAgo(0, 2), daysAgo(1, 3), daysAgo(1, 4)}, 2},
		{"broken chain", []time.Time{daysAgo(0, 1), daysAgo(1, 1), daysAgo(3, 1), daysAgo(4, 1)}, 2},
		{"unordered input", []time.Time{daysAgo(2, 1), daysAgo(0, 1), daysAgo(1, 1)}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateStreak(tt.marks, today))
		})
	}
}

func TestUserAchievement_Advance(t *testing.T) {
	now := today
	ua := NewUserAchievement(1, 2, now)
	assert.Equal(t, StateNotStarted, ua.State())

	assert.False(t, ua.Advance(3, 10, now))
	assert.Equal(t, 3, ua.Progress)
	assert.Equal(t, StateInProgress, ua.State())

	// Progress follows the live value downward.
	assert.False(t, ua.Advance(1, 10, now))
	assert.Equal(t, 1, ua.Progress)

	completedAt := now.Add(time.Hour)
	assert.True(t, ua.Advance(10, 10, completedAt))
	assert.Equal(t, StateCompleted, ua.State())
	require.NotNil(t, ua.CompletedAt)
	assert.Equal(t, completedAt, *ua.CompletedAt)

	// Completed records are frozen.
	assert.False(t, ua.Advance(25, 10, now.Add(48*time.Hour)))
	assert.Equal(t, 10, ua.Progress)
	assert.Equal(t, completedAt, *ua.CompletedAt)
}

func TestBuildReport(t *testing.T) {
	a := &Achievement{ID: 5, Name: "Картограф", Type: TypePointsCount, RequirementValue: 10, XPReward: 200}

	r := BuildReport(a, nil, 4)
	assert.Equal(t, 4, r.Progress)
	assert.Equal(t, 4, r.CurrentProgress)
	assert.False(t, r.IsCompleted)
	assert.Nil(t, r.CompletedAt)

	r = BuildReport(a, nil, 12)
	assert.True(t, r.IsCompleted)
	assert.Nil(t, r.CompletedAt)

	stored := &UserAchievement{Progress: 6}
	r = BuildReport(a, stored, 11)
	assert.Equal(t, 6, r.Progress)
	assert.Equal(t, 11, r.CurrentProgress)
	assert.True(t, r.IsCompleted, "live progress meets the requirement")

	at := today
	stored = &UserAchievement{Progress: 10, IsCompleted: true, CompletedAt: &at}
	r = BuildReport(a, stored, 3)
	assert.True(t, r.IsCompleted)
	assert.Equal(t, &at, r.CompletedAt)
}

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	require.Len(t, catalog, 10)

	names := make(map[string]struct{}, len(catalog))
	perType := map[Type]int{}
	for _, a := range catalog {
		require.NoError(t, a.Validate())
		names[a.Name] = struct{}{}
		perType[a.Type]++
	}
	assert.Len(t, names, len(catalog))
	assert.Equal(t, 4, perType[TypeMarksCount])
	assert.Equal(t, 3, perType[TypePointsCount])
	assert.Equal(t, 3, perType[TypeMarksStreak])
}

func TestType_IsValid(t *testing.T) {
	for _, typ := range AllTypes() {
		assert.True(t, typ.IsValid())
	}
	assert.False(t, Type("likes_count").IsValid())
}
