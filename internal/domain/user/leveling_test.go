package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXPForLevel_Series(t *testing.T) {
	tests := []struct {
		level int
		want  int
	}{
		{0, 0},
		{1, 0},
		{2, 100},
		{3, 250},
		{4, 475},
		{5, 812},
		{6, 1318},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, XPForLevel(tt.level), "level %d", tt.level)
	}
}

func TestLevelFromXP(t *testing.T) {
	assert.Equal(t, 1, LevelFromXP(0))
	assert.Equal(t, 1, LevelFromXP(99))
	assert.Equal(t, 2, LevelFromXP(100))
	assert.Equal(t, 2, LevelFromXP(249))
	assert.Equal(t, 3, LevelFromXP(250))
	assert.Equal(t, 4, LevelFromXP(811))
	assert.Equal(t, 5, LevelFromXP(812))
	assert.Equal(t, 1, LevelFromXP(-10))
}

func TestLevelFromXP_MonotonicAndBounded(t *testing.T) {
	prev := LevelFromXP(0)
	for xp := 0; xp <= 20000; xp += 7 {
		level := LevelFromXP(xp)
		assert.GreaterOrEqual(t, level, prev)
		assert.LessOrEqual(t, XPForLevel(level), xp)
		assert.Greater(t, XPForLevel(level+1), xp)
		prev = level
	}
}

func TestAddXP_NeverLowersLevel(t *testing.T) {
	u := &User{XP: 0, Level: 5}

	oldLevel, newLevel := u.AddXP(20)

	assert.Equal(t, 5, oldLevel)
	assert.Equal(t, 5, newLevel)
	assert.Equal(t, 20, u.XP)
}

func TestAddXP_RaisesLevel(t *testing.T) {
	u := &User{XP: 90, Level: 1}

	oldLevel, newLevel := u.AddXP(170)

	assert.Equal(t, 1, oldLevel)
	assert.Equal(t, 3, newLevel)
	assert.Equal(t, 260, u.XP)
}

func TestAddXP_RewardsScenario(t *testing.T) {
	u := &User{Level: 1}

	u.AddXP(50)
	u.AddXP(20)
	u.AddXP(20)

	assert.Equal(t, 90, u.XP)
	assert.Equal(t, 1, u.Level)
}

func TestReconcileLevel_MayLower(t *testing.T) {
	u := &User{XP: 120, Level: 4}

	changed := u.ReconcileLevel()

	assert.True(t, changed)
	assert.Equal(t, 2, u.Level)
	assert.False(t, u.ReconcileLevel())
}

func TestProgressFor(t *testing.T) {
	p := ProgressFor(130, 2)

	assert.Equal(t, 2, p.CurrentLevel)
	assert.Equal(t, 130, p.CurrentXP)
	assert.Equal(t, 100, p.XPForCurrentLevel)
	assert.Equal(t, 250, p.XPForNextLevel)
	assert.Equal(t, 30, p.XPProgress)
	assert.Equal(t, 120, p.XPNeeded)
	assert.InDelta(t, 20.0, p.ProgressPercentage, 1e-9)
}

func TestProgressFor_RoundsToTwoDecimals(t *testing.T) {
	p := ProgressFor(10, 1)
	assert.InDelta(t, 10.0, p.ProgressPercentage, 1e-9)

	p = ProgressFor(300, 3)
	// 50 / 225 * 100 = 22.222...
	assert.InDelta(t, 22.22, p.ProgressPercentage, 1e-9)
}

func TestSetAvatar_AppendsHistory(t *testing.T) {
	u, err := NewUser(NewUserParams{Username: "alice", Email: "alice@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	u.SetAvatar("/media/avatars/user_1/a.png")
	assert.Empty(t, u.AvatarHistory)

	u.SetAvatar("/media/avatars/user_1/b.png")
	assert.Equal(t, []string{"/media/avatars/user_1/a.png"}, u.AvatarHistory)
	require.NotNil(t, u.AvatarURL)
	assert.Equal(t, "/media/avatars/user_1/b.png", *u.AvatarURL)
}

func TestNewUser_Validation(t *testing.T) {
	_, err := NewUser(NewUserParams{Username: "al", Email: "alice@example.com", PasswordHash: "h"})
	assert.Error(t, err)

	_, err = NewUser(NewUserParams{Username: "alice", Email: "not-an-email", PasswordHash: "h"})
	assert.Error(t, err)

	assert.Error(t, ValidatePassword("12345"))
	assert.NoError(t, ValidatePassword("123456"))
}
