package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ingvionio/fullstack/internal/domain/achievement"
	"github.com/ingvionio/fullstack/internal/domain/mark"
	"github.com/ingvionio/fullstack/internal/domain/point"
)

var base = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return base.Add(time.Duration(minutes) * time.Minute)
}

func sampleSources() Sources {
	completed := at(30)
	return Sources{
		Points: []point.Summary{
			{ID: 2, Name: "Аптека", CreatedAt: at(40)},
			{ID: 1, Name: "Клиника", CreatedAt: at(10)},
		},
		Marks: []mark.Summary{
			{ID: 8, PointID: 1, PointName: "Клиника", TotalScore: 4.31, CreatedAt: at(50)},
			{ID: 7, PointID: 2, PointName: "Аптека", TotalScore: 3, CreatedAt: at(20)},
		},
		Achievements: []achievement.Unlocked{
			{
				Achievement: &achievement.Achievement{ID: 1, Name: "Первый отзыв", Description: "Оставьте свой первый отзыв", XPReward: 25},
				Progress:    &achievement.UserAchievement{IsCompleted: true, CompletedAt: &completed},
			},
		},
	}
}

func TestCompose_MergesNewestFirst(t *testing.T) {
	items := Compose(sampleSources(), Rewards{Point: 50, Mark: 20}, 3)

	require.Len(t, items, 3)
	assert.Equal(t, KindMarkCreated, items[0].Kind)
	assert.Equal(t, at(50), items[0].Timestamp)
	assert.Equal(t, KindPointCreated, items[1].Kind)
	assert.Equal(t, at(40), items[1].Timestamp)
	assert.Equal(t, KindAchievementUnlocked, items[2].Kind)
	assert.Equal(t, at(30), items[2].Timestamp)
}

func TestCompose_ItemContent(t *testing.T) {
	items := Compose(sampleSources(), Rewards{Point: 50, Mark: 20}, 10)
	require.Len(t, items, 5)

	m := items[0]
	assert.Equal(t, "Оставлен отзыв: Клиника", m.Title)
	assert.Equal(t, "Оценка: 4.3", m.Description)
	require.NotNil(t, m.XPGained)
	assert.Equal(t, 20, *m.XPGained)
	require.NotNil(t, m.PointID)
	assert.Equal(t, int64(1), *m.PointID)

	p := items[1]
	assert.Equal(t, "Создана точка: Аптека", p.Title)
	assert.Equal(t, "Точка на карте создана", p.Description)
	assert.Equal(t, 50, *p.XPGained)

	a := items[2]
	assert.Equal(t, "Получено достижение: Первый отзыв", a.Title)
	assert.Equal(t, "Оставьте свой первый отзыв", a.Description)
	assert.Equal(t, 25, *a.XPGained)
	require.NotNil(t, a.AchievementID)
	assert.Nil(t, a.PointID)
}

func TestCompose_ZeroRewardAchievementHasNoXP(t *testing.T) {
	completed := at(1)
	items := Compose(Sources{
		Achievements: []achievement.Unlocked{{
			Achievement: &achievement.Achievement{ID: 3, Name: "Без награды"},
			Progress:    &achievement.UserAchievement{IsCompleted: true, CompletedAt: &completed},
		}},
	}, Rewards{}, 10)

	require.Len(t, items, 1)
	assert.Nil(t, items[0].XPGained)
}

func TestCompose_PerSourceCapping(t *testing.T) {
	// Each source arrives already capped at the limit, so the merged view
	// only sees the newest two marks even though older points exist.
	src := Sources{
		Points: []point.Summary{{ID: 1, Name: "Старая", CreatedAt: at(1)}},
		Marks: []mark.Summary{
			{ID: 3, PointID: 1, CreatedAt: at(30)},
			{ID: 2, PointID: 1, CreatedAt: at(20)},
		},
	}
	items := Compose(src, Rewards{Point: 50, Mark: 20}, 2)

	require.Len(t, items, 2)
	for _, it := range items {
		assert.Equal(t, KindMarkCreated, it.Kind)
	}
	assert.Equal(t, "Оставлен отзыв: Неизвестная точка", items[0].Title)
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, 7, NormalizeLimit(7))
	assert.Equal(t, MaxLimit, NormalizeLimit(1000))
	assert.True(t, ValidLimit(1))
	assert.True(t, ValidLimit(100))
	assert.False(t, ValidLimit(0))
	assert.False(t, ValidLimit(101))
}
