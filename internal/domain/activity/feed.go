// Package activity composes a user's activity feed from points created,
// marks left and achievements unlocked.
// This is a pure domain layer with zero external dependencies.
package activity

import (
	"fmt"
	"sort"
	"time"

	"github.com/ingvionio/fullstack/internal/domain/achievement"
	"github.com/ingvionio/fullstack/internal/domain/mark"
	"github.com/ingvionio/fullstack/internal/domain/point"
)

// Feed limits.
const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// Kind identifies the source of a feed item.
type Kind string

const (
	KindPointCreated        Kind = "point_created"
	KindMarkCreated         Kind = "mark_created"
	KindAchievementUnlocked Kind = "achievement_unlocked"
)

// Item is a single entry of the activity feed.
type Item struct {
	Kind          Kind
	Timestamp     time.Time
	Title         string
	Description   string
	XPGained      *int
	PointID       *int64
	AchievementID *int64
}

// Rewards holds the XP annotations shown for content items.
type Rewards struct {
	Point int
	Mark  int
}

// Sources are the per-kind inputs, each already capped at the feed limit
// and ordered newest first by the store.
type Sources struct {
	Points       []point.Summary
	Marks        []mark.Summary
	Achievements []achievement.Unlocked
}

// Compose converts the sources to items, merges them newest first and
// truncates to limit.
//
// Each source is capped before the merge, so a kind that dominates recent
// history can push others out of the result.
func Compose(src Sources, rewards Rewards, limit int) []Item {
	items := make([]Item, 0, len(src.Points)+len(src.Marks)+len(src.Achievements))

	for _, p := range src.Points {
		id := p.ID
		items = append(items, Item{
			Kind:        KindPointCreated,
			Timestamp:   p.CreatedAt,
			Title:       "Создана точка: " + p.Name,
			Description: "Точка на карте создана",
			XPGained:    intPtr(rewards.Point),
			PointID:     &id,
		})
	}

	for _, m := range src.Marks {
		pointID := m.PointID
		name := m.PointName
		if name == "" {
			name = "Неизвестная точка"
		}
		items = append(items, Item{
			Kind:        KindMarkCreated,
			Timestamp:   m.CreatedAt,
			Title:       "Оставлен отзыв: " + name,
			Description: fmt.Sprintf("Оценка: %.1f", m.TotalScore),
			XPGained:    intPtr(rewards.Mark),
			PointID:     &pointID,
		})
	}

	for _, u := range src.Achievements {
		if u.Achievement == nil || u.Progress == nil || u.Progress.CompletedAt == nil {
			continue
		}
		id := u.Achievement.ID
		var xp *int
		if u.Achievement.XPReward > 0 {
			xp = intPtr(u.Achievement.XPReward)
		}
		items = append(items, Item{
			Kind:          KindAchievementUnlocked,
			Timestamp:     *u.Progress.CompletedAt,
			Title:         "Получено достижение: " + u.Achievement.Name,
			Description:   u.Achievement.Description,
			XPGained:      xp,
			AchievementID: &id,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})

	if limit >= 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// NormalizeLimit clamps a requested limit to [1, MaxLimit], defaulting when unset.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// ValidLimit reports whether limit is within the accepted range.
func ValidLimit(limit int) bool {
	return limit >= 1 && limit <= MaxLimit
}

func intPtr(v int) *int {
	return &v
}
