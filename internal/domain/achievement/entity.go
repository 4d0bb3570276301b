// Package achievement содержит каталог достижений и состояние прогресса
// пользователя по каждому из них.
//
// Прогресс хранится лениво: запись UserAchievement создаётся при первой
// проверке. Сохранённый прогресс может отставать от живого значения до
// следующей проверки, поэтому отчёты возвращают оба значения.
package achievement

import (
	"time"

	"github.com/ingvionio/fullstack/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TYPES
// ══════════════════════════════════════════════════════════════════════════════

// Type определяет, какая метрика считается прогрессом.
type Type string

const (
	// TypeMarksCount - общее число отзывов пользователя.
	TypeMarksCount Type = "marks_count"
	// TypePointsCount - общее число созданных пользователем точек.
	TypePointsCount Type = "points_count"
	// TypeMarksStreak - текущая серия дней подряд хотя бы с одним отзывом.
	TypeMarksStreak Type = "marks_streak"
)

// AllTypes возвращает все известные типы.
func AllTypes() []Type {
	return []Type{TypeMarksCount, TypePointsCount, TypeMarksStreak}
}

// IsValid проверяет, что тип известен.
func (t Type) IsValid() bool {
	switch t {
	case TypeMarksCount, TypePointsCount, TypeMarksStreak:
		return true
	default:
		return false
	}
}

// State - состояние прогресса пользователя по достижению.
type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Achievement - запись каталога.
type Achievement struct {
	ID               int64
	Name             string
	Description      string
	Type             Type
	RequirementValue int
	XPReward         int
	CreatedAt        time.Time
}

// Validate проверяет запись каталога.
func (a *Achievement) Validate() error {
	if err := shared.TextLength("achievement", "name", a.Name, 1, 255); err != nil {
		return err
	}
	if !a.Type.IsValid() {
		return shared.ErrUnknownAchievementType
	}
	if a.RequirementValue < 0 || a.XPReward < 0 {
		return shared.NewDomainError("achievement", "Validate", shared.ErrNegativeValue, "requirement and reward cannot be negative")
	}
	return nil
}

// UserAchievement - прогресс одного пользователя по одному достижению.
// Пара (UserID, AchievementID) уникальна.
type UserAchievement struct {
	ID            int64
	UserID        int64
	AchievementID int64

	// Progress - последнее сохранённое значение метрики.
	Progress int

	// IsCompleted меняется только false → true.
	IsCompleted bool

	// CompletedAt выставляется один раз, в момент завершения.
	CompletedAt *time.Time

	CreatedAt time.Time
}

// NewUserAchievement создаёт пустую запись прогресса.
func NewUserAchievement(userID, achievementID int64, now time.Time) *UserAchievement {
	return &UserAchievement{
		UserID:        userID,
		AchievementID: achievementID,
		CreatedAt:     now,
	}
}

// State возвращает текущее состояние записи.
func (ua *UserAchievement) State() State {
	switch {
	case ua.IsCompleted:
		return StateCompleted
	case ua.Progress > 0:
		return StateInProgress
	default:
		return StateNotStarted
	}
}

// Advance записывает живой прогресс и завершает достижение, если порог достигнут.
//
// Завершённая запись не меняется. Прогресс перезаписывается безусловно,
// в том числе в меньшую сторону. Возвращает true, если запись только что завершилась.
func (ua *UserAchievement) Advance(live, requirement int, now time.Time) bool {
	if ua.IsCompleted {
		return false
	}
	ua.Progress = live
	if live < requirement {
		return false
	}
	ua.IsCompleted = true
	at := now
	ua.CompletedAt = &at
	return true
}

// Unlocked - достижение, завершённое при последней проверке.
type Unlocked struct {
	Achievement *Achievement
	Progress    *UserAchievement
}
