// Package query contains read operations following CQRS pattern.
// Queries never change content; the only write is level reconciliation
// in GetUserProgress.
package query

import (
	"time"

	"github.com/ingvionio/fullstack/internal/domain/achievement"
	"github.com/ingvionio/fullstack/internal/domain/activity"
	"github.com/ingvionio/fullstack/internal/domain/industry"
	"github.com/ingvionio/fullstack/internal/domain/mark"
	"github.com/ingvionio/fullstack/internal/domain/point"
	"github.com/ingvionio/fullstack/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// DATA TRANSFER OBJECTS
// Формы ответов API. Хеш пароля никогда не попадает в DTO.
// ══════════════════════════════════════════════════════════════════════════════

// UserDTO - публичное представление пользователя.
type UserDTO struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	AvatarURL     *string   `json:"avatar_url"`
	AvatarHistory []string  `json:"avatar_history"`
	Level         int       `json:"level"`
	XP            int       `json:"xp"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewUserDTO преобразует пользователя в DTO.
func NewUserDTO(u *user.User) UserDTO {
	history := u.AvatarHistory
	if history == nil {
		history = []string{}
	}
	return UserDTO{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		AvatarURL:     u.AvatarURL,
		AvatarHistory: history,
		Level:         u.Level,
		XP:            u.XP,
		CreatedAt:     u.CreatedAt,
	}
}

// IndustryDTO - отрасль.
type IndustryDTO struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewIndustryDTO преобразует отрасль в DTO.
func NewIndustryDTO(i *industry.Industry) IndustryDTO {
	return IndustryDTO{ID: i.ID, Name: i.Name, CreatedAt: i.CreatedAt, UpdatedAt: i.UpdatedAt}
}

// SubIndustryDTO - подотрасль.
type SubIndustryDTO struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	BaseScore  float64   `json:"base_score"`
	IndustryID int64     `json:"industry_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewSubIndustryDTO преобразует подотрасль в DTO.
func NewSubIndustryDTO(s *industry.SubIndustry) SubIndustryDTO {
	return SubIndustryDTO{
		ID:         s.ID,
		Name:       s.Name,
		BaseScore:  s.BaseScore,
		IndustryID: s.IndustryID,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

// CriteriaDTO - критерий отрасли.
type CriteriaDTO struct {
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	IndustryID int64     `json:"industry_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewCriteriaDTO преобразует критерий в DTO.
func NewCriteriaDTO(c *industry.Criteria) CriteriaDTO {
	return CriteriaDTO{ID: c.ID, Text: c.Text, IndustryID: c.IndustryID, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

// PointDTO - точка. Поле mark - агрегированный рейтинг.
type PointDTO struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	IndustryID    int64     `json:"industry_id"`
	SubIndustryID int64     `json:"sub_industry_id"`
	CreatorID     *int64    `json:"creator_id"`
	Mark          float64   `json:"mark"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewPointDTO преобразует точку в DTO.
func NewPointDTO(p *point.Point) PointDTO {
	return PointDTO{
		ID:            p.ID,
		Name:          p.Name,
		Latitude:      p.Latitude,
		Longitude:     p.Longitude,
		IndustryID:    p.IndustryID,
		SubIndustryID: p.SubIndustryID,
		CreatorID:     p.CreatorID,
		Mark:          p.Rating,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// MarkDTO - отзыв.
type MarkDTO struct {
	ID          int64     `json:"id"`
	PointID     int64     `json:"point_id"`
	UserID      *int64    `json:"user_id"`
	QuestionIDs []int64   `json:"question_ids"`
	Answers     []int     `json:"answers"`
	Weights     []float64 `json:"weights"`
	Comment     *string   `json:"comment"`
	Photos      []string  `json:"photos"`
	TotalScore  float64   `json:"total_score"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewMarkDTO преобразует отзыв в DTO.
func NewMarkDTO(m *mark.Mark) MarkDTO {
	photos := m.Photos
	if photos == nil {
		photos = []string{}
	}
	return MarkDTO{
		ID:          m.ID,
		PointID:     m.PointID,
		UserID:      m.UserID,
		QuestionIDs: m.QuestionIDs,
		Answers:     m.Answers,
		Weights:     m.Weights,
		Comment:     m.Comment,
		Photos:      photos,
		TotalScore:  m.TotalScore,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// CommentDTO - публичный комментарий пользователя.
type CommentDTO struct {
	ID        int64     `json:"id"`
	PointID   int64     `json:"point_id"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// AchievementDTO - запись каталога достижений.
type AchievementDTO struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	AchievementType  string    `json:"achievement_type"`
	RequirementValue int       `json:"requirement_value"`
	XPReward         int       `json:"xp_reward"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewAchievementDTO преобразует достижение в DTO.
func NewAchievementDTO(a *achievement.Achievement) AchievementDTO {
	return AchievementDTO{
		ID:               a.ID,
		Name:             a.Name,
		Description:      a.Description,
		AchievementType:  string(a.Type),
		RequirementValue: a.RequirementValue,
		XPReward:         a.XPReward,
		CreatedAt:        a.CreatedAt,
	}
}

// UserAchievementDTO - сохранённый прогресс пользователя по достижению.
type UserAchievementDTO struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	AchievementID int64           `json:"achievement_id"`
	Progress      int             `json:"progress"`
	IsCompleted   bool            `json:"is_completed"`
	CompletedAt   *time.Time      `json:"completed_at"`
	CreatedAt     time.Time       `json:"created_at"`
	Achievement   *AchievementDTO `json:"achievement"`
}

// NewUserAchievementDTO преобразует запись прогресса в DTO. a может быть nil.
func NewUserAchievementDTO(ua *achievement.UserAchievement, a *achievement.Achievement) UserAchievementDTO {
	dto := UserAchievementDTO{
		ID:            ua.ID,
		UserID:        ua.UserID,
		AchievementID: ua.AchievementID,
		Progress:      ua.Progress,
		IsCompleted:   ua.IsCompleted,
		CompletedAt:   ua.CompletedAt,
		CreatedAt:     ua.CreatedAt,
	}
	if a != nil {
		ad := NewAchievementDTO(a)
		dto.Achievement = &ad
	}
	return dto
}

// AchievementProgressDTO - достижение с сохранённым и живым прогрессом.
type AchievementProgressDTO struct {
	Achievement      AchievementDTO `json:"achievement"`
	Progress         int            `json:"progress"`
	CurrentProgress  int            `json:"current_progress"`
	IsCompleted      bool           `json:"is_completed"`
	CompletedAt      *time.Time     `json:"completed_at"`
	RequirementValue int            `json:"requirement_value"`
	XPReward         int            `json:"xp_reward"`
}

// NewAchievementProgressDTO преобразует отчёт в DTO.
func NewAchievementProgressDTO(r achievement.Report) AchievementProgressDTO {
	return AchievementProgressDTO{
		Achievement:      NewAchievementDTO(r.Achievement),
		Progress:         r.Progress,
		CurrentProgress:  r.CurrentProgress,
		IsCompleted:      r.IsCompleted,
		CompletedAt:      r.CompletedAt,
		RequirementValue: r.Achievement.RequirementValue,
		XPReward:         r.Achievement.XPReward,
	}
}

// ActivityDTO - элемент ленты активности.
type ActivityDTO struct {
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	Title         string    `json:"title"`
	Description   *string   `json:"description"`
	XPGained      *int      `json:"xp_gained"`
	PointID       *int64    `json:"point_id"`
	AchievementID *int64    `json:"achievement_id"`
}

// NewActivityDTO преобразует элемент ленты в DTO.
func NewActivityDTO(it activity.Item) ActivityDTO {
	dto := ActivityDTO{
		Type:          string(it.Kind),
		Timestamp:     it.Timestamp,
		Title:         it.Title,
		XPGained:      it.XPGained,
		PointID:       it.PointID,
		AchievementID: it.AchievementID,
	}
	if it.Description != "" {
		d := it.Description
		dto.Description = &d
	}
	return dto
}
