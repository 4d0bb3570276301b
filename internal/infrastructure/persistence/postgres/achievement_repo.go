package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ingvionio/fullstack/internal/domain/achievement"
	"github.com/ingvionio/fullstack/internal/domain/shared"
)

// ─────────────────────────────────────────────────────────────────────────────
// Catalog
// ─────────────────────────────────────────────────────────────────────────────

type achievementRepo struct {
	q Querier
}

const achievementColumns = "id, name, description, achievement_type, requirement_value, xp_reward, created_at"

func scanAchievement(row pgx.Row) (*achievement.Achievement, error) {
	var (
		a   achievement.Achievement
		typ string
	)
	if err := row.Scan(&a.ID, &a.Name, &a.Description, &typ, &a.RequirementValue, &a.XPReward, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Type = achievement.Type(typ)
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

func (r *achievementRepo) Create(ctx context.Context, a *achievement.Achievement) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO achievements (name, description, achievement_type, requirement_value, xp_reward, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		a.Name, a.Description, string(a.Type), a.RequirementValue, a.XPReward, a.CreatedAt).Scan(&a.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAchievementExists
		}
		return fmt.Errorf("failed to create achievement: %w", err)
	}
	return nil
}

func (r *achievementRepo) GetByID(ctx context.Context, id int64) (*achievement.Achievement, error) {
	return r.get(ctx, "SELECT "+achievementColumns+" FROM achievements WHERE id = $1", id)
}

func (r *achievementRepo) GetByName(ctx context.Context, name string) (*achievement.Achievement, error) {
	return r.get(ctx, "SELECT "+achievementColumns+" FROM achievements WHERE name = $1", name)
}

func (r *achievementRepo) get(ctx context.Context, query string, arg interface{}) (*achievement.Achievement, error) {
	a, err := scanAchievement(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrAchievementNotFound
		}
		return nil, fmt.Errorf("failed to get achievement: %w", err)
	}
	return a, nil
}

func (r *achievementRepo) List(ctx context.Context) ([]*achievement.Achievement, error) {
	return r.list(ctx, "SELECT "+achievementColumns+" FROM achievements ORDER BY id")
}

func (r *achievementRepo) ListByType(ctx context.Context, t achievement.Type) ([]*achievement.Achievement, error) {
	return r.list(ctx, "SELECT "+achievementColumns+" FROM achievements WHERE achievement_type = $1 ORDER BY requirement_value, id", string(t))
}

func (r *achievementRepo) list(ctx context.Context, query string, args ...interface{}) ([]*achievement.Achievement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	defer rows.Close()

	out := make([]*achievement.Achievement, 0)
	for rows.Next() {
		a, err := scanAchievement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// User progress
// ─────────────────────────────────────────────────────────────────────────────

type progressRepo struct {
	q Querier
}

const progressColumns = "id, user_id, achievement_id, progress, is_completed, completed_at, created_at"

func scanProgress(row pgx.Row) (*achievement.UserAchievement, error) {
	var ua achievement.UserAchievement
	if err := row.Scan(&ua.ID, &ua.UserID, &ua.AchievementID, &ua.Progress, &ua.IsCompleted, &ua.CompletedAt, &ua.CreatedAt); err != nil {
		return nil, err
	}
	ua.CompletedAt = utcPtr(ua.CompletedAt)
	ua.CreatedAt = ua.CreatedAt.UTC()
	return &ua, nil
}

func (r *progressRepo) Get(ctx context.Context, userID, achievementID int64) (*achievement.UserAchievement, error) {
	ua, err := scanProgress(r.q.QueryRow(ctx,
		"SELECT "+progressColumns+" FROM user_achievements WHERE user_id = $1 AND achievement_id = $2",
		userID, achievementID))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserAchievementNotFound
		}
		return nil, fmt.Errorf("failed to get user achievement: %w", err)
	}
	return ua, nil
}

func (r *progressRepo) Create(ctx context.Context, ua *achievement.UserAchievement) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO user_achievements (user_id, achievement_id, progress, is_completed, completed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		ua.UserID, ua.AchievementID, ua.Progress, ua.IsCompleted, ua.CompletedAt, ua.CreatedAt).Scan(&ua.ID)
	if err != nil {
		switch {
		case IsUniqueViolation(err):
			return shared.NewDomainError("achievement", "CreateProgress", shared.ErrAlreadyExists, "user achievement already exists")
		case IsForeignKeyViolation(err):
			return shared.WrapError("achievement", "CreateProgress", shared.ErrNotFound, "user or achievement not found", err)
		}
		return fmt.Errorf("failed to create user achievement: %w", err)
	}
	return nil
}

func (r *progressRepo) Save(ctx context.Context, ua *achievement.UserAchievement) error {
	tag, err := r.q.Exec(ctx,
		"UPDATE user_achievements SET progress = $1, is_completed = $2, completed_at = $3 WHERE id = $4",
		ua.Progress, ua.IsCompleted, ua.CompletedAt, ua.ID)
	if err != nil {
		return fmt.Errorf("failed to save user achievement %d: %w", ua.ID, err)
	}
	return affectedOrNotFound(tag, shared.ErrUserAchievementNotFound)
}

func (r *progressRepo) ListByUser(ctx context.Context, userID int64, onlyCompleted bool) ([]*achievement.UserAchievement, error) {
	rows, err := r.q.Query(ctx, "SELECT "+progressColumns+` FROM user_achievements
		WHERE user_id = $1 AND (NOT $2 OR is_completed)
		ORDER BY id`, userID, onlyCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list user achievements: %w", err)
	}
	defer rows.Close()

	out := make([]*achievement.UserAchievement, 0)
	for rows.Next() {
		ua, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user achievement: %w", err)
		}
		out = append(out, ua)
	}
	return out, rows.Err()
}

func (r *progressRepo) ListRecentCompleted(ctx context.Context, userID int64, limit int) ([]achievement.Unlocked, error) {
	rows, err := r.q.Query(ctx, `
		SELECT ua.id, ua.user_id, ua.achievement_id, ua.progress, ua.is_completed, ua.completed_at, ua.created_at,
		       a.id, a.name, a.description, a.achievement_type, a.requirement_value, a.xp_reward, a.created_at
		FROM user_achievements ua
		JOIN achievements a ON a.id = ua.achievement_id
		WHERE ua.user_id = $1 AND ua.is_completed AND ua.completed_at IS NOT NULL
		ORDER BY ua.completed_at DESC, ua.id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed achievements: %w", err)
	}
	defer rows.Close()

	out := make([]achievement.Unlocked, 0)
	for rows.Next() {
		var (
			ua  achievement.UserAchievement
			a   achievement.Achievement
			typ string
		)
		if err := rows.Scan(&ua.ID, &ua.UserID, &ua.AchievementID, &ua.Progress, &ua.IsCompleted, &ua.CompletedAt, &ua.CreatedAt,
			&a.ID, &a.Name, &a.Description, &typ, &a.RequirementValue, &a.XPReward, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan completed achievement: %w", err)
		}
		ua.CompletedAt = utcPtr(ua.CompletedAt)
		ua.CreatedAt = ua.CreatedAt.UTC()
		a.Type = achievement.Type(typ)
		a.CreatedAt = a.CreatedAt.UTC()
		out = append(out, achievement.Unlocked{Achievement: &a, Progress: &ua})
	}
	return out, rows.Err()
}
