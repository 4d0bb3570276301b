package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ingvionio/fullstack/internal/domain/achievement"
	"github.com/ingvionio/fullstack/internal/domain/shared"
)

// ──────────────────────────────────────────────────────────────────────────────
// Catalog
// ──────────────────────────────────────────────────────────────────────────────

type achievementRepo struct {
	q querier
}

const achievementColumns = "id, name, description, achievement_type, requirement_value, xp_reward, created_at"

func scanAchievement(row interface{ Scan(...any) error }) (*achievement.Achievement, error) {
	var (
		a         achievement.Achievement
		typ       string
		createdAt int64
	)
	if err := row.Scan(&a.ID, &a.Name, &a.Description, &typ, &a.RequirementValue, &a.XPReward, &createdAt); err != nil {
		return nil, err
	}
	a.Type = achievement.Type(typ)
	a.CreatedAt = fromMicros(createdAt)
	return &a, nil
}

func (r *achievementRepo) Create(ctx context.Context, a *achievement.Achievement) error {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO achievements (name, description, achievement_type, requirement_value, xp_reward, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.Name, a.Description, string(a.Type), a.RequirementValue, a.XPReward, toMicros(a.CreatedAt))
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAchievementExists
		}
		return fmt.Errorf("insert achievement: %w", err)
	}
	a.ID, err = res.LastInsertId()
	return err
}

func (r *achievementRepo) GetByID(ctx context.Context, id int64) (*achievement.Achievement, error) {
	return r.get(ctx, "SELECT "+achievementColumns+" FROM achievements WHERE id = ?", id)
}

func (r *achievementRepo) GetByName(ctx context.Context, name string) (*achievement.Achievement, error) {
	return r.get(ctx, "SELECT "+achievementColumns+" FROM achievements WHERE name = ?", name)
}

func (r *achievementRepo) get(ctx context.Context, query string, arg any) (*achievement.Achievement, error) {
	a, err := scanAchievement(r.q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrAchievementNotFound
		}
		return nil, fmt.Errorf("get achievement: %w", err)
	}
	return a, nil
}

func (r *achievementRepo) List(ctx context.Context) ([]*achievement.Achievement, error) {
	return r.list(ctx, "SELECT "+achievementColumns+" FROM achievements ORDER BY id")
}

func (r *achievementRepo) ListByType(ctx context.Context, t achievement.Type) ([]*achievement.Achievement, error) {
	return r.list(ctx, "SELECT "+achievementColumns+" FROM achievements WHERE achievement_type = ? ORDER BY requirement_value, id", string(t))
}

func (r *achievementRepo) list(ctx context.Context, query string, args ...any) ([]*achievement.Achievement, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()

	out := make([]*achievement.Achievement, 0)
	for rows.Next() {
		a, err := scanAchievement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ──────────────────────────────────────────────────────────────────────────────
// User progress
// ──────────────────────────────────────────────────────────────────────────────

type progressRepo struct {
	q querier
}

const progressColumns = "id, user_id, achievement_id, progress, is_completed, completed_at, created_at"

func scanProgress(row interface{ Scan(...any) error }) (*achievement.UserAchievement, error) {
	var (
		ua          achievement.UserAchievement
		completedAt sql.NullInt64
		createdAt   int64
	)
	if err := row.Scan(&ua.ID, &ua.UserID, &ua.AchievementID, &ua.Progress, &ua.IsCompleted, &completedAt, &createdAt); err != nil {
		return nil, err
	}
	ua.CompletedAt = fromNullMicros(completedAt)
	ua.CreatedAt = fromMicros(createdAt)
	return &ua, nil
}

func (r *progressRepo) Get(ctx context.Context, userID, achievementID int64) (*achievement.UserAchievement, error) {
	ua, err := scanProgress(r.q.QueryRowContext(ctx,
		"SELECT "+progressColumns+" FROM user_achievements WHERE user_id = ? AND achievement_id = ?",
		userID, achievementID))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserAchievementNotFound
		}
		return nil, fmt.Errorf("get user achievement: %w", err)
	}
	return ua, nil
}

func (r *progressRepo) Create(ctx context.Context, ua *achievement.UserAchievement) error {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO user_achievements (user_id, achievement_id, progress, is_completed, completed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ua.UserID, ua.AchievementID, ua.Progress, ua.IsCompleted, nullMicros(ua.CompletedAt), toMicros(ua.CreatedAt))
	if err != nil {
		switch {
		case IsUniqueViolation(err):
			return shared.NewDomainError("achievement", "CreateProgress", shared.ErrAlreadyExists, "user achievement already exists")
		case IsForeignKeyViolation(err):
			return shared.WrapError("achievement", "CreateProgress", shared.ErrNotFound, "user or achievement not found", err)
		}
		return fmt.Errorf("insert user achievement: %w", err)
	}
	ua.ID, err = res.LastInsertId()
	return err
}

func (r *progressRepo) Save(ctx context.Context, ua *achievement.UserAchievement) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE user_achievements SET progress = ?, is_completed = ?, completed_at = ? WHERE id = ?",
		ua.Progress, ua.IsCompleted, nullMicros(ua.CompletedAt), ua.ID)
	if err != nil {
		return fmt.Errorf("save user achievement %d: %w", ua.ID, err)
	}
	return affectedOrNotFound(res, shared.ErrUserAchievementNotFound)
}

func (r *progressRepo) ListByUser(ctx context.Context, userID int64, onlyCompleted bool) ([]*achievement.UserAchievement, error) {
	query := "SELECT " + progressColumns + " FROM user_achievements WHERE user_id = ?"
	if onlyCompleted {
		query += " AND is_completed = 1"
	}
	rows, err := r.q.QueryContext(ctx, query+" ORDER BY id", userID)
	if err != nil {
		return nil, fmt.Errorf("list user achievements: %w", err)
	}
	defer rows.Close()

	out := make([]*achievement.UserAchievement, 0)
	for rows.Next() {
		ua, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user achievement: %w", err)
		}
		out = append(out, ua)
	}
	return out, rows.Err()
}

func (r *progressRepo) ListRecentCompleted(ctx context.Context, userID int64, limit int) ([]achievement.Unlocked, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT ua.id, ua.user_id, ua.achievement_id, ua.progress, ua.is_completed, ua.completed_at, ua.created_at,
		       a.id, a.name, a.description, a.achievement_type, a.requirement_value, a.xp_reward, a.created_at
		FROM user_achievements ua
		JOIN achievements a ON a.id = ua.achievement_id
		WHERE ua.user_id = ? AND ua.is_completed = 1 AND ua.completed_at IS NOT NULL
		ORDER BY ua.completed_at DESC, ua.id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list completed achievements: %w", err)
	}
	defer rows.Close()

	out := make([]achievement.Unlocked, 0)
	for rows.Next() {
		var (
			ua                    achievement.UserAchievement
			a                     achievement.Achievement
			typ                   string
			completedAt           sql.NullInt64
			uaCreated, achCreated int64
		)
		if err := rows.Scan(&ua.ID, &ua.UserID, &ua.AchievementID, &ua.Progress, &ua.IsCompleted, &completedAt, &uaCreated,
			&a.ID, &a.Name, &a.Description, &typ, &a.RequirementValue, &a.XPReward, &achCreated); err != nil {
			return nil, fmt.Errorf("scan completed achievement: %w", err)
		}
		ua.CompletedAt = fromNullMicros(completedAt)
		ua.CreatedAt = fromMicros(uaCreated)
		a.Type = achievement.Type(typ)
		a.CreatedAt = fromMicros(achCreated)
		out = append(out, achievement.Unlocked{Achievement: &a, Progress: &ua})
	}
	return out, rows.Err()
}
