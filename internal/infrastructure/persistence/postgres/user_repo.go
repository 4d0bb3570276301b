package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ingvionio/fullstack/internal/domain/shared"
	"github.com/ingvionio/fullstack/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

type userRepo struct {
	q Querier
}

const userColumns = `id, username, email, password_hash, xp, level, avatar_url, avatar_history, created_at, updated_at`

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.XP, &u.Level,
		&u.AvatarURL, &u.AvatarHistory, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.AvatarHistory = nonNil(u.AvatarHistory)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, xp, level, avatar_url, avatar_history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := r.q.QueryRow(ctx, query,
		u.Username, u.Email, u.PasswordHash, u.XP, u.Level,
		u.AvatarURL, nonNil(u.AvatarHistory), u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return u, nil
}

func (r *userRepo) GetByLogin(ctx context.Context, login string) (*user.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = $1 OR email = $1 ORDER BY id LIMIT 1", login))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by login: %w", err)
	}
	return u, nil
}

func (r *userRepo) ExistsOther(ctx context.Context, excludeID int64, username, email string) (bool, error) {
	if username == "" && email == "" {
		return false, nil
	}
	query := `
		SELECT EXISTS(
			SELECT 1 FROM users
			WHERE id <> $1 AND (($2 <> '' AND username = $2) OR ($3 <> '' AND email = $3))
		)
	`
	ok, err := exists(ctx, r.q, query, excludeID, username, email)
	if err != nil {
		return false, fmt.Errorf("failed to check user uniqueness: %w", err)
	}
	return ok, nil
}

func (r *userRepo) List(ctx context.Context, opts user.ListOptions) ([]*user.User, error) {
	page := shared.NewPage(opts.Page.Skip, opts.Page.Limit)
	return r.list(ctx, "SELECT "+userColumns+" FROM users ORDER BY id LIMIT $1 OFFSET $2", page.Limit, page.Skip)
}

func (r *userRepo) ListTopByXP(ctx context.Context, limit int) ([]*user.User, error) {
	return r.list(ctx, "SELECT "+userColumns+" FROM users ORDER BY xp DESC, id ASC LIMIT $1", limit)
}

func (r *userRepo) Standing(ctx context.Context, xp int) (int, int, error) {
	var above, total int
	err := r.q.QueryRow(ctx,
		"SELECT COUNT(*) FILTER (WHERE xp > $1), COUNT(*) FROM users", xp,
	).Scan(&above, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get user standing: %w", err)
	}
	return above, total, nil
}

func (r *userRepo) list(ctx context.Context, query string, args ...interface{}) ([]*user.User, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepo) Update(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users SET
			username = $1,
			email = $2,
			password_hash = $3,
			xp = $4,
			level = $5,
			avatar_url = $6,
			avatar_history = $7,
			updated_at = $8
		WHERE id = $9
	`
	tag, err := r.q.Exec(ctx, query,
		u.Username, u.Email, u.PasswordHash, u.XP, u.Level,
		u.AvatarURL, nonNil(u.AvatarHistory), u.UpdatedAt, u.ID,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to update user %d: %w", u.ID, err)
	}
	return affectedOrNotFound(tag, shared.ErrUserNotFound)
}

func (r *userRepo) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.q, "users", id, shared.ErrUserNotFound)
}
