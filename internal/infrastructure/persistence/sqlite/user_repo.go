package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ingvionio/fullstack/internal/domain/shared"
	"github.com/ingvionio/fullstack/internal/domain/user"
)

type userRepo struct {
	q querier
}

const userColumns = `id, username, email, password_hash, xp, level, avatar_url, avatar_history, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*user.User, error) {
	var (
		u         user.User
		avatar    sql.NullString
		history   string
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.XP, &u.Level,
		&avatar, &history, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	u.AvatarURL = fromNullString(avatar)
	u.AvatarHistory = []string{}
	if err := decodeJSON(history, &u.AvatarHistory); err != nil {
		return nil, err
	}
	u.CreatedAt = fromMicros(createdAt)
	u.UpdatedAt = fromMicros(updatedAt)
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, u *user.User) error {
	history, err := encodeJSON(nonNilStrings(u.AvatarHistory))
	if err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, xp, level, avatar_url, avatar_history, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, u.XP, u.Level,
		nullString(u.AvatarURL), history, toMicros(u.CreatedAt), toMicros(u.UpdatedAt))
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrUserAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = id
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

func (r *userRepo) GetByLogin(ctx context.Context, login string) (*user.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ? OR email = ? ORDER BY id LIMIT 1", login, login))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by login: %w", err)
	}
	return u, nil
}

func (r *userRepo) ExistsOther(ctx context.Context, excludeID int64, username, email string) (bool, error) {
	if username == "" && email == "" {
		return false, nil
	}
	ok, err := exists(ctx, r.q, `
		SELECT EXISTS(
			SELECT 1 FROM users
			WHERE id <> ? AND ((? <> '' AND username = ?) OR (? <> '' AND email = ?))
		)`, excludeID, username, username, email, email)
	if err != nil {
		return false, fmt.Errorf("check user uniqueness: %w", err)
	}
	return ok, nil
}

func (r *userRepo) List(ctx context.Context, opts user.ListOptions) ([]*user.User, error) {
	page := shared.NewPage(opts.Page.Skip, opts.Page.Limit)
	return r.list(ctx, "SELECT "+userColumns+" FROM users ORDER BY id LIMIT ? OFFSET ?", page.Limit, page.Skip)
}

func (r *userRepo) ListTopByXP(ctx context.Context, limit int) ([]*user.User, error) {
	return r.list(ctx, "SELECT "+userColumns+" FROM users ORDER BY xp DESC, id ASC LIMIT ?", limit)
}

func (r *userRepo) Standing(ctx context.Context, xp int) (int, int, error) {
	var above, total int
	err := r.q.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(CASE WHEN xp > ? THEN 1 ELSE 0 END), 0), COUNT(*) FROM users", xp,
	).Scan(&above, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("user standing: %w", err)
	}
	return above, total, nil
}

func (r *userRepo) list(ctx context.Context, query string, args ...any) ([]*user.User, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]*user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepo) Update(ctx context.Context, u *user.User) error {
	history, err := encodeJSON(nonNilStrings(u.AvatarHistory))
	if err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx, `
		UPDATE users SET username = ?, email = ?, password_hash = ?, xp = ?, level = ?,
			avatar_url = ?, avatar_history = ?, updated_at = ?
		WHERE id = ?`,
		u.Username, u.Email, u.PasswordHash, u.XP, u.Level,
		nullString(u.AvatarURL), history, toMicros(u.UpdatedAt), u.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrUserAlreadyExists
		}
		return fmt.Errorf("update user %d: %w", u.ID, err)
	}
	return affectedOrNotFound(res, shared.ErrUserNotFound)
}

func (r *userRepo) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.q, "users", id, shared.ErrUserNotFound)
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
