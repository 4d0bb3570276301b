package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ingvionio/fullstack/internal/domain/mark"
	"github.com/ingvionio/fullstack/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MARK REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

type markRepo struct {
	q Querier
}

const markColumns = "id, point_id, user_id, question_ids, answers, weights, comment, photos, total_score, created_at, updated_at"

func scanMark(row pgx.Row) (*mark.Mark, error) {
	var m mark.Mark
	if err := row.Scan(&m.ID, &m.PointID, &m.UserID, &m.QuestionIDs, &m.Answers, &m.Weights,
		&m.Comment, &m.Photos, &m.TotalScore, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.QuestionIDs = nonNil(m.QuestionIDs)
	m.Answers = nonNil(m.Answers)
	m.Weights = nonNil(m.Weights)
	m.Photos = nonNil(m.Photos)
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()
	return &m, nil
}

func (r *markRepo) Create(ctx context.Context, m *mark.Mark) error {
	query := `
		INSERT INTO marks (point_id, user_id, question_ids, answers, weights, comment, photos, total_score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err := r.q.QueryRow(ctx, query,
		m.PointID, m.UserID, nonNil(m.QuestionIDs), nonNil(m.Answers), nonNil(m.Weights),
		m.Comment, nonNil(m.Photos), m.TotalScore, m.CreatedAt, m.UpdatedAt,
	).Scan(&m.ID)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.WrapError("mark", "Create", shared.ErrNotFound, "referenced entity not found", err)
		}
		return fmt.Errorf("failed to create mark: %w", err)
	}
	return nil
}

func (r *markRepo) GetByID(ctx context.Context, id int64) (*mark.Mark, error) {
	m, err := scanMark(r.q.QueryRow(ctx, "SELECT "+markColumns+" FROM marks WHERE id = $1", id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrMarkNotFound
		}
		return nil, fmt.Errorf("failed to get mark %d: %w", id, err)
	}
	return m, nil
}

func (r *markRepo) List(ctx context.Context, pointID *int64) ([]*mark.Mark, error) {
	return r.list(ctx, "SELECT "+markColumns+" FROM marks WHERE $1::BIGINT IS NULL OR point_id = $1 ORDER BY id", pointID)
}

func (r *markRepo) ListCommentsByUser(ctx context.Context, userID int64) ([]*mark.Mark, error) {
	return r.list(ctx, "SELECT "+markColumns+` FROM marks
		WHERE user_id = $1 AND comment IS NOT NULL AND comment <> ''
		ORDER BY created_at DESC, id DESC`, userID)
}

func (r *markRepo) list(ctx context.Context, query string, args ...interface{}) ([]*mark.Mark, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list marks: %w", err)
	}
	defer rows.Close()

	out := make([]*mark.Mark, 0)
	for rows.Next() {
		m, err := scanMark(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mark: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *markRepo) UpdatePhotos(ctx context.Context, id int64, photos []string) error {
	tag, err := r.q.Exec(ctx, "UPDATE marks SET photos = $1, updated_at = $2 WHERE id = $3",
		nonNil(photos), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update mark %d photos: %w", id, err)
	}
	return affectedOrNotFound(tag, shared.ErrMarkNotFound)
}

func (r *markRepo) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.q, "marks", id, shared.ErrMarkNotFound)
}

func (r *markRepo) ScoresByPoint(ctx context.Context, pointID int64) ([]float64, error) {
	rows, err := r.q.Query(ctx, "SELECT total_score FROM marks WHERE point_id = $1 ORDER BY id", pointID)
	if err != nil {
		return nil, fmt.Errorf("failed to load scores of point %d: %w", pointID, err)
	}
	scores, err := pgx.CollectRows(rows, pgx.RowTo[float64])
	if err != nil {
		return nil, fmt.Errorf("failed to scan scores: %w", err)
	}
	return nonNil(scores), nil
}

func (r *markRepo) CountByUser(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, "SELECT COUNT(*) FROM marks WHERE user_id = $1", userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count marks of user %d: %w", userID, err)
	}
	return n, nil
}

func (r *markRepo) CreatedAtByUser(ctx context.Context, userID int64) ([]time.Time, error) {
	rows, err := r.q.Query(ctx, "SELECT created_at FROM marks WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load mark times of user %d: %w", userID, err)
	}
	times, err := pgx.CollectRows(rows, pgx.RowTo[time.Time])
	if err != nil {
		return nil, fmt.Errorf("failed to scan mark times: %w", err)
	}
	for i := range times {
		times[i] = times[i].UTC()
	}
	return nonNil(times), nil
}

func (r *markRepo) ListRecentByUser(ctx context.Context, userID int64, limit int) ([]mark.Summary, error) {
	rows, err := r.q.Query(ctx, `
		SELECT m.id, m.point_id, COALESCE(p.name, ''), m.total_score, m.created_at
		FROM marks m
		LEFT JOIN points p ON p.id = m.point_id
		WHERE m.user_id = $1
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent marks: %w", err)
	}
	defer rows.Close()

	out := make([]mark.Summary, 0)
	for rows.Next() {
		var s mark.Summary
		if err := rows.Scan(&s.ID, &s.PointID, &s.PointName, &s.TotalScore, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mark summary: %w", err)
		}
		s.CreatedAt = s.CreatedAt.UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *markRepo) PointIDsByUser(ctx context.Context, userID int64) ([]int64, error) {
	return queryIDs(ctx, r.q, "SELECT DISTINCT point_id FROM marks WHERE user_id = $1 ORDER BY point_id", userID)
}
