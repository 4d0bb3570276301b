package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ingvionio/fullstack/internal/domain/mark"
	"github.com/ingvionio/fullstack/internal/domain/shared"
)

type markRepo struct {
	q querier
}

const markColumns = "id, point_id, user_id, question_ids, answers, weights, comment, photos, total_score, created_at, updated_at"

func scanMark(row interface{ Scan(...any) error }) (*mark.Mark, error) {
	var (
		m                                    mark.Mark
		userID                               sql.NullInt64
		comment                              sql.NullString
		questionIDs, answers, weights, photo string
		createdAt, updatedAt                 int64
	)
	if err := row.Scan(&m.ID, &m.PointID, &userID, &questionIDs, &answers, &weights,
		&comment, &photo, &m.TotalScore, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	m.UserID = fromNullInt64(userID)
	m.Comment = fromNullString(comment)
	m.QuestionIDs = []int64{}
	m.Answers = []int{}
	m.Weights = []float64{}
	m.Photos = []string{}
	for _, col := range []struct {
		raw string
		dst any
	}{
		{questionIDs, &m.QuestionIDs},
		{answers, &m.Answers},
		{weights, &m.Weights},
		{photo, &m.Photos},
	} {
		if err := decodeJSON(col.raw, col.dst); err != nil {
			return nil, err
		}
	}
	m.CreatedAt = fromMicros(createdAt)
	m.UpdatedAt = fromMicros(updatedAt)
	return &m, nil
}

func (r *markRepo) Create(ctx context.Context, m *mark.Mark) error {
	var cols [4]string
	for i, v := range []any{m.QuestionIDs, m.Answers, m.Weights, nonNilStrings(m.Photos)} {
		s, err := encodeJSON(v)
		if err != nil {
			return err
		}
		cols[i] = s
	}
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO marks (point_id, user_id, question_ids, answers, weights, comment, photos, total_score, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.PointID, nullInt64(m.UserID), cols[0], cols[1], cols[2], nullString(m.Comment), cols[3],
		m.TotalScore, toMicros(m.CreatedAt), toMicros(m.UpdatedAt))
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.WrapError("mark", "Create", shared.ErrNotFound, "referenced entity not found", err)
		}
		return fmt.Errorf("insert mark: %w", err)
	}
	m.ID, err = res.LastInsertId()
	return err
}

func (r *markRepo) GetByID(ctx context.Context, id int64) (*mark.Mark, error) {
	m, err := scanMark(r.q.QueryRowContext(ctx, "SELECT "+markColumns+" FROM marks WHERE id = ?", id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrMarkNotFound
		}
		return nil, fmt.Errorf("get mark %d: %w", id, err)
	}
	return m, nil
}

func (r *markRepo) List(ctx context.Context, pointID *int64) ([]*mark.Mark, error) {
	query := "SELECT " + markColumns + " FROM marks"
	var args []any
	if pointID != nil {
		query += " WHERE point_id = ?"
		args = append(args, *pointID)
	}
	return r.list(ctx, query+" ORDER BY id", args...)
}

func (r *markRepo) ListCommentsByUser(ctx context.Context, userID int64) ([]*mark.Mark, error) {
	return r.list(ctx, "SELECT "+markColumns+` FROM marks
		WHERE user_id = ? AND comment IS NOT NULL AND comment <> ''
		ORDER BY created_at DESC, id DESC`, userID)
}

func (r *markRepo) list(ctx context.Context, query string, args ...any) ([]*mark.Mark, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list marks: %w", err)
	}
	defer rows.Close()

	out := make([]*mark.Mark, 0)
	for rows.Next() {
		m, err := scanMark(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mark: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *markRepo) UpdatePhotos(ctx context.Context, id int64, photos []string) error {
	raw, err := encodeJSON(nonNilStrings(photos))
	if err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx, "UPDATE marks SET photos = ?, updated_at = ? WHERE id = ?",
		raw, toMicros(time.Now()), id)
	if err != nil {
		return fmt.Errorf("update mark %d photos: %w", id, err)
	}
	return affectedOrNotFound(res, shared.ErrMarkNotFound)
}

func (r *markRepo) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.q, "marks", id, shared.ErrMarkNotFound)
}

func (r *markRepo) ScoresByPoint(ctx context.Context, pointID int64) ([]float64, error) {
	rows, err := r.q.QueryContext(ctx, "SELECT total_score FROM marks WHERE point_id = ? ORDER BY id", pointID)
	if err != nil {
		return nil, fmt.Errorf("scores of point %d: %w", pointID, err)
	}
	defer rows.Close()

	scores := make([]float64, 0)
	for rows.Next() {
		var s float64
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

func (r *markRepo) CountByUser(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM marks WHERE user_id = ?", userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count marks of user %d: %w", userID, err)
	}
	return n, nil
}

func (r *markRepo) CreatedAtByUser(ctx context.Context, userID int64) ([]time.Time, error) {
	rows, err := r.q.QueryContext(ctx, "SELECT created_at FROM marks WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("mark times of user %d: %w", userID, err)
	}
	defer rows.Close()

	times := make([]time.Time, 0)
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan mark time: %w", err)
		}
		times = append(times, fromMicros(v))
	}
	return times, rows.Err()
}

func (r *markRepo) ListRecentByUser(ctx context.Context, userID int64, limit int) ([]mark.Summary, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT m.id, m.point_id, COALESCE(p.name, ''), m.total_score, m.created_at
		FROM marks m
		LEFT JOIN points p ON p.id = m.point_id
		WHERE m.user_id = ?
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent marks: %w", err)
	}
	defer rows.Close()

	out := make([]mark.Summary, 0)
	for rows.Next() {
		var (
			s         mark.Summary
			createdAt int64
		)
		if err := rows.Scan(&s.ID, &s.PointID, &s.PointName, &s.TotalScore, &createdAt); err != nil {
			return nil, fmt.Errorf("scan mark summary: %w", err)
		}
		s.CreatedAt = fromMicros(createdAt)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *markRepo) PointIDsByUser(ctx context.Context, userID int64) ([]int64, error) {
	return queryIDs(ctx, r.q, "SELECT DISTINCT point_id FROM marks WHERE user_id = ? ORDER BY point_id", userID)
}
