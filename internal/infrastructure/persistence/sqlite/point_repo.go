package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ingvionio/fullstack/internal/domain/point"
	"github.com/ingvionio/fullstack/internal/domain/shared"
)

type pointRepo struct {
	q querier
}

const pointColumns = "id, name, latitude, longitude, mark, industry_id, sub_industry_id, creator_id, created_at, updated_at"

func scanPoint(row interface{ Scan(...any) error }) (*point.Point, error) {
	var (
		p                    point.Point
		creator              sql.NullInt64
		createdAt, updatedAt int64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Latitude, &p.Longitude, &p.Rating,
		&p.IndustryID, &p.SubIndustryID, &creator, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.CreatorID = fromNullInt64(creator)
	p.CreatedAt = fromMicros(createdAt)
	p.UpdatedAt = fromMicros(updatedAt)
	return &p, nil
}

func (r *pointRepo) Create(ctx context.Context, p *point.Point) error {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO points (name, latitude, longitude, mark, industry_id, sub_industry_id, creator_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Latitude, p.Longitude, p.Rating, p.IndustryID, p.SubIndustryID,
		nullInt64(p.CreatorID), toMicros(p.CreatedAt), toMicros(p.UpdatedAt))
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.WrapError("point", "Create", shared.ErrNotFound, "referenced entity not found", err)
		}
		return fmt.Errorf("insert point: %w", err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (r *pointRepo) GetByID(ctx context.Context, id int64) (*point.Point, error) {
	p, err := scanPoint(r.q.QueryRowContext(ctx, "SELECT "+pointColumns+" FROM points WHERE id = ?", id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrPointNotFound
		}
		return nil, fmt.Errorf("get point %d: %w", id, err)
	}
	return p, nil
}

func (r *pointRepo) List(ctx context.Context, f point.Filter) ([]*point.Point, error) {
	var (
		where []string
		args  []any
	)
	if f.IndustryID != nil {
		where = append(where, "industry_id = ?")
		args = append(args, *f.IndustryID)
	}
	if f.SubIndustryID != nil {
		where = append(where, "sub_industry_id = ?")
		args = append(args, *f.SubIndustryID)
	}
	if f.CreatorID != nil {
		where = append(where, "creator_id = ?")
		args = append(args, *f.CreatorID)
	}

	query := "SELECT " + pointColumns + " FROM points"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	page := shared.NewPage(f.Page.Skip, f.Page.Limit)
	query += " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, page.Limit, page.Skip)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list points: %w", err)
	}
	defer rows.Close()

	out := make([]*point.Point, 0)
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *pointRepo) Update(ctx context.Context, p *point.Point) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE points SET name = ?, latitude = ?, longitude = ?, industry_id = ?, sub_industry_id = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Latitude, p.Longitude, p.IndustryID, p.SubIndustryID, toMicros(p.UpdatedAt), p.ID)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.WrapError("point", "Update", shared.ErrNotFound, "referenced entity not found", err)
		}
		return fmt.Errorf("update point %d: %w", p.ID, err)
	}
	return affectedOrNotFound(res, shared.ErrPointNotFound)
}

func (r *pointRepo) UpdateRating(ctx context.Context, id int64, rating float64) error {
	res, err := r.q.ExecContext(ctx, "UPDATE points SET mark = ? WHERE id = ?", rating, id)
	if err != nil {
		return fmt.Errorf("update point %d rating: %w", id, err)
	}
	return affectedOrNotFound(res, shared.ErrPointNotFound)
}

func (r *pointRepo) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.q, "points", id, shared.ErrPointNotFound)
}

func (r *pointRepo) CountByCreator(ctx context.Context, creatorID int64) (int, error) {
	var n int
	if err := r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM points WHERE creator_id = ?", creatorID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count points of user %d: %w", creatorID, err)
	}
	return n, nil
}

func (r *pointRepo) ListRecentByCreator(ctx context.Context, creatorID int64, limit int) ([]point.Summary, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, name, created_at FROM points
		WHERE creator_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, creatorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent points: %w", err)
	}
	defer rows.Close()

	out := make([]point.Summary, 0)
	for rows.Next() {
		var (
			s         point.Summary
			createdAt int64
		)
		if err := rows.Scan(&s.ID, &s.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scan point summary: %w", err)
		}
		s.CreatedAt = fromMicros(createdAt)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *pointRepo) ListIDsBySubIndustry(ctx context.Context, subIndustryID int64) ([]int64, error) {
	return queryIDs(ctx, r.q, "SELECT id FROM points WHERE sub_industry_id = ? ORDER BY id", subIndustryID)
}
