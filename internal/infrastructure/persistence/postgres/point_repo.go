package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ingvionio/fullstack/internal/domain/point"
	"github.com/ingvionio/fullstack/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// POINT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

type pointRepo struct {
	q Querier
}

const pointColumns = "id, name, latitude, longitude, mark, industry_id, sub_industry_id, creator_id, created_at, updated_at"

func scanPoint(row pgx.Row) (*point.Point, error) {
	var p point.Point
	if err := row.Scan(&p.ID, &p.Name, &p.Latitude, &p.Longitude, &p.Rating,
		&p.IndustryID, &p.SubIndustryID, &p.CreatorID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func (r *pointRepo) Create(ctx context.Context, p *point.Point) error {
	query := `
		INSERT INTO points (name, latitude, longitude, mark, industry_id, sub_industry_id, creator_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := r.q.QueryRow(ctx, query,
		p.Name, p.Latitude, p.Longitude, p.Rating, p.IndustryID, p.SubIndustryID,
		p.CreatorID, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.WrapError("point", "Create", shared.ErrNotFound, "referenced entity not found", err)
		}
		return fmt.Errorf("failed to create point: %w", err)
	}
	return nil
}

func (r *pointRepo) GetByID(ctx context.Context, id int64) (*point.Point, error) {
	p, err := scanPoint(r.q.QueryRow(ctx, "SELECT "+pointColumns+" FROM points WHERE id = $1", id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrPointNotFound
		}
		return nil, fmt.Errorf("failed to get point %d: %w", id, err)
	}
	return p, nil
}

func (r *pointRepo) List(ctx context.Context, f point.Filter) ([]*point.Point, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.IndustryID != nil {
		add("industry_id = $%d", *f.IndustryID)
	}
	if f.SubIndustryID != nil {
		add("sub_industry_id = $%d", *f.SubIndustryID)
	}
	if f.CreatorID != nil {
		add("creator_id = $%d", *f.CreatorID)
	}

	query := "SELECT " + pointColumns + " FROM points"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	page := shared.NewPage(f.Page.Skip, f.Page.Limit)
	args = append(args, page.Limit, page.Skip)
	query += fmt.Sprintf(" ORDER BY id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list points: %w", err)
	}
	defer rows.Close()

	out := make([]*point.Point, 0)
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *pointRepo) Update(ctx context.Context, p *point.Point) error {
	query := `
		UPDATE points SET
			name = $1,
			latitude = $2,
			longitude = $3,
			industry_id = $4,
			sub_industry_id = $5,
			updated_at = $6
		WHERE id = $7
	`
	tag, err := r.q.Exec(ctx, query,
		p.Name, p.Latitude, p.Longitude, p.IndustryID, p.SubIndustryID, p.UpdatedAt, p.ID)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.WrapError("point", "Update", shared.ErrNotFound, "referenced entity not found", err)
		}
		return fmt.Errorf("failed to update point %d: %w", p.ID, err)
	}
	return affectedOrNotFound(tag, shared.ErrPointNotFound)
}

func (r *pointRepo) UpdateRating(ctx context.Context, id int64, rating float64) error {
	tag, err := r.q.Exec(ctx, "UPDATE points SET mark = $1 WHERE id = $2", rating, id)
	if err != nil {
		return fmt.Errorf("failed to update point %d rating: %w", id, err)
	}
	return affectedOrNotFound(tag, shared.ErrPointNotFound)
}

func (r *pointRepo) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.q, "points", id, shared.ErrPointNotFound)
}

func (r *pointRepo) CountByCreator(ctx context.Context, creatorID int64) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, "SELECT COUNT(*) FROM points WHERE creator_id = $1", creatorID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count points of user %d: %w", creatorID, err)
	}
	return n, nil
}

func (r *pointRepo) ListRecentByCreator(ctx context.Context, creatorID int64, limit int) ([]point.Summary, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, name, created_at FROM points
		WHERE creator_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, creatorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent points: %w", err)
	}
	defer rows.Close()

	out := make([]point.Summary, 0)
	for rows.Next() {
		var s point.Summary
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan point summary: %w", err)
		}
		s.CreatedAt = s.CreatedAt.UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *pointRepo) ListIDsBySubIndustry(ctx context.Context, subIndustryID int64) ([]int64, error) {
	return queryIDs(ctx, r.q, "SELECT id FROM points WHERE sub_industry_id = $1 ORDER BY id", subIndustryID)
}
