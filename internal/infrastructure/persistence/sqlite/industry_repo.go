package sqlite

import (
	"context"
	"fmt"

	"github.com/ingvionio/fullstack/internal/domain/industry"
	"github.com/ingvionio/fullstack/internal/domain/shared"
)

// ──────────────────────────────────────────────────────────────────────────────
// Industries
// ──────────────────────────────────────────────────────────────────────────────

type industryRepo struct {
	q querier
}

func scanIndustry(row interface{ Scan(...any) error }) (*industry.Industry, error) {
	var (
		i                    industry.Industry
		createdAt, updatedAt int64
	)
	if err := row.Scan(&i.ID, &i.Name, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	i.CreatedAt = fromMicros(createdAt)
	i.UpdatedAt = fromMicros(updatedAt)
	return &i, nil
}

func (r *industryRepo) Create(ctx context.Context, i *industry.Industry) error {
	res, err := r.q.ExecContext(ctx,
		"INSERT INTO industries (name, created_at, updated_at) VALUES (?, ?, ?)",
		i.Name, toMicros(i.CreatedAt), toMicros(i.UpdatedAt))
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrIndustryAlreadyExists
		}
		return fmt.Errorf("insert industry: %w", err)
	}
	i.ID, err = res.LastInsertId()
	return err
}

func (r *industryRepo) GetByID(ctx context.Context, id int64) (*industry.Industry, error) {
	i, err := scanIndustry(r.q.QueryRowContext(ctx,
		"SELECT id, name, created_at, updated_at FROM industries WHERE id = ?", id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrIndustryNotFound
		}
		return nil, fmt.Errorf("get industry %d: %w", id, err)
	}
	return i, nil
}

func (r *industryRepo) List(ctx context.Context) ([]*industry.Industry, error) {
	rows, err := r.q.QueryContext(ctx, "SELECT id, name, created_at, updated_at FROM industries ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list industries: %w", err)
	}
	defer rows.Close()

	out := make([]*industry.Industry, 0)
	for rows.Next() {
		i, err := scanIndustry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan industry: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (r *industryRepo) Update(ctx context.Context, i *industry.Industry) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE industries SET name = ?, updated_at = ? WHERE id = ?",
		i.Name, toMicros(i.UpdatedAt), i.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrIndustryAlreadyExists
		}
		return fmt.Errorf("update industry %d: %w", i.ID, err)
	}
	return affectedOrNotFound(res, shared.ErrIndustryNotFound)
}

func (r *industryRepo) Delete(ctx context.Context, id int64) error {
	inUse, err := exists(ctx, r.q, "SELECT EXISTS(SELECT 1 FROM points WHERE industry_id = ?)", id)
	if err != nil {
		return fmt.Errorf("check industry usage: %w", err)
	}
	if inUse {
		return shared.ErrIndustryInUse
	}
	err = deleteByID(ctx, r.q, "industries", id, shared.ErrIndustryNotFound)
	if IsForeignKeyViolation(err) {
		return shared.ErrIndustryInUse
	}
	return err
}

// ──────────────────────────────────────────────────────────────────────────────
// Sub-industries
// ──────────────────────────────────────────────────────────────────────────────

type subIndustryRepo struct {
	q querier
}

const subIndustryColumns = "id, name, industry_id, base_score, created_at, updated_at"

func scanSubIndustry(row interface{ Scan(...any) error }) (*industry.SubIndustry, error) {
	var (
		s                    industry.SubIndustry
		createdAt, updatedAt int64
	)
	if err := row.Scan(&s.ID, &s.Name, &s.IndustryID, &s.BaseScore, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	s.CreatedAt = fromMicros(createdAt)
	s.UpdatedAt = fromMicros(updatedAt)
	return &s, nil
}

func (r *subIndustryRepo) Create(ctx context.Context, s *industry.SubIndustry) error {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO sub_industries (name, industry_id, base_score, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		s.Name, s.IndustryID, s.BaseScore, toMicros(s.CreatedAt), toMicros(s.UpdatedAt))
	if err != nil {
		switch {
		case IsUniqueViolation(err):
			return shared.ErrSubIndustryAlreadyExists
		case IsForeignKeyViolation(err):
			return shared.ErrIndustryNotFound
		}
		return fmt.Errorf("insert sub-industry: %w", err)
	}
	s.ID, err = res.LastInsertId()
	return err
}

func (r *subIndustryRepo) GetByID(ctx context.Context, id int64) (*industry.SubIndustry, error) {
	s, err := scanSubIndustry(r.q.QueryRowContext(ctx,
		"SELECT "+subIndustryColumns+" FROM sub_industries WHERE id = ?", id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrSubIndustryNotFound
		}
		return nil, fmt.Errorf("get sub-industry %d: %w", id, err)
	}
	return s, nil
}

func (r *subIndustryRepo) List(ctx context.Context, industryID *int64) ([]*industry.SubIndustry, error) {
	query := "SELECT " + subIndustryColumns + " FROM sub_industries"
	var args []any
	if industryID != nil {
		query += " WHERE industry_id = ?"
		args = append(args, *industryID)
	}
	query += " ORDER BY id"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sub-industries: %w", err)
	}
	defer rows.Close()

	out := make([]*industry.SubIndustry, 0)
	for rows.Next() {
		s, err := scanSubIndustry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sub-industry: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *subIndustryRepo) Update(ctx context.Context, s *industry.SubIndustry) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE sub_industries SET name = ?, industry_id = ?, base_score = ?, updated_at = ?
		WHERE id = ?`,
		s.Name, s.IndustryID, s.BaseScore, toMicros(s.UpdatedAt), s.ID)
	if err != nil {
		switch {
		case IsUniqueViolation(err):
			return shared.ErrSubIndustryAlreadyExists
		case IsForeignKeyViolation(err):
			return shared.ErrIndustryNotFound
		}
		return fmt.Errorf("update sub-industry %d: %w", s.ID, err)
	}
	return affectedOrNotFound(res, shared.ErrSubIndustryNotFound)
}

func (r *subIndustryRepo) Delete(ctx context.Context, id int64) error {
	inUse, err := exists(ctx, r.q, "SELECT EXISTS(SELECT 1 FROM points WHERE sub_industry_id = ?)", id)
	if err != nil {
		return fmt.Errorf("check sub-industry usage: %w", err)
	}
	if inUse {
		return shared.ErrSubIndustryInUse
	}
	err = deleteByID(ctx, r.q, "sub_industries", id, shared.ErrSubIndustryNotFound)
	if IsForeignKeyViolation(err) {
		return shared.ErrSubIndustryInUse
	}
	return err
}

// ──────────────────────────────────────────────────────────────────────────────
// Criteria
// ──────────────────────────────────────────────────────────────────────────────

type criteriaRepo struct {
	q querier
}

const criteriaColumns = "id, text, industry_id, created_at, updated_at"

func scanCriteria(row interface{ Scan(...any) error }) (*industry.Criteria, error) {
	var (
		c                    industry.Criteria
		createdAt, updatedAt int64
	)
	if err := row.Scan(&c.ID, &c.Text, &c.IndustryID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt = fromMicros(createdAt)
	c.UpdatedAt = fromMicros(updatedAt)
	return &c, nil
}

func (r *criteriaRepo) Create(ctx context.Context, c *industry.Criteria) error {
	res, err := r.q.ExecContext(ctx,
		"INSERT INTO criteria (text, industry_id, created_at, updated_at) VALUES (?, ?, ?, ?)",
		c.Text, c.IndustryID, toMicros(c.CreatedAt), toMicros(c.UpdatedAt))
	if err != nil {
		switch {
		case IsUniqueViolation(err):
			return shared.ErrCriteriaAlreadyExists
		case IsForeignKeyViolation(err):
			return shared.ErrIndustryNotFound
		}
		return fmt.Errorf("insert criteria: %w", err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

func (r *criteriaRepo) GetByID(ctx context.Context, id int64) (*industry.Criteria, error) {
	c, err := scanCriteria(r.q.QueryRowContext(ctx,
		"SELECT "+criteriaColumns+" FROM criteria WHERE id = ?", id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrCriteriaNotFound
		}
		return nil, fmt.Errorf("get criteria %d: %w", id, err)
	}
	return c, nil
}

func (r *criteriaRepo) List(ctx context.Context, industryID *int64) ([]*industry.Criteria, error) {
	query := "SELECT " + criteriaColumns + " FROM criteria"
	var args []any
	if industryID != nil {
		query += " WHERE industry_id = ?"
		args = append(args, *industryID)
	}
	query += " ORDER BY id"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list criteria: %w", err)
	}
	defer rows.Close()

	out := make([]*industry.Criteria, 0)
	for rows.Next() {
		c, err := scanCriteria(rows)
		if err != nil {
			return nil, fmt.Errorf("scan criteria: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *criteriaRepo) Update(ctx context.Context, c *industry.Criteria) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE criteria SET text = ?, industry_id = ?, updated_at = ? WHERE id = ?",
		c.Text, c.IndustryID, toMicros(c.UpdatedAt), c.ID)
	if err != nil {
		switch {
		case IsUniqueViolation(err):
			return shared.ErrCriteriaAlreadyExists
		case IsForeignKeyViolation(err):
			return shared.ErrIndustryNotFound
		}
		return fmt.Errorf("update criteria %d: %w", c.ID, err)
	}
	return affectedOrNotFound(res, shared.ErrCriteriaNotFound)
}

func (r *criteriaRepo) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.q, "criteria", id, shared.ErrCriteriaNotFound)
}

func (r *criteriaRepo) IDsByIndustry(ctx context.Context, industryID int64) ([]int64, error) {
	return queryIDs(ctx, r.q, "SELECT id FROM criteria WHERE industry_id = ? ORDER BY id", industryID)
}

func queryIDs(ctx context.Context, q querier, query string, args ...any) ([]int64, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
