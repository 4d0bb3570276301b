package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ingvionio/fullstack/internal/domain/industry"
	"github.com/ingvionio/fullstack/internal/domain/shared"
)

// ─────────────────────────────────────────────────────────────────────────────
// Industries
// ─────────────────────────────────────────────────────────────────────────────

type industryRepo struct {
	q Querier
}

func scanIndustry(row pgx.Row) (*industry.Industry, error) {
	var i industry.Industry
	if err := row.Scan(&i.ID, &i.Name, &i.CreatedAt, &i.UpdatedAt); err != nil {
		return nil, err
	}
	i.CreatedAt = i.CreatedAt.UTC()
	i.UpdatedAt = i.UpdatedAt.UTC()
	return &i, nil
}

func (r *industryRepo) Create(ctx context.Context, i *industry.Industry) error {
	err := r.q.QueryRow(ctx,
		"INSERT INTO industries (name, created_at, updated_at) VALUES ($1, $2, $3) RETURNING id",
		i.Name, i.CreatedAt, i.UpdatedAt).Scan(&i.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrIndustryAlreadyExists
		}
		return fmt.Errorf("failed to create industry: %w", err)
	}
	return nil
}

func (r *industryRepo) GetByID(ctx context.Context, id int64) (*industry.Industry, error) {
	i, err := scanIndustry(r.q.QueryRow(ctx,
		"SELECT id, name, created_at, updated_at FROM industries WHERE id = $1", id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrIndustryNotFound
		}
		return nil, fmt.Errorf("failed to get industry %d: %w", id, err)
	}
	return i, nil
}

func (r *industryRepo) List(ctx context.Context) ([]*industry.Industry, error) {
	rows, err := r.q.Query(ctx, "SELECT id, name, created_at, updated_at FROM industries ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list industries: %w", err)
	}
	defer rows.Close()

	out := make([]*industry.Industry, 0)
	for rows.Next() {
		i, err := scanIndustry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan industry: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (r *industryRepo) Update(ctx context.Context, i *industry.Industry) error {
	tag, err := r.q.Exec(ctx,
		"UPDATE industries SET name = $1, updated_at = $2 WHERE id = $3",
		i.Name, i.UpdatedAt, i.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrIndustryAlreadyExists
		}
		return fmt.Errorf("failed to update industry %d: %w", i.ID, err)
	}
	return affectedOrNotFound(tag, shared.ErrIndustryNotFound)
}

func (r *industryRepo) Delete(ctx context.Context, id int64) error {
	inUse, err := exists(ctx, r.q, "SELECT EXISTS(SELECT 1 FROM points WHERE industry_id = $1)", id)
	if err != nil {
		return fmt.Errorf("failed to check industry usage: %w", err)
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

// ─────────────────────────────────────────────────────────────────────────────
// Sub-industries
// ─────────────────────────────────────────────────────────────────────────────

type subIndustryRepo struct {
	q Querier
}

const subIndustryColumns = "id, name, industry_id, base_score, created_at, updated_at"

func scanSubIndustry(row pgx.Row) (*industry.SubIndustry, error) {
	var s industry.SubIndustry
	if err := row.Scan(&s.ID, &s.Name, &s.IndustryID, &s.BaseScore, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return &s, nil
}

func (r *subIndustryRepo) Create(ctx context.Context, s *industry.SubIndustry) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO sub_industries (name, industry_id, base_score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		s.Name, s.IndustryID, s.BaseScore, s.CreatedAt, s.UpdatedAt).Scan(&s.ID)
	if err != nil {
		switch {
		case IsUniqueViolation(err):
			return shared.ErrSubIndustryAlreadyExists
		case IsForeignKeyViolation(err):
			return shared.ErrIndustryNotFound
		}
		return fmt.Errorf("failed to create sub-industry: %w", err)
	}
	return nil
}

func (r *subIndustryRepo) GetByID(ctx context.Context, id int64) (*industry.SubIndustry, error) {
	s, err := scanSubIndustry(r.q.QueryRow(ctx,
		"SELECT "+subIndustryColumns+" FROM sub_industries WHERE id = $1", id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrSubIndustryNotFound
		}
		return nil, fmt.Errorf("failed to get sub-industry %d: %w", id, err)
	}
	return s, nil
}

func (r *subIndustryRepo) List(ctx context.Context, industryID *int64) ([]*industry.SubIndustry, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+subIndustryColumns+` FROM sub_industries
		WHERE $1::BIGINT IS NULL OR industry_id = $1
		ORDER BY id`, industryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sub-industries: %w", err)
	}
	defer rows.Close()

	out := make([]*industry.SubIndustry, 0)
	for rows.Next() {
		s, err := scanSubIndustry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sub-industry: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *subIndustryRepo) Update(ctx context.Context, s *industry.SubIndustry) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE sub_industries SET name = $1, industry_id = $2, base_score = $3, updated_at = $4
		WHERE id = $5`,
		s.Name, s.IndustryID, s.BaseScore, s.UpdatedAt, s.ID)
	if err != nil {
		switch {
		case IsUniqueViolation(err):
			return shared.ErrSubIndustryAlreadyExists
		case IsForeignKeyViolation(err):
			return shared.ErrIndustryNotFound
		}
		return fmt.Errorf("failed to update sub-industry %d: %w", s.ID, err)
	}
	return affectedOrNotFound(tag, shared.ErrSubIndustryNotFound)
}

func (r *subIndustryRepo) Delete(ctx context.Context, id int64) error {
	inUse, err := exists(ctx, r.q, "SELECT EXISTS(SELECT 1 FROM points WHERE sub_industry_id = $1)", id)
	if err != nil {
		return fmt.Errorf("failed to check sub-industry usage: %w", err)
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

// ─────────────────────────────────────────────────────────────────────────────
// Criteria
// ─────────────────────────────────────────────────────────────────────────────

type criteriaRepo struct {
	q Querier
}

const criteriaColumns = "id, text, industry_id, created_at, updated_at"

func scanCriteria(row pgx.Row) (*industry.Criteria, error) {
	var c industry.Criteria
	if err := row.Scan(&c.ID, &c.Text, &c.IndustryID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

func (r *criteriaRepo) Create(ctx context.Context, c *industry.Criteria) error {
	err := r.q.QueryRow(ctx,
		"INSERT INTO criteria (text, industry_id, created_at, updated_at) VALUES ($1, $2, $3, $4) RETURNING id",
		c.Text, c.IndustryID, c.CreatedAt, c.UpdatedAt).Scan(&c.ID)
	if err != nil {
		switch {
		case IsUniqueViolation(err):
			return shared.ErrCriteriaAlreadyExists
		case IsForeignKeyViolation(err):
			return shared.ErrIndustryNotFound
		}
		return fmt.Errorf("failed to create criteria: %w", err)
	}
	return nil
}

func (r *criteriaRepo) GetByID(ctx context.Context, id int64) (*industry.Criteria, error) {
	c, err := scanCriteria(r.q.QueryRow(ctx,
		"SELECT "+criteriaColumns+" FROM criteria WHERE id = $1", id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrCriteriaNotFound
		}
		return nil, fmt.Errorf("failed to get criteria %d: %w", id, err)
	}
	return c, nil
}

func (r *criteriaRepo) List(ctx context.Context, industryID *int64) ([]*industry.Criteria, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+criteriaColumns+` FROM criteria
		WHERE $1::BIGINT IS NULL OR industry_id = $1
		ORDER BY id`, industryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list criteria: %w", err)
	}
	defer rows.Close()

	out := make([]*industry.Criteria, 0)
	for rows.Next() {
		c, err := scanCriteria(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan criteria: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *criteriaRepo) Update(ctx context.Context, c *industry.Criteria) error {
	tag, err := r.q.Exec(ctx,
		"UPDATE criteria SET text = $1, industry_id = $2, updated_at = $3 WHERE id = $4",
		c.Text, c.IndustryID, c.UpdatedAt, c.ID)
	if err != nil {
		switch {
		case IsUniqueViolation(err):
			return shared.ErrCriteriaAlreadyExists
		case IsForeignKeyViolation(err):
			return shared.ErrIndustryNotFound
		}
		return fmt.Errorf("failed to update criteria %d: %w", c.ID, err)
	}
	return affectedOrNotFound(tag, shared.ErrCriteriaNotFound)
}

func (r *criteriaRepo) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.q, "criteria", id, shared.ErrCriteriaNotFound)
}

func (r *criteriaRepo) IDsByIndustry(ctx context.Context, industryID int64) ([]int64, error) {
	return queryIDs(ctx, r.q, "SELECT id FROM criteria WHERE industry_id = $1 ORDER BY id", industryID)
}
