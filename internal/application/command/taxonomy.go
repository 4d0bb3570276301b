package command

import (
	"context"
	"fmt"

	"github.com/ingvionio/fullstack/internal/application/uow"
	"github.com/ingvionio/fullstack/internal/domain/industry"
	"github.com/ingvionio/fullstack/internal/domain/shared"
	"github.com/ingvionio/fullstack/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// TAXONOMY COMMANDS
// Industries, sub-industries and criteria.
// ══════════════════════════════════════════════════════════════════════════════

// CreateSubIndustryCommand contains the data for a new sub-industry.
type CreateSubIndustryCommand struct {
	Name       string
	IndustryID int64
	BaseScore  float64
}

// UpdateSubIndustryCommand is a partial update. Nil fields are left unchanged.
type UpdateSubIndustryCommand struct {
	SubIndustryID int64
	Name          *string
	IndustryID    *int64
	BaseScore     *float64
}

// CreateCriteriaCommand contains the data for a new criteria.
type CreateCriteriaCommand struct {
	Text       string
	IndustryID int64
}

// UpdateCriteriaCommand is a partial update. Nil fields are left unchanged.
type UpdateCriteriaCommand struct {
	CriteriaID int64
	Text       *string
	IndustryID *int64
}

// TaxonomyHandler handles writes of industries, sub-industries and criteria.
type TaxonomyHandler struct {
	deps Deps
}

// NewTaxonomyHandler creates a TaxonomyHandler.
func NewTaxonomyHandler(d Deps) *TaxonomyHandler {
	return &TaxonomyHandler{deps: d.withDefaults()}
}

// ──────────────────────────────────────────────────────────────────────────────
// Industries
// ──────────────────────────────────────────────────────────────────────────────

// CreateIndustry stores an industry with a unique name.
func (h *TaxonomyHandler) CreateIndustry(ctx context.Context, name string) (*industry.Industry, error) {
	now := h.deps.Engine.Now()
	i := &industry.Industry{Name: name, CreatedAt: now, UpdatedAt: now}
	if err := i.Validate(); err != nil {
		return nil, fmt.Errorf("create_industry: %w", err)
	}
	err := h.deps.run(ctx, "create_industry", func(ctx context.Context, repos uow.Repositories, _ *uow.Outbox) error {
		return repos.Industries.Create(ctx, i)
	})
	if err != nil {
		return nil, err
	}
	return i, nil
}

// RenameIndustry changes an industry's name.
func (h *TaxonomyHandler) RenameIndustry(ctx context.Context, id int64, name string) (*industry.Industry, error) {
	var updated *industry.Industry
	err := h.deps.run(ctx, "update_industry", func(ctx context.Context, repos uow.Repositories, _ *uow.Outbox) error {
		i, err := repos.Industries.GetByID(ctx, id)
		if err != nil {
			return err
		}
		i.Name = name
		if err := i.Validate(); err != nil {
			return err
		}
		i.UpdatedAt = h.deps.Engine.Now()
		if err := repos.Industries.Update(ctx, i); err != nil {
			return err
		}
		updated = i
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteIndustry removes an industry with its sub-industries and criteria.
// Industries referenced by points cannot be deleted.
func (h *TaxonomyHandler) DeleteIndustry(ctx context.Context, id int64) error {
	return h.deps.run(ctx, "delete_industry", func(ctx context.Context, repos uow.Repositories, _ *uow.Outbox) error {
		return repos.Industries.Delete(ctx, id)
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Sub-industries
// ──────────────────────────────────────────────────────────────────────────────

// CreateSubIndustry stores a sub-industry of an existing industry.
func (h *TaxonomyHandler) CreateSubIndustry(ctx context.Context, cmd CreateSubIndustryCommand) (*industry.SubIndustry, error) {
	now := h.deps.Engine.Now()
	s := &industry.SubIndustry{
		Name:       cmd.Name,
		IndustryID: cmd.IndustryID,
		BaseScore:  cmd.BaseScore,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("create_sub_industry: %w", err)
	}
	err := h.deps.run(ctx, "create_sub_industry", func(ctx context.Context, repos uow.Repositories, _ *uow.Outbox) error {
		if _, err := repos.Industries.GetByID(ctx, s.IndustryID); err != nil {
			return err
		}
		return repos.SubIndustries.Create(ctx, s)
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// UpdateSubIndustry applies a partial update. A changed base score
// recomputes the rating of every point in the sub-industry. Moving a
// sub-industry that points still use to another industry is a conflict.
func (h *TaxonomyHandler) UpdateSubIndustry(ctx context.Context, cmd UpdateSubIndustryCommand) (*industry.SubIndustry, error) {
	var updated *industry.SubIndustry
	err := h.deps.run(ctx, "update_sub_industry", func(ctx context.Context, repos uow.Repositories, _ *uow.Outbox) error {
		s, err := repos.SubIndustries.GetByID(ctx, cmd.SubIndustryID)
		if err != nil {
			return err
		}
		points, err := repos.Points.ListIDsBySubIndustry(ctx, s.ID)
		if err != nil {
			return fmt.Errorf("list points: %w", err)
		}

		if cmd.Name != nil {
			s.Name = *cmd.Name
		}
		if cmd.IndustryID != nil && *cmd.IndustryID != s.IndustryID {
			if len(points) > 0 {
				return shared.ErrSubIndustryInUse
			}
			if _, err := repos.Industries.GetByID(ctx, *cmd.IndustryID); err != nil {
				return err
			}
			s.IndustryID = *cmd.IndustryID
		}
		baseChanged := cmd.BaseScore != nil && *cmd.BaseScore != s.BaseScore
		if cmd.BaseScore != nil {
			s.BaseScore = *cmd.BaseScore
		}
		if err := s.Validate(); err != nil {
			return err
		}

		s.UpdatedAt = h.deps.Engine.Now()
		if err := repos.SubIndustries.Update(ctx, s); err != nil {
			return err
		}
		if baseChanged {
			if err := recomputeRatings(ctx, repos, points); err != nil {
				return err
			}
			h.deps.Logger.Info("base score changed",
				logger.Int64("sub_industry_id", s.ID),
				logger.Int("points_recomputed", len(points)),
			)
		}
		updated = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteSubIndustry removes a sub-industry no point references.
func (h *TaxonomyHandler) DeleteSubIndustry(ctx context.Context, id int64) error {
	return h.deps.run(ctx, "delete_sub_industry", func(ctx context.Context, repos uow.Repositories, _ *uow.Outbox) error {
		return repos.SubIndustries.Delete(ctx, id)
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Criteria
// ──────────────────────────────────────────────────────────────────────────────

// CreateCriteria stores a criteria of an existing industry.
func (h *TaxonomyHandler) CreateCriteria(ctx context.Context, cmd CreateCriteriaCommand) (*industry.Criteria, error) {
	now := h.deps.Engine.Now()
	c := &industry.Criteria{Text: cmd.Text, IndustryID: cmd.IndustryID, CreatedAt: now, UpdatedAt: now}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("create_criteria: %w", err)
	}
	err := h.deps.run(ctx, "create_criteria", func(ctx context.Context, repos uow.Repositories, _ *uow.Outbox) error {
		if _, err := repos.Industries.GetByID(ctx, c.IndustryID); err != nil {
			return err
		}
		return repos.Criteria.Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateCriteria applies a partial update. Stored marks keep their answers.
func (h *TaxonomyHandler) UpdateCriteria(ctx context.Context, cmd UpdateCriteriaCommand) (*industry.Criteria, error) {
	var updated *industry.Criteria
	err := h.deps.run(ctx, "update_criteria", func(ctx context.Context, repos uow.Repositories, _ *uow.Outbox) error {
		c, err := repos.Criteria.GetByID(ctx, cmd.CriteriaID)
		if err != nil {
			return err
		}
		if cmd.Text != nil {
			c.Text = *cmd.Text
		}
		if cmd.IndustryID != nil {
			if _, err := repos.Industries.GetByID(ctx, *cmd.IndustryID); err != nil {
				return err
			}
			c.IndustryID = *cmd.IndustryID
		}
		if err := c.Validate(); err != nil {
			return err
		}
		c.UpdatedAt = h.deps.Engine.Now()
		if err := repos.Criteria.Update(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteCriteria removes a criteria.
func (h *TaxonomyHandler) DeleteCriteria(ctx context.Context, id int64) error {
	return h.deps.run(ctx, "delete_criteria", func(ctx context.Context, repos uow.Repositories, _ *uow.Outbox) error {
		return repos.Criteria.Delete(ctx, id)
	})
}
