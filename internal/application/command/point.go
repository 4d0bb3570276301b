package command

import (
	"context"
	"fmt"

	"github.com/ingvionio/fullstack/internal/application/saga"
	"github.com/ingvionio/fullstack/internal/application/uow"
	"github.com/ingvionio/fullstack/internal/domain/point"
	"github.com/ingvionio/fullstack/internal/domain/shared"
	"github.com/ingvionio/fullstack/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// POINT COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

// CreatePointCommand contains the data for a new point.
type CreatePointCommand struct {
	Name          string
	Latitude      float64
	Longitude     float64
	IndustryID    int64
	SubIndustryID int64
	CreatorID     *int64
}

// CreatePointResult contains the stored point and the creator's reward.
type CreatePointResult struct {
	Point *point.Point

	// Reward is nil for anonymous points.
	Reward *saga.RewardResult
}

// UpdatePointCommand is a partial update. Nil fields are left unchanged.
type UpdatePointCommand struct {
	PointID       int64
	Name          *string
	Latitude      *float64
	Longitude     *float64
	IndustryID    *int64
	SubIndustryID *int64
	CreatorID     *int64
}

// PointHandler handles point writes.
type PointHandler struct {
	deps Deps
}

// NewPointHandler creates a PointHandler.
func NewPointHandler(d Deps) *PointHandler {
	return &PointHandler{deps: d.withDefaults()}
}

// Create stores a point, initializes its rating from the sub-industry base
// score and rewards the creator.
func (h *PointHandler) Create(ctx context.Context, cmd CreatePointCommand) (*CreatePointResult, error) {
	now := h.deps.Engine.Now()
	p := &point.Point{
		Name:          cmd.Name,
		Coordinates:   shared.Coordinates{Latitude: cmd.Latitude, Longitude: cmd.Longitude},
		IndustryID:    cmd.IndustryID,
		SubIndustryID: cmd.SubIndustryID,
		CreatorID:     cmd.CreatorID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("create_point: %w", err)
	}

	result := &CreatePointResult{Point: p}
	err := h.deps.run(ctx, "create_point", func(ctx context.Context, repos uow.Repositories, out *uow.Outbox) error {
		if p.CreatorID != nil {
			if _, err := repos.Users.GetByID(ctx, *p.CreatorID); err != nil {
				return fmt.Errorf("load creator: %w", err)
			}
		}
		if err := checkTaxonomy(ctx, repos, p.IndustryID, p.SubIndustryID); err != nil {
			return err
		}

		if err := repos.Points.Create(ctx, p); err != nil {
			return fmt.Errorf("save point: %w", err)
		}
		rating, err := recomputeRating(ctx, repos, p.ID)
		if err != nil {
			return err
		}
		p.Rating = rating
		out.Add(shared.NewPointCreatedEvent(p.ID, p.CreatorID, now))

		if p.CreatorID == nil {
			return nil
		}
		reward, err := h.deps.Engine.Reward(ctx, repos, *p.CreatorID, saga.TriggerPointCreated, out)
		if err != nil {
			return err
		}
		result.Reward = reward
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.deps.Logger.Info("point created",
		logger.PointID(p.ID),
		logger.Float64("rating", p.Rating),
	)
	return result, nil
}

// Update applies a partial update. A new sub-industry must belong to the
// resulting industry, and changing it recomputes the rating.
func (h *PointHandler) Update(ctx context.Context, cmd UpdatePointCommand) (*point.Point, error) {
	var updated *point.Point
	err := h.deps.run(ctx, "update_point", func(ctx context.Context, repos uow.Repositories, out *uow.Outbox) error {
		p, err := repos.Points.GetByID(ctx, cmd.PointID)
		if err != nil {
			return err
		}

		if cmd.Name != nil {
			p.Name = *cmd.Name
		}
		if cmd.Latitude != nil {
			p.Latitude = *cmd.Latitude
		}
		if cmd.Longitude != nil {
			p.Longitude = *cmd.Longitude
		}
		if cmd.IndustryID != nil {
			if _, err := repos.Industries.GetByID(ctx, *cmd.IndustryID); err != nil {
				return err
			}
			p.IndustryID = *cmd.IndustryID
		}
		subChanged := false
		if cmd.SubIndustryID != nil {
			sub, err := repos.SubIndustries.GetByID(ctx, *cmd.SubIndustryID)
			if err != nil {
				return err
			}
			if !sub.BelongsTo(p.IndustryID) {
				return shared.ErrSubIndustryMismatch
			}
			subChanged = sub.ID != p.SubIndustryID
			p.SubIndustryID = sub.ID
		} else if cmd.IndustryID != nil {
			sub, err := repos.SubIndustries.GetByID(ctx, p.SubIndustryID)
			if err != nil {
				return fmt.Errorf("load sub-industry: %w", err)
			}
			if !sub.BelongsTo(p.IndustryID) {
				return shared.ErrSubIndustryMismatch
			}
		}
		if cmd.CreatorID != nil {
			if _, err := repos.Users.GetByID(ctx, *cmd.CreatorID); err != nil {
				return fmt.Errorf("load creator: %w", err)
			}
			p.CreatorID = cmd.CreatorID
		}

		if err := p.Validate(); err != nil {
			return err
		}
		p.UpdatedAt = h.deps.Engine.Now()
		if err := repos.Points.Update(ctx, p); err != nil {
			return fmt.Errorf("save point: %w", err)
		}

		if subChanged {
			rating, err := recomputeRating(ctx, repos, p.ID)
			if err != nil {
				return err
			}
			p.Rating = rating
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a point together with its marks.
func (h *PointHandler) Delete(ctx context.Context, pointID int64) error {
	return h.deps.run(ctx, "delete_point", func(ctx context.Context, repos uow.Repositories, _ *uow.Outbox) error {
		if _, err := repos.Points.GetByID(ctx, pointID); err != nil {
			return err
		}
		return repos.Points.Delete(ctx, pointID)
	})
}

// checkTaxonomy verifies that both taxonomy entries exist and that the
// sub-industry belongs to the industry.
func checkTaxonomy(ctx context.Context, repos uow.Repositories, industryID, subIndustryID int64) error {
	if _, err := repos.Industries.GetByID(ctx, industryID); err != nil {
		return err
	}
	sub, err := repos.SubIndustries.GetByID(ctx, subIndustryID)
	if err != nil {
		return err
	}
	if !sub.BelongsTo(industryID) {
		return shared.ErrSubIndustryMismatch
	}
	return nil
}
