package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/ingvionio/fullstack/internal/application/saga"
	"github.com/ingvionio/fullstack/internal/application/uow"
	"github.com/ingvionio/fullstack/internal/domain/industry"
	"github.com/ingvionio/fullstack/internal/domain/mark"
	"github.com/ingvionio/fullstack/internal/domain/shared"
	"github.com/ingvionio/fullstack/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MARK COMMANDS
// Flow: Validate Point/User → Check Criteria → Score → Save →
//
//	Recompute Point Rating → Reward Author
// ══════════════════════════════════════════════════════════════════════════════

// CreateMarkCommand contains the data for a new mark.
type CreateMarkCommand struct {
	PointID     int64
	UserID      *int64
	QuestionIDs []int64
	Answers     []int
	Weights     []float64
	Comment     *string
	Photos      []string
}

// CreateMarkResult contains the stored mark, the new point rating and the
// author's reward.
type CreateMarkResult struct {
	Mark        *mark.Mark
	PointRating float64

	// Reward is nil for anonymous marks.
	Reward *saga.RewardResult
}

// MarkHandler handles mark writes.
type MarkHandler struct {
	deps  Deps
	blobs BlobStore
}

// NewMarkHandler creates a MarkHandler. blobs may be nil if photo upload
// is not used.
func NewMarkHandler(d Deps, blobs BlobStore) *MarkHandler {
	return &MarkHandler{deps: d.withDefaults(), blobs: blobs}
}

// Create scores and stores a mark, recomputes the point rating and rewards
// the author.
func (h *MarkHandler) Create(ctx context.Context, cmd CreateMarkCommand) (*CreateMarkResult, error) {
	now := h.deps.Engine.Now()
	m, err := mark.NewMark(mark.NewMarkParams{
		PointID:     cmd.PointID,
		UserID:      cmd.UserID,
		QuestionIDs: cmd.QuestionIDs,
		Answers:     cmd.Answers,
		Weights:     cmd.Weights,
		Comment:     cmd.Comment,
		Photos:      cmd.Photos,
		CreatedAt:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("create_mark: %w", err)
	}

	result := &CreateMarkResult{Mark: m}
	err = h.deps.run(ctx, "create_mark", func(ctx context.Context, repos uow.Repositories, out *uow.Outbox) error {
		p, err := repos.Points.GetByID(ctx, m.PointID)
		if err != nil {
			return err
		}
		if m.UserID != nil {
			if _, err := repos.Users.GetByID(ctx, *m.UserID); err != nil {
				return fmt.Errorf("load author: %w", err)
			}
		}
		if len(m.QuestionIDs) > 0 {
			allowed, err := repos.Criteria.IDsByIndustry(ctx, p.IndustryID)
			if err != nil {
				return fmt.Errorf("load criteria: %w", err)
			}
			if !industry.CriteriaSubset(m.QuestionIDs, allowed) {
				return shared.ErrCriteriaMismatch
			}
		}

		if err := repos.Marks.Create(ctx, m); err != nil {
			return fmt.Errorf("save mark: %w", err)
		}
		rating, err := recomputeRating(ctx, repos, m.PointID)
		if err != nil {
			return err
		}
		result.PointRating = rating
		out.Add(shared.NewMarkChangedEvent(shared.EventMarkCreated, m.ID, m.PointID, m.UserID, rating, now))

		if m.UserID == nil {
			return nil
		}
		reward, err := h.deps.Engine.Reward(ctx, repos, *m.UserID, saga.TriggerMarkCreated, out)
		if err != nil {
			return err
		}
		result.Reward = reward
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.deps.Logger.Info("mark created",
		logger.MarkID(m.ID),
		logger.PointID(m.PointID),
		logger.Float64("total_score", m.TotalScore),
		logger.Float64("point_rating", result.PointRating),
	)
	return result, nil
}

// AddPhotos stores uploaded files and appends their URLs to the mark.
// Files written before a failed commit are removed again.
func (h *MarkHandler) AddPhotos(ctx context.Context, markID int64, files []Upload) (*mark.Mark, error) {
	if h.blobs == nil {
		return nil, errors.New("add_mark_photos: blob store is not configured")
	}
	if len(files) == 0 {
		return nil, shared.NewDomainError("mark", "AddPhotos", shared.ErrEmptyValue, "no files uploaded")
	}

	var (
		updated *mark.Mark
		saved   []string
	)
	err := h.deps.run(ctx, "add_mark_photos", func(ctx context.Context, repos uow.Repositories, _ *uow.Outbox) error {
		m, err := repos.Marks.GetByID(ctx, markID)
		if err != nil {
			return err
		}
		if len(saved) == 0 {
			for _, f := range files {
				url, err := h.blobs.SaveMarkPhoto(ctx, markID, f.Name, f.Body)
				if err != nil {
					return fmt.Errorf("save photo %q: %w", f.Name, err)
				}
				saved = append(saved, url)
			}
		}
		m.AppendPhotos(saved...)
		if err := repos.Marks.UpdatePhotos(ctx, m.ID, m.Photos); err != nil {
			return fmt.Errorf("save photos: %w", err)
		}
		updated = m
		return nil
	})
	if err != nil {
		h.discard(ctx, saved)
		return nil, err
	}
	return updated, nil
}

// Delete removes a mark and recomputes its point's rating.
func (h *MarkHandler) Delete(ctx context.Context, markID int64) error {
	return h.deps.run(ctx, "delete_mark", func(ctx context.Context, repos uow.Repositories, out *uow.Outbox) error {
		m, err := repos.Marks.GetByID(ctx, markID)
		if err != nil {
			return err
		}
		if err := repos.Marks.Delete(ctx, m.ID); err != nil {
			return fmt.Errorf("delete mark: %w", err)
		}
		rating, err := recomputeRating(ctx, repos, m.PointID)
		if err != nil {
			return err
		}
		out.Add(shared.NewMarkChangedEvent(shared.EventMarkDeleted, m.ID, m.PointID, m.UserID, rating, h.deps.Engine.Now()))
		return nil
	})
}

func (h *MarkHandler) discard(ctx context.Context, urls []string) {
	for _, url := range urls {
		if err := h.blobs.Remove(ctx, url); err != nil {
			h.deps.Logger.Warn("orphaned upload", logger.String("url", url), logger.Err(err))
		}
	}
}
