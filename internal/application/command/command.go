// Package command contains write operations (CQRS - Commands).
//
// Every handler runs its work in exactly one unit of work and publishes the
// collected domain events only after the transaction committed.
package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ingvionio/fullstack/internal/application/saga"
	"github.com/ingvionio/fullstack/internal/application/uow"
	"github.com/ingvionio/fullstack/internal/domain/point"
	"github.com/ingvionio/fullstack/internal/domain/shared"
	"github.com/ingvionio/fullstack/pkg/logger"
	"github.com/ingvionio/fullstack/pkg/tracing"
)

// ══════════════════════════════════════════════════════════════════════════════
// PORTS
// ══════════════════════════════════════════════════════════════════════════════

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)

	// Verify returns a non-nil error if password does not match hash.
	Verify(hash, password string) error
}

// TokenIssuer issues access tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID int64, username string) (token string, expiresAt time.Time, err error)
}

// BlobStore persists uploaded files and returns their public URLs.
type BlobStore interface {
	SaveAvatar(ctx context.Context, userID int64, name string, body io.Reader) (string, error)
	SaveMarkPhoto(ctx context.Context, markID int64, name string, body io.Reader) (string, error)
	Remove(ctx context.Context, url string) error
}

// Upload is one uploaded file.
type Upload struct {
	Name string
	Body io.Reader
}

// ══════════════════════════════════════════════════════════════════════════════
// SHARED DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Deps are the collaborators every command handler needs.
type Deps struct {
	UoW       uow.UnitOfWork
	Engine    *saga.AchievementEngine
	Publisher shared.EventPublisher
	Logger    *logger.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Engine == nil {
		d.Engine = saga.NewAchievementEngine(saga.EngineConfig{Logger: d.Logger})
	}
	if d.Publisher == nil {
		d.Publisher = shared.NoopPublisher{}
	}
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	return d
}

// txFunc is the body of a command's unit of work.
type txFunc func(ctx context.Context, repos uow.Repositories, out *uow.Outbox) error

// run executes fn in one unit of work under a span named op, then publishes
// the collected events. Publish failures are logged, not returned.
func (d Deps) run(ctx context.Context, op string, fn txFunc) (err error) {
	ctx, span := tracing.Start(ctx, "command."+op)
	defer func() { tracing.End(span, err) }()

	var out uow.Outbox
	err = d.UoW.Do(ctx, func(ctx context.Context, repos uow.Repositories) error {
		out.Reset()
		return fn(ctx, repos, &out)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if perr := out.PublishTo(d.Publisher); perr != nil {
		logger.FromContext(ctx).Warn("event publish failed", logger.Operation(op), logger.Err(perr))
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RATING
// ══════════════════════════════════════════════════════════════════════════════

// recomputeRating rebuilds a point's rating from its marks and its
// sub-industry base score and stores it.
func recomputeRating(ctx context.Context, repos uow.Repositories, pointID int64) (float64, error) {
	p, err := repos.Points.GetByID(ctx, pointID)
	if err != nil {
		return 0, err
	}
	sub, err := repos.SubIndustries.GetByID(ctx, p.SubIndustryID)
	if err != nil {
		return 0, fmt.Errorf("recompute rating of point %d: %w", pointID, err)
	}
	scores, err := repos.Marks.ScoresByPoint(ctx, pointID)
	if err != nil {
		return 0, fmt.Errorf("recompute rating of point %d: %w", pointID, err)
	}

	rating := point.RecomputeRating(scores, sub.BaseScore)
	if err := repos.Points.UpdateRating(ctx, pointID, rating); err != nil {
		return 0, fmt.Errorf("recompute rating of point %d: %w", pointID, err)
	}
	return rating, nil
}

// recomputeRatings recomputes every point in ids. Points removed in the
// same unit of work are skipped.
func recomputeRatings(ctx context.Context, repos uow.Repositories, ids []int64) error {
	for _, id := range ids {
		if _, err := recomputeRating(ctx, repos, id); err != nil {
			if errors.Is(err, shared.ErrPointNotFound) {
				continue
			}
			return err
		}
	}
	return nil
}
