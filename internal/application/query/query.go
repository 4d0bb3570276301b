package query

import (
	"context"
	"fmt"

	"github.com/ingvionio/fullstack/internal/application/saga"
	"github.com/ingvionio/fullstack/internal/application/uow"
	"github.com/ingvionio/fullstack/internal/domain/shared"
	"github.com/ingvionio/fullstack/pkg/logger"
	"github.com/ingvionio/fullstack/pkg/tracing"
)

// Deps are the collaborators of the query handlers.
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

// read runs fn in a read-only unit of work under a span named op.
func (d Deps) read(ctx context.Context, op string, fn uow.Func) (err error) {
	ctx, span := tracing.Start(ctx, "query."+op)
	defer func() { tracing.End(span, err) }()

	if err = d.UoW.DoReadOnly(ctx, fn); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// requireUser returns ErrUserNotFound if the user does not exist.
func requireUser(ctx context.Context, repos uow.Repositories, userID int64) error {
	_, err := repos.Users.GetByID(ctx, userID)
	return err
}
