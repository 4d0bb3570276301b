package query

import (
	"context"
	"fmt"

	"github.com/ingvionio/fullstack/internal/application/uow"
	"github.com/ingvionio/fullstack/internal/domain/shared"
	"github.com/ingvionio/fullstack/internal/domain/user"
	"github.com/ingvionio/fullstack/pkg/logger"
	"github.com/ingvionio/fullstack/pkg/tracing"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET USER PROGRESS QUERY
// Возвращает уровень и прогресс внутри уровня. Перед ответом сохранённый
// уровень сверяется с XP и при расхождении перезаписывается, в том числе
// в меньшую сторону.
// ══════════════════════════════════════════════════════════════════════════════

// UserProgressHandler обрабатывает запрос прогресса.
type UserProgressHandler struct {
	deps Deps
}

// NewUserProgressHandler создаёт обработчик.
func NewUserProgressHandler(d Deps) *UserProgressHandler {
	return &UserProgressHandler{deps: d.withDefaults()}
}

// Handle сверяет уровень пользователя и возвращает прогресс.
func (h *UserProgressHandler) Handle(ctx context.Context, userID int64) (progress user.Progress, err error) {
	ctx, span := tracing.Start(ctx, "query.get_user_progress")
	defer func() { tracing.End(span, err) }()

	var (
		reconciled         bool
		oldLevel, newLevel int
	)
	err = h.deps.UoW.Do(ctx, func(ctx context.Context, repos uow.Repositories) error {
		u, err := repos.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		oldLevel = u.Level
		if reconciled = u.ReconcileLevel(); reconciled {
			u.UpdatedAt = h.deps.Engine.Now()
			if err := repos.Users.Update(ctx, u); err != nil {
				return fmt.Errorf("save level: %w", err)
			}
		}
		newLevel = u.Level
		progress = u.Progress()
		return nil
	})
	if err != nil {
		return user.Progress{}, fmt.Errorf("get_user_progress: %w", err)
	}

	if reconciled {
		h.deps.Logger.Info("level reconciled",
			logger.UserID(userID),
			logger.Int("old_level", oldLevel),
			logger.UserLevel(newLevel),
		)
		ev := shared.NewLevelChangedEvent(shared.EventLevelReconciled, userID, oldLevel, newLevel, h.deps.Engine.Now())
		if perr := h.deps.Publisher.Publish(ev); perr != nil {
			h.deps.Logger.Warn("event publish failed", logger.EventType(string(ev.EventType())), logger.Err(perr))
		}
	}
	return progress, nil
}
