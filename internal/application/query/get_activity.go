package query

import (
	"context"

	"github.com/ingvionio/fullstack/internal/application/uow"
	"github.com/ingvionio/fullstack/internal/domain/activity"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET USER ACTIVITY QUERY
// Лента: созданные точки, отзывы и полученные достижения, новые первыми.
// Каждый источник ограничивается limit до слияния.
// ══════════════════════════════════════════════════════════════════════════════

// ActivityHandler обрабатывает запрос ленты.
type ActivityHandler struct {
	deps Deps
}

// NewActivityHandler создаёт обработчик.
func NewActivityHandler(d Deps) *ActivityHandler {
	return &ActivityHandler{deps: d.withDefaults()}
}

// Handle возвращает до limit элементов ленты пользователя.
func (h *ActivityHandler) Handle(ctx context.Context, userID int64, limit int) ([]ActivityDTO, error) {
	limit = activity.NormalizeLimit(limit)

	var src activity.Sources
	err := h.deps.read(ctx, "get_user_activity", func(ctx context.Context, repos uow.Repositories) error {
		if err := requireUser(ctx, repos, userID); err != nil {
			return err
		}
		var err error
		if src.Points, err = repos.Points.ListRecentByCreator(ctx, userID, limit); err != nil {
			return err
		}
		if src.Marks, err = repos.Marks.ListRecentByUser(ctx, userID, limit); err != nil {
			return err
		}
		src.Achievements, err = repos.Progress.ListRecentCompleted(ctx, userID, limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	rewards := h.deps.Engine.Rewards()
	items := activity.Compose(src, activity.Rewards{Point: rewards.PointXP, Mark: rewards.MarkXP}, limit)

	out := make([]ActivityDTO, 0, len(items))
	for _, it := range items {
		out = append(out, NewActivityDTO(it))
	}
	return out, nil
}
