package query

import (
	"context"

	"github.com/ingvionio/fullstack/internal/application/uow"
	"github.com/ingvionio/fullstack/internal/domain/achievement"
	"github.com/ingvionio/fullstack/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT QUERIES
// Каталог, сохранённые достижения пользователя и отчёт с живым прогрессом.
// ══════════════════════════════════════════════════════════════════════════════

// CatalogCache хранит каталог достижений вне базы.
type CatalogCache interface {
	// Get возвращает ok=false при промахе.
	Get(ctx context.Context) (list []*achievement.Achievement, ok bool, err error)
	Set(ctx context.Context, list []*achievement.Achievement) error
}

// AchievementsHandler обрабатывает запросы достижений.
type AchievementsHandler struct {
	deps  Deps
	cache CatalogCache
}

// NewAchievementsHandler создаёт обработчик. cache может быть nil.
func NewAchievementsHandler(d Deps, cache CatalogCache) *AchievementsHandler {
	return &AchievementsHandler{deps: d.withDefaults(), cache: cache}
}

// List возвращает весь каталог. Ошибки кеша не прерывают запрос.
func (h *AchievementsHandler) List(ctx context.Context) ([]AchievementDTO, error) {
	if h.cache != nil {
		list, ok, err := h.cache.Get(ctx)
		if err != nil {
			h.deps.Logger.Warn("catalog cache read failed", logger.Err(err))
		}
		if ok {
			return achievementDTOs(list), nil
		}
	}

	var list []*achievement.Achievement
	err := h.deps.read(ctx, "list_achievements", func(ctx context.Context, repos uow.Repositories) error {
		var err error
		list, err = repos.Achievements.List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, list); err != nil {
			h.deps.Logger.Warn("catalog cache write failed", logger.Err(err))
		}
	}
	return achievementDTOs(list), nil
}

// Get возвращает достижение по ID.
func (h *AchievementsHandler) Get(ctx context.Context, id int64) (AchievementDTO, error) {
	var a *achievement.Achievement
	err := h.deps.read(ctx, "get_achievement", func(ctx context.Context, repos uow.Repositories) error {
		var err error
		a, err = repos.Achievements.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return AchievementDTO{}, err
	}
	return NewAchievementDTO(a), nil
}

// ForUser возвращает сохранённые записи прогресса пользователя вместе
// с достижениями, опционально только завершённые.
func (h *AchievementsHandler) ForUser(ctx context.Context, userID int64, onlyCompleted bool) ([]UserAchievementDTO, error) {
	var out []UserAchievementDTO
	err := h.deps.read(ctx, "list_user_achievements", func(ctx context.Context, repos uow.Repositories) error {
		if err := requireUser(ctx, repos, userID); err != nil {
			return err
		}
		stored, err := repos.Progress.ListByUser(ctx, userID, onlyCompleted)
		if err != nil {
			return err
		}
		catalog, err := repos.Achievements.List(ctx)
		if err != nil {
			return err
		}
		byID := make(map[int64]*achievement.Achievement, len(catalog))
		for _, a := range catalog {
			byID[a.ID] = a
		}

		out = make([]UserAchievementDTO, 0, len(stored))
		for _, ua := range stored {
			out = append(out, NewUserAchievementDTO(ua, byID[ua.AchievementID]))
		}
		return nil
	})
	return out, err
}

// WithProgress возвращает каждое достижение каталога с сохранённым и
// живым прогрессом пользователя. Хранилище не меняется.
func (h *AchievementsHandler) WithProgress(ctx context.Context, userID int64) ([]AchievementProgressDTO, error) {
	var out []AchievementProgressDTO
	err := h.deps.read(ctx, "achievements_with_progress", func(ctx context.Context, repos uow.Repositories) error {
		if err := requireUser(ctx, repos, userID); err != nil {
			return err
		}
		reports, err := h.deps.Engine.Reports(ctx, repos, userID)
		if err != nil {
			return err
		}
		out = make([]AchievementProgressDTO, 0, len(reports))
		for _, r := range reports {
			out = append(out, NewAchievementProgressDTO(r))
		}
		return nil
	})
	return out, err
}

func achievementDTOs(list []*achievement.Achievement) []AchievementDTO {
	out := make([]AchievementDTO, 0, len(list))
	for _, a := range list {
		out = append(out, NewAchievementDTO(a))
	}
	return out
}
