// Package eventhandler содержит обработчики доменных событий.
// Обработчики вызываются после фиксации транзакции и обновляют только
// производные данные (кеши). Ошибка обработчика не откатывает команду.
package eventhandler

import (
	"context"
	"fmt"
	"time"

	"github.com/ingvionio/fullstack/internal/application/uow"
	"github.com/ingvionio/fullstack/internal/domain/shared"
	"github.com/ingvionio/fullstack/internal/domain/user"
	"github.com/ingvionio/fullstack/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// LEADERBOARD PROJECTOR
// Держит кеш рейтинга в согласии с XP пользователей:
//   - progress.xp_gained         → обновить запись
//   - progress.level_reconciled  → перечитать пользователя и обновить запись
//   - user.deleted               → удалить запись
// ═══════════════════════════════════════════════════════════════════════════

// RankingWriter - запись в кеш рейтинга.
type RankingWriter interface {
	UpdateEntry(ctx context.Context, entry user.RankEntry) error
	RemoveEntry(ctx context.Context, userID int64) error
}

// LeaderboardProjector проецирует события прогресса в кеш рейтинга.
type LeaderboardProjector struct {
	ranking RankingWriter
	uow     uow.UnitOfWork
	log     *logger.Logger
	timeout time.Duration
}

// NewLeaderboardProjector создаёт проектор.
func NewLeaderboardProjector(ranking RankingWriter, u uow.UnitOfWork, log *logger.Logger) *LeaderboardProjector {
	if log == nil {
		log = logger.Nop()
	}
	return &LeaderboardProjector{
		ranking: ranking,
		uow:     u,
		log:     log.With(logger.Component("leaderboard_projector")),
		timeout: 2 * time.Second,
	}
}

// Register подписывает проектор на нужные события.
func (p *LeaderboardProjector) Register(sub shared.EventSubscriber) error {
	for _, t := range []shared.EventType{shared.EventXPGained, shared.EventLevelReconciled, shared.EventUserDeleted} {
		if err := sub.Subscribe(t, p.Handle); err != nil {
			return fmt.Errorf("subscribe %s: %w", t, err)
		}
	}
	return nil
}

// Handle обрабатывает одно событие. Реализует shared.EventHandler.
func (p *LeaderboardProjector) Handle(event shared.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	var err error
	switch e := event.(type) {
	case shared.XPGainedEvent:
		err = p.ranking.UpdateEntry(ctx, user.RankEntry{
			UserID:   e.UserID,
			Username: e.Username,
			XP:       e.NewTotal,
			Level:    e.Level,
		})
	case shared.LevelChangedEvent:
		err = p.refresh(ctx, e.UserID)
	case shared.UserDeletedEvent:
		err = p.ranking.RemoveEntry(ctx, e.UserID)
	default:
		return nil
	}

	if err != nil {
		p.log.Warn("leaderboard projection failed",
			logger.EventType(string(event.EventType())),
			logger.String("aggregate_id", event.AggregateID()),
			logger.Err(err),
		)
		return fmt.Errorf("project %s: %w", event.EventType(), err)
	}
	return nil
}

func (p *LeaderboardProjector) refresh(ctx context.Context, userID int64) error {
	var u *user.User
	err := p.uow.DoReadOnly(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		u, err = repos.Users.GetByID(ctx, userID)
		return err
	})
	if shared.IsNotFound(err) {
		return p.ranking.RemoveEntry(ctx, userID)
	}
	if err != nil {
		return err
	}
	return p.ranking.UpdateEntry(ctx, user.EntryOf(u))
}
