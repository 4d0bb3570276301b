package query

import (
	"context"
	"time"

	"github.com/ingvionio/fullstack/internal/application/uow"
	"github.com/ingvionio/fullstack/internal/domain/user"
	"github.com/ingvionio/fullstack/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Рейтинг пользователей по XP. Сначала читается отсортированное множество
// в Redis; при ошибке, пустом кеше или отключённом Redis - база данных.
// Пользователи с одинаковым XP делят место.
// ══════════════════════════════════════════════════════════════════════════════

// Leaderboard limits.
const (
	DefaultLeaderboardLimit = 20
	MaxLeaderboardLimit     = 100

	// rebuildLimit ограничивает полную перестройку кеша.
	rebuildLimit = 10000
)

// Sources of a leaderboard result.
const (
	SourceCache    = "cache"
	SourceDatabase = "database"
)

// Ranking - кеш рейтинга.
type Ranking interface {
	Top(ctx context.Context, limit int) ([]user.RankEntry, error)
	Rebuild(ctx context.Context, entries []user.RankEntry) error
}

// RankLookup - необязательная возможность кеша: место одного пользователя.
type RankLookup interface {
	Rank(ctx context.Context, userID int64) (*user.RankEntry, error)
	Count(ctx context.Context) (int64, error)
}

// UserRankResult - место пользователя в рейтинге.
type UserRankResult struct {
	Entry       user.RankEntry `json:"entry"`
	TotalUsers  int            `json:"total_users"`
	Source      string         `json:"source"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// LeaderboardResult - ответ рейтинга.
type LeaderboardResult struct {
	Entries     []user.RankEntry `json:"entries"`
	Source      string           `json:"source"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// LeaderboardHandler обрабатывает запросы рейтинга.
type LeaderboardHandler struct {
	deps    Deps
	ranking Ranking
}

// NewLeaderboardHandler создаёт обработчик. ranking может быть nil.
func NewLeaderboardHandler(d Deps, ranking Ranking) *LeaderboardHandler {
	return &LeaderboardHandler{deps: d.withDefaults(), ranking: ranking}
}

// Top возвращает до limit лучших пользователей.
func (h *LeaderboardHandler) Top(ctx context.Context, limit int) (*LeaderboardResult, error) {
	switch {
	case limit <= 0:
		limit = DefaultLeaderboardLimit
	case limit > MaxLeaderboardLimit:
		limit = MaxLeaderboardLimit
	}

	if h.ranking != nil {
		entries, err := h.ranking.Top(ctx, limit)
		switch {
		case err != nil:
			h.deps.Logger.Warn("leaderboard cache read failed", logger.Err(err))
		case len(entries) > 0:
			return &LeaderboardResult{Entries: entries, Source: SourceCache, GeneratedAt: h.deps.Engine.Now()}, nil
		}
	}

	entries, err := h.fromDatabase(ctx, "get_leaderboard", limit)
	if err != nil {
		return nil, err
	}
	return &LeaderboardResult{Entries: entries, Source: SourceDatabase, GeneratedAt: h.deps.Engine.Now()}, nil
}

// Rebuild заполняет кеш рейтинга из базы. Без кеша ничего не делает.
func (h *LeaderboardHandler) Rebuild(ctx context.Context) (int, error) {
	if h.ranking == nil {
		return 0, nil
	}
	entries, err := h.fromDatabase(ctx, "rebuild_leaderboard", rebuildLimit)
	if err != nil {
		return 0, err
	}
	if err := h.ranking.Rebuild(ctx, entries); err != nil {
		return 0, err
	}
	h.deps.Logger.Info("leaderboard rebuilt", logger.Int("users", len(entries)))
	return len(entries), nil
}

func (h *LeaderboardHandler) fromDatabase(ctx context.Context, op string, limit int) ([]user.RankEntry, error) {
	var users []*user.User
	err := h.deps.read(ctx, op, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		users, err = repos.Users.ListTopByXP(ctx, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user.RankByXP(users), nil
}

// UserRank возвращает место пользователя. Если кеш не знает пользователя,
// место считается по базе.
func (h *LeaderboardHandler) UserRank(ctx context.Context, userID int64) (*UserRankResult, error) {
	if lookup, ok := h.ranking.(RankLookup); ok {
		res, err := h.rankFromCache(ctx, lookup, userID)
		if err == nil {
			return res, nil
		}
		h.deps.Logger.Debug("user rank cache miss", logger.UserID(userID), logger.Err(err))
	}

	var res UserRankResult
	err := h.deps.read(ctx, "get_user_rank", func(ctx context.Context, repos uow.Repositories) error {
		u, err := repos.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		above, total, err := repos.Users.Standing(ctx, u.XP)
		if err != nil {
			return err
		}
		res.Entry = user.EntryOf(u)
		res.Entry.Rank = above + 1
		res.TotalUsers = total
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Source = SourceDatabase
	res.GeneratedAt = h.deps.Engine.Now()
	return &res, nil
}

func (h *LeaderboardHandler) rankFromCache(ctx context.Context, lookup RankLookup, userID int64) (*UserRankResult, error) {
	entry, err := lookup.Rank(ctx, userID)
	if err != nil {
		return nil, err
	}
	total, err := lookup.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &UserRankResult{
		Entry:       *entry,
		TotalUsers:  int(total),
		Source:      SourceCache,
		GeneratedAt: h.deps.Engine.Now(),
	}, nil
}
