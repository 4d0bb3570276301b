package redis

import (
	"context"
	"errors"

	"github.com/ingvionio/fullstack/internal/domain/user"
	"github.com/ingvionio/fullstack/pkg/circuitbreaker"
)

// RankingStore is the subset of LeaderboardCache used by readers and
// the event projector.
type RankingStore interface {
	Top(ctx context.Context, limit int) ([]user.RankEntry, error)
	Rebuild(ctx context.Context, entries []user.RankEntry) error
	UpdateEntry(ctx context.Context, entry user.RankEntry) error
	RemoveEntry(ctx context.Context, userID int64) error
	Rank(ctx context.Context, userID int64) (*user.RankEntry, error)
	Count(ctx context.Context) (int64, error)
}

// GuardedRanking routes ranking calls through a circuit breaker so that a
// dead Redis fails fast and callers fall back to the database.
type GuardedRanking struct {
	store   RankingStore
	breaker *circuitbreaker.CircuitBreaker
}

// NewGuardedRanking wraps store. A nil breaker uses circuitbreaker.CacheBreaker.
func NewGuardedRanking(store RankingStore, breaker *circuitbreaker.CircuitBreaker) *GuardedRanking {
	if breaker == nil {
		breaker = circuitbreaker.CacheBreaker(nil)
	}
	return &GuardedRanking{store: store, breaker: breaker}
}

// Top returns the highest ranked entries.
func (g *GuardedRanking) Top(ctx context.Context, limit int) ([]user.RankEntry, error) {
	return circuitbreaker.ExecuteWithData(ctx, g.breaker, func(ctx context.Context) ([]user.RankEntry, error) {
		return g.store.Top(ctx, limit)
	})
}

// Rebuild replaces the ranking.
func (g *GuardedRanking) Rebuild(ctx context.Context, entries []user.RankEntry) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.store.Rebuild(ctx, entries)
	})
}

// UpdateEntry upserts one entry.
func (g *GuardedRanking) UpdateEntry(ctx context.Context, entry user.RankEntry) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.store.UpdateEntry(ctx, entry)
	})
}

// RemoveEntry drops one entry.
func (g *GuardedRanking) RemoveEntry(ctx context.Context, userID int64) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.store.RemoveEntry(ctx, userID)
	})
}

// Rank returns one user's entry. A missing user is not a breaker failure.
func (g *GuardedRanking) Rank(ctx context.Context, userID int64) (*user.RankEntry, error) {
	var entry *user.RankEntry
	var missing bool
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		entry, err = g.store.Rank(ctx, userID)
		if errors.Is(err, ErrUserNotInLeaderboard) {
			missing = true
			return nil
		}
		return err
	})
	if missing {
		return nil, ErrUserNotInLeaderboard
	}
	return entry, err
}

// Count returns the number of ranked users.
func (g *GuardedRanking) Count(ctx context.Context) (int64, error) {
	return circuitbreaker.ExecuteWithData(ctx, g.breaker, g.store.Count)
}

// Breaker exposes the breaker for health reporting.
func (g *GuardedRanking) Breaker() *circuitbreaker.CircuitBreaker {
	return g.breaker
}
