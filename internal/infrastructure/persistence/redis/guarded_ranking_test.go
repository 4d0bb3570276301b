package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ingvionio/fullstack/internal/domain/user"
	"github.com/ingvionio/fullstack/pkg/circuitbreaker"
)

type stubRanking struct {
	err   error
	calls int
}

func (s *stubRanking) Top(context.Context, int) ([]user.RankEntry, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []user.RankEntry{{UserID: 1, XP: 100, Level: 2, Rank: 1}}, nil
}

func (s *stubRanking) Rebuild(context.Context, []user.RankEntry) error {
	s.calls++
	return s.err
}

func (s *stubRanking) UpdateEntry(context.Context, user.RankEntry) error {
	s.calls++
	return s.err
}

func (s *stubRanking) RemoveEntry(context.Context, int64) error {
	s.calls++
	return s.err
}

func (s *stubRanking) Rank(_ context.Context, userID int64) (*user.RankEntry, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if userID != 1 {
		return nil, ErrUserNotInLeaderboard
	}
	return &user.RankEntry{UserID: 1, XP: 100, Level: 2, Rank: 1}, nil
}

func (s *stubRanking) Count(context.Context) (int64, error) {
	s.calls++
	return 1, s.err
}

func TestGuardedRanking_MissingUserKeepsCircuitClosed(t *testing.T) {
	g := NewGuardedRanking(&stubRanking{}, circuitbreaker.New("redis", circuitbreaker.WithFailureThreshold(1)))

	_, err := g.Rank(context.Background(), 42)
	assert.ErrorIs(t, err, ErrUserNotInLeaderboard)
	assert.Equal(t, circuitbreaker.StateClosed, g.Breaker().State())

	entry, err := g.Rank(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Rank)

	n, err := g.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestGuardedRanking_PassesThrough(t *testing.T) {
	store := &stubRanking{}
	g := NewGuardedRanking(store, nil)

	top, err := g.Top(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	require.NoError(t, g.UpdateEntry(context.Background(), top[0]))
	require.NoError(t, g.RemoveEntry(context.Background(), 1))
	require.NoError(t, g.Rebuild(context.Background(), top))
	assert.Equal(t, 4, store.calls)
}

func TestGuardedRanking_OpensAfterFailures(t *testing.T) {
	store := &stubRanking{err: errors.New("dial tcp: connection refused")}
	g := NewGuardedRanking(store, circuitbreaker.New("redis", circuitbreaker.WithFailureThreshold(2)))

	_, err := g.Top(context.Background(), 10)
	assert.Error(t, err)
	assert.Error(t, g.UpdateEntry(context.Background(), user.RankEntry{UserID: 1}))
	assert.Equal(t, circuitbreaker.StateOpen, g.Breaker().State())

	_, err = g.Top(context.Background(), 10)
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.Equal(t, 2, store.calls, "open circuit does not reach redis")
}
