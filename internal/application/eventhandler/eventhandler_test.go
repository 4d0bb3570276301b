package eventhandler

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ingvionio/fullstack/internal/application/uow"
	"github.com/ingvionio/fullstack/internal/domain/shared"
	"github.com/ingvionio/fullstack/internal/domain/user"
	"github.com/ingvionio/fullstack/internal/infrastructure/messaging"
	"github.com/ingvionio/fullstack/internal/infrastructure/persistence/sqlite"
	"github.com/ingvionio/fullstack/pkg/logger"
)

var at = time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)

type memRanking struct {
	entries map[int64]user.RankEntry
	fail    error
}

func newMemRanking() *memRanking {
	return &memRanking{entries: map[int64]user.RankEntry{}}
}

func (m *memRanking) UpdateEntry(_ context.Context, e user.RankEntry) error {
	if m.fail != nil {
		return m.fail
	}
	m.entries[e.UserID] = e
	return nil
}

func (m *memRanking) RemoveEntry(_ context.Context, id int64) error {
	delete(m.entries, id)
	return nil
}

func openDB(t *testing.T) *sqlite.DB {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "ev.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestLeaderboardProjector_ThroughBus(t *testing.T) {
	db := openDB(t)
	ranking := newMemRanking()
	bus := messaging.NewInMemoryEventBus(messaging.DefaultInMemoryEventBusConfig())
	defer bus.Close()

	require.NoError(t, NewLeaderboardProjector(ranking, db, nil).Register(bus))

	require.NoError(t, bus.Publish(shared.NewXPGainedEvent(7, "anna", 20, 120, 2, "mark", at)))
	assert.Equal(t, user.RankEntry{UserID: 7, Username: "anna", XP: 120, Level: 2}, ranking.entries[7])

	require.NoError(t, bus.Publish(shared.NewUserDeletedEvent(7, at)))
	assert.Empty(t, ranking.entries)
}

func TestLeaderboardProjector_ReconciledReloadsUser(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	u := &user.User{Username: "boris", Email: "boris@example.com", PasswordHash: "h", XP: 90, Level: 1, CreatedAt: at, UpdatedAt: at}
	require.NoError(t, db.Do(ctx, func(ctx context.Context, r uow.Repositories) error {
		return r.Users.Create(ctx, u)
	}))

	ranking := newMemRanking()
	ranking.entries[u.ID] = user.RankEntry{UserID: u.ID, XP: 90, Level: 3}
	ranking.entries[999] = user.RankEntry{UserID: 999}
	p := NewLeaderboardProjector(ranking, db, nil)

	require.NoError(t, p.Handle(shared.NewLevelChangedEvent(shared.EventLevelReconciled, u.ID, 3, 1, at)))
	assert.Equal(t, 1, ranking.entries[u.ID].Level)
	assert.Equal(t, "boris", ranking.entries[u.ID].Username)

	require.NoError(t, p.Handle(shared.NewLevelChangedEvent(shared.EventLevelReconciled, 999, 2, 1, at)))
	_, ok := ranking.entries[999]
	assert.False(t, ok)
}

func TestLeaderboardProjector_ReportsFailures(t *testing.T) {
	ranking := newMemRanking()
	ranking.fail = errors.New("redis down")
	p := NewLeaderboardProjector(ranking, nil, nil)

	err := p.Handle(shared.NewXPGainedEvent(1, "anna", 20, 20, 1, "mark", at))
	assert.ErrorIs(t, err, ranking.fail)

	assert.NoError(t, p.Handle(shared.NewPointCreatedEvent(1, nil, at)))
}

func TestAuditLogger_WritesEvents(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Output: &buf, Level: logger.LevelDebug, Format: logger.FormatJSON})
	bus := messaging.NewInMemoryEventBus(messaging.DefaultInMemoryEventBusConfig())
	defer bus.Close()

	require.NoError(t, NewAuditLogger(log).Register(bus))
	require.NoError(t, bus.Publish(shared.NewPointCreatedEvent(5, nil, at)))

	assert.Contains(t, buf.String(), `"event_type":"point.created"`)
	assert.Contains(t, buf.String(), `"aggregate_id":"5"`)
}
