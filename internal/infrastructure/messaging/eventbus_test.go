package messaging

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ingvionio/fullstack/internal/domain/shared"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var now = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

func TestPublish_SyncDeliversInOrder(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	defer bus.Close()

	var got []string
	require.NoError(t, bus.Subscribe(shared.EventXPGained, func(e shared.Event) error {
		got = append(got, "typed:"+e.AggregateID())
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		got = append(got, "all:"+string(e.EventType()))
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewXPGainedEvent(7, "anna", 20, 20, 1, "mark", now)))
	require.NoError(t, bus.Publish(shared.NewUserDeletedEvent(7, now)))

	assert.Equal(t, []string{"typed:7", "all:progress.xp_gained", "all:user.deleted"}, got)
}

func TestPublish_HandlerErrorsAndPanicsAreContained(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	defer bus.Close()

	reached := false
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { return errors.New("cache down") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { panic("boom") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		reached = true
		return nil
	}))

	err := bus.Publish(shared.NewPointCreatedEvent(1, nil, now))

	require.NoError(t, err)
	assert.True(t, reached)

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.TotalPublished)
	assert.Equal(t, int64(3), snap.TotalHandlerExecs)
	assert.Equal(t, int64(2), snap.HandlerFailures)
}

func TestWrap_ReturnsPanicError(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	defer bus.Close()

	h := bus.wrap(func(shared.Event) error { panic("bad") })
	assert.ErrorIs(t, h(shared.NewUserDeletedEvent(1, now)), ErrHandlerPanic)
}

func TestPublish_AsyncCloseWaitsForHandlers(t *testing.T) {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.AsyncMode = true
	cfg.WorkerPoolSize = 2
	bus := NewInMemoryEventBus(cfg)

	var count atomic.Int32
	var wg sync.WaitGroup
	wg.Add(5)
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		defer wg.Done()
		time.Sleep(5 * time.Millisecond)
		count.Add(1)
		return nil
	}))

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, bus.Publish(shared.NewPointCreatedEvent(i, nil, now)))
	}
	wg.Wait()
	require.NoError(t, bus.Close())

	assert.Equal(t, int32(5), count.Load())
}

func TestClosedBusRejects(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(shared.NewUserDeletedEvent(1, now)), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventUserDeleted, func(shared.Event) error { return nil }), ErrEventBusClosed)
}

func TestPublishAll(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	defer bus.Close()

	var n int
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { n++; return nil }))

	require.NoError(t, bus.PublishAll([]shared.Event{
		shared.NewPointCreatedEvent(1, nil, now),
		shared.NewAchievementUnlockedEvent(1, 2, "Первый объект", 50, now),
	}))
	assert.Equal(t, 2, n)
}

func TestNilArguments(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	defer bus.Close()

	assert.Error(t, bus.Subscribe(shared.EventXPGained, nil))
	assert.Error(t, bus.Publish(nil))
}

func TestRedisForwarder_ReportsPublishFailure(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	f := NewRedisForwarder(client, "", "test")
	assert.Equal(t, DefaultEventsChannel, f.channel)

	err := f.Handle(shared.NewPointCreatedEvent(3, nil, now))
	assert.ErrorContains(t, err, "publish to "+DefaultEventsChannel)
}
