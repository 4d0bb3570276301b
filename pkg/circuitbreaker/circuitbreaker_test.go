package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("connection refused")

func fail(context.Context) error { return errDown }
func pass(context.Context) error { return nil }

type manualClock struct{ now time.Time }

func (c *manualClock) Now() time.Time { return c.now }

func newTestBreaker(clock *manualClock, transitions *[]string) *CircuitBreaker {
	return New("test",
		WithFailureThreshold(2),
		WithSuccessThreshold(1),
		WithTimeout(time.Minute),
		WithClock(clock.Now),
		WithOnStateChange(func(_ string, from, to State) {
			*transitions = append(*transitions, from.String()+"->"+to.String())
		}),
	)
}

func TestCircuitBreaker_Lifecycle(t *testing.T) {
	ctx := context.Background()
	clock := &manualClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	var transitions []string
	cb := newTestBreaker(clock, &transitions)

	assert.ErrorIs(t, cb.Execute(ctx, fail), errDown)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(ctx, fail), errDown)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.True(t, IsRejected(err))
	assert.False(t, called)

	clock.now = clock.now.Add(time.Minute)
	require.NoError(t, cb.Execute(ctx, pass))
	assert.Equal(t, StateClosed, cb.State())

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
	assert.Equal(t, 3, cb.Counts().Requests)
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	ctx := context.Background()
	clock := &manualClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	var transitions []string
	cb := newTestBreaker(clock, &transitions)

	_ = cb.Execute(ctx, fail)
	_ = cb.Execute(ctx, fail)
	clock.now = clock.now.Add(time.Minute)

	assert.ErrorIs(t, cb.Execute(ctx, fail), errDown)
	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(ctx, pass), ErrCircuitOpen, "timeout restarts from the failed probe")
}

func TestCircuitBreaker_CancellationIsNotFailure(t *testing.T) {
	cb := New("test", WithFailureThreshold(1))
	err := cb.Execute(context.Background(), func(context.Context) error { return context.Canceled })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, cb.State())
}

func TestExecuteWithData(t *testing.T) {
	cb := CacheBreaker(nil)
	assert.Equal(t, "redis", cb.Name())

	n, err := ExecuteWithData(context.Background(), cb, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	cb.Reset()
	assert.Equal(t, Counts{}, cb.Counts())
}
