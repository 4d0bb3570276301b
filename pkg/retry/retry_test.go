package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fast(opts ...Option) *Retrier {
	base := []Option{WithInitialDelay(time.Millisecond), WithMaxDelay(2 * time.Millisecond), WithJitter(0)}
	return New(append(base, opts...)...)
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	var retries []int

	err := fast(WithMaxAttempts(4), WithOnRetry(func(attempt int, err error, d time.Duration) {
		retries = append(retries, attempt)
	})).Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	want := errors.New("down")

	err := fast(WithMaxAttempts(3)).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return want
	})

	assert.ErrorIs(t, err, want)
	assert.Equal(t, 3, calls)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	want := errors.New("bad dsn")

	err := fast(WithMaxAttempts(5)).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Permanent(want)
	})

	assert.ErrorIs(t, err, want)
	assert.Equal(t, 1, calls)
}

func TestDo_RetryIf(t *testing.T) {
	calls := 0
	skip := errors.New("skip")

	err := fast(WithMaxAttempts(5), WithRetryIf(func(err error) bool {
		return !errors.Is(err, skip)
	})).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return skip
	})

	assert.ErrorIs(t, err, skip)
	assert.Equal(t, 1, calls)
}

func TestDoWithData(t *testing.T) {
	calls := 0
	v, err := DoWithData(context.Background(), fast(), func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("flaky")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestIsPermanent(t *testing.T) {
	assert.True(t, IsPermanent(Permanent(errors.New("x"))))
	assert.False(t, IsPermanent(errors.New("x")))
	assert.Nil(t, Permanent(nil))
}
