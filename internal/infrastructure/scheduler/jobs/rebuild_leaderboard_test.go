package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ingvionio/fullstack/pkg/logger"
	"github.com/ingvionio/fullstack/pkg/retry"
)

type flakyRebuilder struct {
	failures int
	calls    int
}

func (f *flakyRebuilder) Rebuild(context.Context) (int, error) {
	f.calls++
	if f.calls <= f.failures {
		return 0, errors.New("redis: connection refused")
	}
	return 7, nil
}

func fastRetrier(attempts int) *retry.Retrier {
	return retry.New(retry.WithMaxAttempts(attempts), retry.WithInitialDelay(time.Millisecond), retry.WithMaxDelay(time.Millisecond))
}

func TestRebuildLeaderboardJob_RetriesAndRecordsStats(t *testing.T) {
	r := &flakyRebuilder{failures: 2}
	job := NewRebuildLeaderboardJob(r, fastRetrier(3), logger.Nop())

	assert.Equal(t, RebuildLeaderboardJobName, job.Name())
	assert.Nil(t, job.LastStats())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 3, r.calls)
	require.NotNil(t, job.LastStats())
	assert.Equal(t, 7, job.LastStats().Entries)
}

func TestRebuildLeaderboardJob_GivesUp(t *testing.T) {
	r := &flakyRebuilder{failures: 10}
	job := NewRebuildLeaderboardJob(r, fastRetrier(2), logger.Nop())

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), RebuildLeaderboardJobName)
	assert.Equal(t, 2, r.calls)
	assert.Nil(t, job.LastStats())
}
