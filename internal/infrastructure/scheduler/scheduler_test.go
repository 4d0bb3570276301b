package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ingvionio/fullstack/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingJob struct {
	name  string
	runs  atomic.Int32
	err   error
	block bool
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return j.err
}

func newTestScheduler() *Scheduler {
	return New(Config{Logger: logger.Nop(), TickInterval: 5 * time.Millisecond})
}

func TestRegister_Validation(t *testing.T) {
	s := newTestScheduler()

	assert.ErrorIs(t, s.Register(nil, Every(time.Second)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&countingJob{name: "a"}, nil), ErrNilSchedule)
	require.NoError(t, s.Register(&countingJob{name: "a"}, Every(time.Second)))
	assert.ErrorIs(t, s.Register(&countingJob{name: "a"}, Every(time.Second)), ErrJobAlreadyExists)
}

func TestScheduler_RunsDueJobs(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "tick"}
	require.NoError(t, s.Register(job, Every(10*time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	assert.Eventually(t, func() bool { return job.runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)

	infos := s.ListJobs()
	require.Len(t, infos, 1)
	assert.Equal(t, "tick", infos[0].Name)
	assert.Equal(t, "@every 10ms", infos[0].Schedule)
	assert.GreaterOrEqual(t, infos[0].RunCount, int64(2))
}

func TestScheduler_StopCancelsRunningJob(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "slow", block: true}
	require.NoError(t, s.Register(job, Every(time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, time.Millisecond)

	// The busy job is not started again while it runs.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), job.runs.Load())

	require.NoError(t, s.Stop())
}

func TestRunNow(t *testing.T) {
	s := newTestScheduler()
	boom := errors.New("boom")
	require.NoError(t, s.Register(&countingJob{name: "ok"}, Every(time.Hour)))
	require.NoError(t, s.Register(&countingJob{name: "bad", err: boom}, Every(time.Hour)))

	res, err := s.RunNow(context.Background(), "ok")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.Manual)

	res, err = s.RunNow(context.Background(), "bad")
	assert.ErrorIs(t, err, boom)
	assert.False(t, res.Success)

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	infos := s.ListJobs()
	require.Len(t, infos, 2)
	assert.Equal(t, "bad", infos[0].Name)
	assert.Equal(t, int64(1), infos[0].FailCount)
}

func TestEvery(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, at.Add(time.Minute), Every(0).Next(at))
	assert.Equal(t, at.Add(5*time.Second), Every(5*time.Second).Next(at))
}
