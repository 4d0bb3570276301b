// Package jobs contains the scheduled jobs of the review service.
package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ingvionio/fullstack/pkg/logger"
	"github.com/ingvionio/fullstack/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// Перестраивает кеш рейтинга из базы. Проектор событий поддерживает кеш
// в актуальном состоянии, периодическая пересборка исправляет пропущенные
// обновления (например, после недоступности Redis).
// ══════════════════════════════════════════════════════════════════════════════

// RebuildLeaderboardJobName is the scheduler name of the job.
const RebuildLeaderboardJobName = "rebuild_leaderboard"

// Rebuilder refills the ranking cache and reports the number of entries.
type Rebuilder interface {
	Rebuild(ctx context.Context) (int, error)
}

// RebuildStats describes the last successful run.
type RebuildStats struct {
	Entries    int
	FinishedAt time.Time
	Duration   time.Duration
}

// RebuildLeaderboardJob refills the leaderboard cache.
type RebuildLeaderboardJob struct {
	rebuilder Rebuilder
	retrier   *retry.Retrier
	log       *logger.Logger

	last atomic.Pointer[RebuildStats]
}

// NewRebuildLeaderboardJob creates the job. A nil retrier uses retry.CacheRetrier.
func NewRebuildLeaderboardJob(rebuilder Rebuilder, retrier *retry.Retrier, log *logger.Logger) *RebuildLeaderboardJob {
	if retrier == nil {
		retrier = retry.CacheRetrier()
	}
	if log == nil {
		log = logger.Default()
	}
	return &RebuildLeaderboardJob{
		rebuilder: rebuilder,
		retrier:   retrier,
		log:       log.With(logger.Component("job." + RebuildLeaderboardJobName)),
	}
}

// Name implements scheduler.Job.
func (j *RebuildLeaderboardJob) Name() string { return RebuildLeaderboardJobName }

// Run implements scheduler.Job.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	started := time.Now()

	n, err := retry.DoWithData(ctx, j.retrier, j.rebuilder.Rebuild)
	if err != nil {
		return fmt.Errorf("%s: %w", RebuildLeaderboardJobName, err)
	}

	stats := &RebuildStats{Entries: n, FinishedAt: time.Now()}
	stats.Duration = stats.FinishedAt.Sub(started)
	j.last.Store(stats)

	j.log.Info("leaderboard cache rebuilt",
		logger.Int("entries", n),
		logger.Duration("duration", stats.Duration),
	)
	return nil
}

// LastStats returns the stats of the last successful run, or nil.
func (j *RebuildLeaderboardJob) LastStats() *RebuildStats {
	return j.last.Load()
}
