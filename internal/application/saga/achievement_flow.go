// Package saga contains the multi-step gamification processes that run
// inside a command's unit of work: crediting XP, re-evaluating
// achievements and reporting progress.
package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/ingvionio/fullstack/internal/application/uow"
	"github.com/ingvionio/fullstack/internal/domain/achievement"
	"github.com/ingvionio/fullstack/internal/domain/shared"
	"github.com/ingvionio/fullstack/internal/domain/user"
	"github.com/ingvionio/fullstack/pkg/logger"
	"github.com/ingvionio/fullstack/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REWARD FLOW
// Flow: Award Base XP → Evaluate Achievement Types → Grant Unlocked →
//
//	Award Achievement XP → Collect Events
//
// Every step runs on the caller's repositories, so the whole flow commits
// or rolls back together with the content change that triggered it.
// ══════════════════════════════════════════════════════════════════════════════

// XP sources recorded on XPGained events.
const (
	SourcePoint       = "point"
	SourceMark        = "mark"
	SourceAchievement = "achievement"
)

// Rewards holds the fixed XP amounts for content creation.
type Rewards struct {
	PointXP int
	MarkXP  int
}

// DefaultRewards returns the standard rewards: 50 XP per point, 20 XP per mark.
func DefaultRewards() Rewards {
	return Rewards{PointXP: 50, MarkXP: 20}
}

// Trigger describes what the user just did.
type Trigger string

const (
	TriggerPointCreated Trigger = "point_created"
	TriggerMarkCreated  Trigger = "mark_created"
)

// typesFor lists the achievement types re-evaluated for a trigger.
func typesFor(t Trigger) []achievement.Type {
	switch t {
	case TriggerPointCreated:
		return []achievement.Type{achievement.TypePointsCount}
	case TriggerMarkCreated:
		return []achievement.Type{achievement.TypeMarksCount, achievement.TypeMarksStreak}
	default:
		return nil
	}
}

// RewardResult summarizes one run of the flow.
type RewardResult struct {
	User        *user.User
	XPAwarded   int
	OldLevel    int
	NewLevel    int
	Unlocked    []achievement.Unlocked
	CompletedAt time.Time
}

// LeveledUp reports whether the run raised the user's level.
func (r *RewardResult) LeveledUp() bool {
	return r.NewLevel > r.OldLevel
}

// ══════════════════════════════════════════════════════════════════════════════
// ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// AchievementEngine evaluates achievements and credits XP.
type AchievementEngine struct {
	rewards Rewards
	now     timeutil.Clock
	log     *logger.Logger
}

// EngineConfig configures an AchievementEngine.
type EngineConfig struct {
	Rewards Rewards
	Now     timeutil.Clock
	Logger  *logger.Logger
}

// NewAchievementEngine creates an engine. Zero rewards fall back to DefaultRewards.
func NewAchievementEngine(cfg EngineConfig) *AchievementEngine {
	if cfg.Rewards == (Rewards{}) {
		cfg.Rewards = DefaultRewards()
	}
	if cfg.Now == nil {
		cfg.Now = timeutil.SystemClock
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	return &AchievementEngine{
		rewards: cfg.Rewards,
		now:     cfg.Now,
		log:     cfg.Logger.With(logger.Component("achievement_engine")),
	}
}

// Rewards returns the configured rewards.
func (e *AchievementEngine) Rewards() Rewards {
	return e.rewards
}

// Now returns the engine clock's current time.
func (e *AchievementEngine) Now() time.Time {
	return e.now()
}

// Reward runs the full flow for userID after a content change.
func (e *AchievementEngine) Reward(ctx context.Context, repos uow.Repositories, userID int64, trigger Trigger, out *uow.Outbox) (*RewardResult, error) {
	u, err := repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reward: load user: %w", err)
	}

	res := &RewardResult{User: u, OldLevel: u.Level}

	base, source := e.rewards.MarkXP, SourceMark
	if trigger == TriggerPointCreated {
		base, source = e.rewards.PointXP, SourcePoint
	}
	if err := e.AwardXP(ctx, repos, u, base, source, out); err != nil {
		return nil, err
	}
	res.XPAwarded += base

	for _, t := range typesFor(trigger) {
		unlocked, err := e.EvaluateType(ctx, repos, u, t, out)
		if err != nil {
			return nil, err
		}
		for _, un := range unlocked {
			res.XPAwarded += un.Achievement.XPReward
		}
		res.Unlocked = append(res.Unlocked, unlocked...)
	}

	res.NewLevel = u.Level
	res.CompletedAt = e.now()
	return res, nil
}

// AwardXP credits amount to u, persists it and records XP and level-up events.
// The level never goes down here.
func (e *AchievementEngine) AwardXP(ctx context.Context, repos uow.Repositories, u *user.User, amount int, source string, out *uow.Outbox) error {
	if amount <= 0 {
		return nil
	}
	now := e.now()
	oldLevel, newLevel := u.AddXP(amount)
	u.UpdatedAt = now
	if err := repos.Users.Update(ctx, u); err != nil {
		return fmt.Errorf("award xp: save user %d: %w", u.ID, err)
	}

	out.Add(shared.NewXPGainedEvent(u.ID, u.Username, amount, u.XP, u.Level, source, now))
	if newLevel > oldLevel {
		out.Add(shared.NewLevelChangedEvent(shared.EventLevelUp, u.ID, oldLevel, newLevel, now))
		e.log.Info("level up", logger.UserID(u.ID), logger.UserLevel(newLevel))
	}
	e.log.Debug("xp awarded", logger.UserID(u.ID), logger.XPAmount(amount), logger.String("source", source))
	return nil
}

// EvaluateType re-evaluates every achievement of type t for u and returns
// the ones completed by this call.
//
// Records are created on first evaluation. Completed records are skipped.
// Stored progress is overwritten with the live value, even downward.
// Each newly completed achievement with a positive reward credits XP.
func (e *AchievementEngine) EvaluateType(ctx context.Context, repos uow.Repositories, u *user.User, t achievement.Type, out *uow.Outbox) ([]achievement.Unlocked, error) {
	list, err := repos.Achievements.ListByType(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: list achievements: %w", t, err)
	}
	if len(list) == 0 {
		return nil, nil
	}

	live, err := e.LiveProgress(ctx, repos, u.ID, t)
	if err != nil {
		return nil, err
	}

	now := e.now()
	var unlocked []achievement.Unlocked
	for _, a := range list {
		ua, created, err := e.loadOrNew(ctx, repos, u.ID, a.ID, now)
		if err != nil {
			return nil, err
		}
		if ua.IsCompleted {
			continue
		}

		completed := ua.Advance(live, a.RequirementValue, now)
		if created {
			err = repos.Progress.Create(ctx, ua)
		} else {
			err = repos.Progress.Save(ctx, ua)
		}
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: save progress of %d: %w", t, a.ID, err)
		}
		if !completed {
			continue
		}

		unlocked = append(unlocked, achievement.Unlocked{Achievement: a, Progress: ua})
		out.Add(shared.NewAchievementUnlockedEvent(u.ID, a.ID, a.Name, a.XPReward, now))
		e.log.Info("achievement unlocked",
			logger.UserID(u.ID),
			logger.AchievementID(a.ID),
			logger.String("name", a.Name),
		)

		if err := e.AwardXP(ctx, repos, u, a.XPReward, SourceAchievement, out); err != nil {
			return nil, err
		}
	}
	return unlocked, nil
}

func (e *AchievementEngine) loadOrNew(ctx context.Context, repos uow.Repositories, userID, achievementID int64, now time.Time) (*achievement.UserAchievement, bool, error) {
	ua, err := repos.Progress.Get(ctx, userID, achievementID)
	switch {
	case err == nil:
		return ua, false, nil
	case shared.IsNotFound(err):
		return achievement.NewUserAchievement(userID, achievementID, now), true, nil
	default:
		return nil, false, fmt.Errorf("load progress of %d: %w", achievementID, err)
	}
}

// LiveProgress computes the current value of the metric behind type t.
func (e *AchievementEngine) LiveProgress(ctx context.Context, repos uow.Repositories, userID int64, t achievement.Type) (int, error) {
	switch t {
	case achievement.TypeMarksCount:
		n, err := repos.Marks.CountByUser(ctx, userID)
		if err != nil {
			return 0, fmt.Errorf("live progress: count marks: %w", err)
		}
		return n, nil
	case achievement.TypePointsCount:
		n, err := repos.Points.CountByCreator(ctx, userID)
		if err != nil {
			return 0, fmt.Errorf("live progress: count points: %w", err)
		}
		return n, nil
	case achievement.TypeMarksStreak:
		times, err := repos.Marks.CreatedAtByUser(ctx, userID)
		if err != nil {
			return 0, fmt.Errorf("live progress: mark dates: %w", err)
		}
		return achievement.CalculateStreak(times, e.now()), nil
	default:
		return 0, shared.ErrUnknownAchievementType
	}
}

// Reports returns every catalog achievement with the user's stored and live
// progress. Storage is not modified.
func (e *AchievementEngine) Reports(ctx context.Context, repos uow.Repositories, userID int64) ([]achievement.Report, error) {
	catalog, err := repos.Achievements.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("reports: list achievements: %w", err)
	}

	stored, err := repos.Progress.ListByUser(ctx, userID, false)
	if err != nil {
		return nil, fmt.Errorf("reports: list progress: %w", err)
	}
	byAchievement := make(map[int64]*achievement.UserAchievement, len(stored))
	for _, ua := range stored {
		byAchievement[ua.AchievementID] = ua
	}

	live := make(map[achievement.Type]int, len(achievement.AllTypes()))
	for _, t := range achievement.AllTypes() {
		v, err := e.LiveProgress(ctx, repos, userID, t)
		if err != nil {
			return nil, err
		}
		live[t] = v
	}

	reports := make([]achievement.Report, 0, len(catalog))
	for _, a := range catalog {
		reports = append(reports, achievement.BuildReport(a, byAchievement[a.ID], live[a.Type]))
	}
	return reports, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG BOOTSTRAP
// ══════════════════════════════════════════════════════════════════════════════

// SeedCatalog inserts every catalog entry whose name is not stored yet.
// Returns the number of inserted entries.
func (e *AchievementEngine) SeedCatalog(ctx context.Context, repos uow.Repositories, catalog []achievement.Achievement) (int, error) {
	now := e.now()
	inserted := 0
	for i := range catalog {
		a := catalog[i]
		_, err := repos.Achievements.GetByName(ctx, a.Name)
		if err == nil {
			continue
		}
		if !shared.IsNotFound(err) {
			return inserted, fmt.Errorf("seed: lookup %q: %w", a.Name, err)
		}
		if err := a.Validate(); err != nil {
			return inserted, fmt.Errorf("seed: %q: %w", a.Name, err)
		}
		a.CreatedAt = now
		if err := repos.Achievements.Create(ctx, &a); err != nil {
			return inserted, fmt.Errorf("seed: create %q: %w", a.Name, err)
		}
		inserted++
	}
	if inserted > 0 {
		e.log.Info("achievement catalog seeded", logger.Int("inserted", inserted))
	}
	return inserted, nil
}
