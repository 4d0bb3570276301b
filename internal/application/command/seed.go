package command

import (
	"context"

	"github.com/ingvionio/fullstack/internal/application/uow"
	"github.com/ingvionio/fullstack/internal/domain/achievement"
)

// SeedAchievements inserts the missing entries of the default catalog.
// Calling it again is a no-op.
func SeedAchievements(ctx context.Context, d Deps) (int, error) {
	d = d.withDefaults()
	var inserted int
	err := d.run(ctx, "seed_achievements", func(ctx context.Context, repos uow.Repositories, _ *uow.Outbox) error {
		var err error
		inserted, err = d.Engine.SeedCatalog(ctx, repos, achievement.DefaultCatalog())
		return err
	})
	return inserted, err
}
