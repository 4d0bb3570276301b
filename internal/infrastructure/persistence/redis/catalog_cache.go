package redis

import (
	"context"
	"errors"

	"github.com/ingvionio/fullstack/internal/domain/achievement"
)

var keyAchievementCatalog = Key(PrefixAchievement, "catalog")

// CatalogCache caches the achievement catalog.
type CatalogCache struct {
	cache *Cache
}

// NewCatalogCache creates a new CatalogCache.
func NewCatalogCache(cache *Cache) *CatalogCache {
	return &CatalogCache{cache: cache}
}

// Get returns the cached catalog. The bool is false on a cache miss.
func (c *CatalogCache) Get(ctx context.Context) ([]*achievement.Achievement, bool, error) {
	var list []*achievement.Achievement
	if err := c.cache.Get(ctx, keyAchievementCatalog, &list); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return list, true, nil
}

// Set stores the catalog for TTLCatalog.
func (c *CatalogCache) Set(ctx context.Context, list []*achievement.Achievement) error {
	if list == nil {
		list = []*achievement.Achievement{}
	}
	return c.cache.Set(ctx, keyAchievementCatalog, list, TTLCatalog)
}

// Invalidate drops the cached catalog.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	return c.cache.Delete(ctx, keyAchievementCatalog)
}
