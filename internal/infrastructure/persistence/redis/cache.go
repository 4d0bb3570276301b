// Package redis provides the Redis-backed caches of the review service:
// a generic JSON cache, the XP leaderboard sorted set and the achievement
// catalog cache. Redis is optional; callers fall back to the database.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds Redis connection configuration.
type Config struct {
	// URL, when set, takes precedence over Host/Port/Password/DB.
	URL string

	Host     string
	Port     int
	Password string
	DB       int

	PoolSize     int
	MinIdleConns int
	MaxRetries   int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         6379,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Addr returns the Redis server address in host:port format.
func (c Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Options builds go-redis client options from the config.
func (c Config) Options() (*redis.Options, error) {
	var opts *redis.Options
	if c.URL != "" {
		parsed, err := redis.ParseURL(c.URL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCacheConfig, err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     c.Addr(),
			Password: c.Password,
			DB:       c.DB,
		}
	}
	if c.PoolSize > 0 {
		opts.PoolSize = c.PoolSize
	}
	if c.MinIdleConns > 0 {
		opts.MinIdleConns = c.MinIdleConns
	}
	if c.MaxRetries > 0 {
		opts.MaxRetries = c.MaxRetries
	}
	if c.DialTimeout > 0 {
		opts.DialTimeout = c.DialTimeout
	}
	if c.ReadTimeout > 0 {
		opts.ReadTimeout = c.ReadTimeout
	}
	if c.WriteTimeout > 0 {
		opts.WriteTimeout = c.WriteTimeout
	}
	return opts, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrCacheMiss is returned when a key is not found in cache.
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheConnection is returned when Redis connection fails.
	ErrCacheConnection = errors.New("cache connection error")

	// ErrCacheConfig is returned when the connection settings cannot be parsed.
	ErrCacheConfig = errors.New("invalid cache configuration")

	// ErrCacheSerialization is returned when JSON encoding fails.
	ErrCacheSerialization = errors.New("cache serialization error")

	// ErrCacheKeyEmpty is returned when an empty key is provided.
	ErrCacheKeyEmpty = errors.New("cache key cannot be empty")

	// ErrCacheNilValue is returned when a nil value is stored.
	ErrCacheNilValue = errors.New("cannot cache nil value")

	// ErrCacheInvalidTTL is returned when a negative TTL is provided.
	ErrCacheInvalidTTL = errors.New("cache TTL cannot be negative")
)

// ══════════════════════════════════════════════════════════════════════════════
// KEYS AND TTLS
// ══════════════════════════════════════════════════════════════════════════════

const (
	// PrefixLeaderboard prefixes leaderboard keys.
	PrefixLeaderboard = "leaderboard"

	// PrefixAchievement prefixes achievement catalog keys.
	PrefixAchievement = "achievement"
)

const (
	// TTLCatalog bounds how long the achievement catalog is cached.
	TTLCatalog = 10 * time.Minute

	// TTLShort is used for cheap derived values.
	TTLShort = 1 * time.Minute
)

// Key joins key parts with ':'.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHE
// ══════════════════════════════════════════════════════════════════════════════

// Cache wraps a go-redis client with JSON helpers.
type Cache struct {
	client *redis.Client
}

// NewCache connects to Redis and verifies the connection with PING.
func NewCache(ctx context.Context, cfg Config) (*Cache, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}

	return &Cache{client: client}, nil
}

// NewCacheFromClient wraps an existing client.
func NewCacheFromClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Client returns the underlying Redis client.
func (c *Cache) Client() *redis.Client {
	return c.client
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks if Redis is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Set stores value as JSON under key with ttl. A zero ttl means no expiry.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := encode(key, value, ttl)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// Get loads the JSON value under key into dest.
// Returns ErrCacheMiss if the key doesn't exist.
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	if key == "" {
		return ErrCacheKeyEmpty
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return nil
}

// Delete removes keys. Missing keys are ignored.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func encode(key string, value any, ttl time.Duration) ([]byte, error) {
	if key == "" {
		return nil, ErrCacheKeyEmpty
	}
	if value == nil {
		return nil, ErrCacheNilValue
	}
	if ttl < 0 {
		return nil, ErrCacheInvalidTTL
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return data, nil
}
