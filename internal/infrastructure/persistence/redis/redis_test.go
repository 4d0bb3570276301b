package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ingvionio/fullstack/internal/domain/user"
)

func TestConfig_OptionsFromHost(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "cache.local"
	cfg.Port = 6380
	cfg.DB = 2

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, "cache.local:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 10, opts.PoolSize)
	assert.Equal(t, 5*time.Second, opts.DialTimeout)
}

func TestConfig_OptionsFromURL(t *testing.T) {
	cfg := Config{URL: "redis://:secret@redis.internal:6379/3"}

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, "redis.internal:6379", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 3, opts.DB)
}

func TestConfig_OptionsInvalidURL(t *testing.T) {
	_, err := Config{URL: "http://nope"}.Options()
	assert.ErrorIs(t, err, ErrCacheConfig)
}

func TestNewCache_Unreachable(t *testing.T) {
	cfg := Config{Host: "127.0.0.1", Port: 1, DialTimeout: 200 * time.Millisecond}

	_, err := NewCache(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrCacheConnection)
}

func TestEncode(t *testing.T) {
	_, err := encode("", 1, 0)
	assert.ErrorIs(t, err, ErrCacheKeyEmpty)

	_, err = encode("k", nil, 0)
	assert.ErrorIs(t, err, ErrCacheNilValue)

	_, err = encode("k", 1, -time.Second)
	assert.ErrorIs(t, err, ErrCacheInvalidTTL)

	_, err = encode("k", func() {}, 0)
	assert.True(t, errors.Is(err, ErrCacheSerialization))

	data, err := encode("k", map[string]int{"xp": 5}, time.Minute)
	require.NoError(t, err)
	assert.JSONEq(t, `{"xp":5}`, string(data))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "leaderboard:xp", keyLeaderboardXP)
	assert.Equal(t, "leaderboard:info", keyLeaderboardInfo)
	assert.Equal(t, "achievement:catalog", keyAchievementCatalog)
	assert.Equal(t, "42", member(42))
}

func TestDecodeEntries_SkipsBadValues(t *testing.T) {
	raw := []any{
		`{"user_id":1,"username":"anna","xp":300,"level":3}`,
		nil,
		"not json",
		`{"user_id":2,"username":"boris","xp":120,"level":2}`,
	}

	entries := decodeEntries(raw)

	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].UserID)
	assert.Equal(t, "boris", entries[1].Username)
}

func TestAssignRanks(t *testing.T) {
	entries := []user.RankEntry{{XP: 50}, {XP: 50}, {XP: 40}, {XP: 10}, {XP: 10}}

	assignRanks(entries, 1)

	got := make([]int, len(entries))
	for i, e := range entries {
		got[i] = e.Rank
	}
	assert.Equal(t, []int{1, 1, 3, 4, 4}, got)
}
