package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/ingvionio/fullstack/internal/domain/user"
)

var (
	// ErrUserNotInLeaderboard is returned when the user has no entry.
	ErrUserNotInLeaderboard = errors.New("leaderboard_cache: user not in leaderboard")

	// ErrInvalidLimit is returned for non-positive limits.
	ErrInvalidLimit = errors.New("leaderboard_cache: limit must be positive")
)

// Key layout:
//   - sorted set "leaderboard:xp" maps user id -> XP
//   - hash "leaderboard:info" maps user id -> entry JSON
var (
	keyLeaderboardXP   = Key(PrefixLeaderboard, "xp")
	keyLeaderboardInfo = Key(PrefixLeaderboard, "info")
)

// LeaderboardCache keeps the XP ranking in a Redis sorted set.
type LeaderboardCache struct {
	client redis.Cmdable
}

// NewLeaderboardCache creates a LeaderboardCache over the cache client.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{client: cache.Client()}
}

func member(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// ══════════════════════════════════════════════════════════════════════════════
// WRITE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// UpdateEntry adds or replaces one user's entry.
func (l *LeaderboardCache) UpdateEntry(ctx context.Context, entry user.RankEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	id := member(entry.UserID)
	pipe := l.client.Pipeline()
	pipe.ZAdd(ctx, keyLeaderboardXP, redis.Z{Score: float64(entry.XP), Member: id})
	pipe.HSet(ctx, keyLeaderboardInfo, id, data)
	_, err = pipe.Exec(ctx)
	return err
}

// Rebuild replaces the whole leaderboard atomically.
func (l *LeaderboardCache) Rebuild(ctx context.Context, entries []user.RankEntry) error {
	pipe := l.client.TxPipeline()
	pipe.Del(ctx, keyLeaderboardXP, keyLeaderboardInfo)

	if len(entries) > 0 {
		zMembers := make([]redis.Z, 0, len(entries))
		hashData := make(map[string]any, len(entries))
		for _, e := range entries {
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("marshal entry %d: %w", e.UserID, err)
			}
			id := member(e.UserID)
			zMembers = append(zMembers, redis.Z{Score: float64(e.XP), Member: id})
			hashData[id] = data
		}
		pipe.ZAdd(ctx, keyLeaderboardXP, zMembers...)
		pipe.HSet(ctx, keyLeaderboardInfo, hashData)
	}

	_, err := pipe.Exec(ctx)
	return err
}

// RemoveEntry removes a user from the leaderboard.
func (l *LeaderboardCache) RemoveEntry(ctx context.Context, userID int64) error {
	id := member(userID)
	pipe := l.client.Pipeline()
	pipe.ZRem(ctx, keyLeaderboardXP, id)
	pipe.HDel(ctx, keyLeaderboardInfo, id)
	_, err := pipe.Exec(ctx)
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// READ OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Top returns up to limit entries by descending XP with tie-sharing ranks.
func (l *LeaderboardCache) Top(ctx context.Context, limit int) ([]user.RankEntry, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	ids, err := l.client.ZRevRange(ctx, keyLeaderboardXP, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []user.RankEntry{}, nil
	}

	raw, err := l.client.HMGet(ctx, keyLeaderboardInfo, ids...).Result()
	if err != nil {
		return nil, err
	}
	entries := decodeEntries(raw)
	if len(entries) == 0 {
		return entries, nil
	}

	first, err := l.rankOf(ctx, entries[0].XP)
	if err != nil {
		return nil, err
	}
	assignRanks(entries, first)
	return entries, nil
}

// Rank returns a user's entry with its current rank.
func (l *LeaderboardCache) Rank(ctx context.Context, userID int64) (*user.RankEntry, error) {
	raw, err := l.client.HGet(ctx, keyLeaderboardInfo, member(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrUserNotInLeaderboard
		}
		return nil, err
	}

	var entry user.RankEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}

	rank, err := l.rankOf(ctx, entry.XP)
	if err != nil {
		return nil, err
	}
	entry.Rank = rank
	return &entry, nil
}

// Count returns the number of ranked users.
func (l *LeaderboardCache) Count(ctx context.Context) (int64, error) {
	return l.client.ZCard(ctx, keyLeaderboardXP).Result()
}

// rankOf is 1 + the number of users with strictly more XP.
func (l *LeaderboardCache) rankOf(ctx context.Context, xp int) (int, error) {
	above, err := l.client.ZCount(ctx, keyLeaderboardXP, "("+strconv.Itoa(xp), "+inf").Result()
	if err != nil {
		return 0, err
	}
	return int(above) + 1, nil
}

// decodeEntries skips missing or malformed hash values.
func decodeEntries(raw []any) []user.RankEntry {
	entries := make([]user.RankEntry, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var e user.RankEntry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

// assignRanks numbers entries sorted by descending XP starting at first.
func assignRanks(entries []user.RankEntry, first int) {
	for i := range entries {
		switch {
		case i == 0:
			entries[i].Rank = first
		case entries[i].XP == entries[i-1].XP:
			entries[i].Rank = entries[i-1].Rank
		default:
			entries[i].Rank = first + i
		}
	}
}
