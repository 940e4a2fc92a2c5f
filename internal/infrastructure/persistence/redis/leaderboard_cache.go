package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alem-hub/wordle-cup/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache stores computed standings per resolved window.
// Callers must resolve "current cup" to a concrete key before caching,
// otherwise a table could outlive its month.
type LeaderboardCache struct {
	cache *Cache
}

// NewLeaderboardCache creates a new LeaderboardCache.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

// Get returns the cached snapshot for a window.
func (lc *LeaderboardCache) Get(ctx context.Context, window leaderboard.Window) (*leaderboard.Snapshot, bool, error) {
	var snap leaderboard.Snapshot
	err := lc.cache.Get(ctx, LeaderboardKey(window.String()), &snap)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read leaderboard cache: %w", err)
	}
	return &snap, true, nil
}

// Set stores a snapshot. A zero ttl falls back to TTLLeaderboardCache.
func (lc *LeaderboardCache) Set(ctx context.Context, snap *leaderboard.Snapshot, ttl time.Duration) error {
	if snap == nil {
		return ErrCacheNilValue
	}
	if ttl == 0 {
		ttl = TTLLeaderboardCache
	}
	if err := lc.cache.Set(ctx, LeaderboardKey(snap.Window), snap, ttl); err != nil {
		return fmt.Errorf("failed to write leaderboard cache: %w", err)
	}
	return nil
}

// InvalidateAll drops every cached table.
func (lc *LeaderboardCache) InvalidateAll(ctx context.Context) error {
	if err := lc.cache.DeleteByPattern(ctx, PrefixLeaderboard+"*"); err != nil {
		return fmt.Errorf("failed to invalidate leaderboard cache: %w", err)
	}
	return nil
}

var _ leaderboard.Cache = (*LeaderboardCache)(nil)
