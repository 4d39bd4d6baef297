package board

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/forgeline/forge-backend/internal/cache"
)

// LeaderboardCache caches serialized leaderboard responses keyed by limit.
type LeaderboardCache struct {
	cache *cache.Cache
}

// NewLeaderboardCache creates a leaderboard cache with the given TTL.
func NewLeaderboardCache(ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{cache: cache.NewCache(ttl)}
}

func leaderboardKey(limit int) string {
	return fmt.Sprintf("leaderboard:%d", limit)
}

// GetLeaderboard retrieves a cached leaderboard response.
func (bc *LeaderboardCache) GetLeaderboard(limit int) (*Response, bool) {
	data, found := bc.cache.Get(leaderboardKey(limit))
	if !found {
		return nil, false
	}

	var response Response
	if err := json.Unmarshal(data, &response); err != nil {
		slog.Error("Failed to unmarshal cached leaderboard", "error", err, "limit", limit)
		return nil, false
	}

	return &response, true
}

// SetLeaderboard caches a leaderboard response.
func (bc *LeaderboardCache) SetLeaderboard(limit int, response *Response) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal leaderboard for cache", "error", err, "limit", limit)
		return
	}

	bc.cache.Set(leaderboardKey(limit), data)
}

// Invalidate drops all cached leaderboard responses.
func (bc *LeaderboardCache) Invalidate() {
	bc.cache.DeletePrefix("leaderboard:")
}

// Stats returns underlying cache statistics.
func (bc *LeaderboardCache) Stats() map[string]interface{} {
	return bc.cache.Stats()
}
