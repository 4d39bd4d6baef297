// Package board serves the public builder leaderboard and the live
// platform stats. Both surfaces are read-only and cache-backed: the
// leaderboard tolerates minutes of staleness, live stats seconds.
package board

import (
	"context"
	"fmt"
	"time"

	"github.com/forgeline/forge-backend/internal/cache"
	"github.com/forgeline/forge-backend/internal/database"
)

const (
	defaultLimit = 50
	maxLimit     = 100

	leaderboardTTL = 15 * time.Minute
	liveStatsTTL   = 12 * time.Second
)

// Entry is one ranked builder on the leaderboard.
type Entry struct {
	Rank         int    `json:"rank"`
	BuilderID    string `json:"builder_id"`
	Username     string `json:"username"`
	Score        int    `json:"score"`
	Confidence   int    `json:"confidence"`
	Availability string `json:"availability"`
}

// Response is the leaderboard query result.
type Response struct {
	Entries     []Entry   `json:"entries"`
	Total       int       `json:"total"`
	GeneratedAt time.Time `json:"generated_at"`
}

// LiveStats is the advisory platform snapshot.
type LiveStats struct {
	Builders           int       `json:"builders"`
	VerifiedDeliveries int       `json:"verified_deliveries"`
	GeneratedAt        time.Time `json:"generated_at"`
}

// Service handles leaderboard and live-stats queries.
type Service struct {
	repo  *database.Repository
	cache *LeaderboardCache
	stats *cache.StatsCache
}

// NewService creates a board service with default cache TTLs.
func NewService(repo *database.Repository) *Service {
	return &Service{
		repo:  repo,
		cache: NewLeaderboardCache(leaderboardTTL),
		stats: cache.NewStatsCache(liveStatsTTL),
	}
}

// NewServiceWithCaches creates a board service with injected caches.
func NewServiceWithCaches(repo *database.Repository, c *LeaderboardCache, stats *cache.StatsCache) *Service {
	return &Service{repo: repo, cache: c, stats: stats}
}

// TopBuilders returns the highest-scored builders, most recently cached.
// Builders with no computed score never appear.
func (s *Service) TopBuilders(ctx context.Context, limit int) (*Response, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	if cached, found := s.cache.GetLeaderboard(limit); found {
		return cached, nil
	}

	builders, err := s.repo.TopBuilders(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(builders))
	for i, b := range builders {
		entries = append(entries, Entry{
			Rank:         i + 1,
			BuilderID:    b.ID,
			Username:     b.Username,
			Score:        b.ForgeScore,
			Confidence:   b.ConfidenceScore,
			Availability: string(b.Availability),
		})
	}

	response := &Response{
		Entries:     entries,
		Total:       len(entries),
		GeneratedAt: time.Now(),
	}

	s.cache.SetLeaderboard(limit, response)
	return response, nil
}

// Live returns the advisory platform counts through the short-TTL cache.
func (s *Service) Live(ctx context.Context) (*LiveStats, error) {
	if cached, found := s.stats.Get(); found {
		if stats, ok := cached.(*LiveStats); ok {
			return stats, nil
		}
	}

	builders, err := s.repo.CountBuilders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count builders: %w", err)
	}

	verified, err := s.repo.CountVerifiedDeliveries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count verified deliveries: %w", err)
	}

	stats := &LiveStats{
		Builders:           builders,
		VerifiedDeliveries: verified,
		GeneratedAt:        time.Now(),
	}

	s.stats.Set(stats)
	return stats, nil
}

// ResetStats clears the live-stats cache so the next read hits the database.
func (s *Service) ResetStats() {
	s.stats.Reset()
}

// InvalidateLeaderboard drops cached rankings. Called after a score
// recompute so the new score shows up without waiting out the TTL.
func (s *Service) InvalidateLeaderboard() {
	s.cache.Invalidate()
}

// CacheStats returns leaderboard cache statistics.
func (s *Service) CacheStats() map[string]interface{} {
	return s.cache.Stats()
}
