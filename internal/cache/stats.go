package cache

import (
	"sync"
	"time"
)

// StatsCache holds a single precomputed value with a short TTL. It backs
// the advisory live-stats endpoint, where a slightly stale count is fine
// but hitting the database on every poll is not.
type StatsCache struct {
	mu       sync.Mutex
	value    interface{}
	cachedAt time.Time
	ttl      time.Duration
}

// NewStatsCache creates a single-value cache with the given TTL.
func NewStatsCache(ttl time.Duration) *StatsCache {
	return &StatsCache{ttl: ttl}
}

// Get returns the cached value if it is still fresh.
func (s *StatsCache) Get() (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.value == nil || time.Since(s.cachedAt) > s.ttl {
		return nil, false
	}
	return s.value, true
}

// Set stores a new value and restarts the TTL clock.
func (s *StatsCache) Set(value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = value
	s.cachedAt = time.Now()
}

// Reset drops the cached value. Tests use this to force a refresh.
func (s *StatsCache) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = nil
	s.cachedAt = time.Time{}
}
