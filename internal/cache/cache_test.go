package cache

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeline/forge-backend/internal/monitoring"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestCacheSetGet(t *testing.T) {
	c := NewCache(time.Minute)

	_, found := c.Get("missing")
	assert.False(t, found)

	c.Set("key", []byte("value"))
	data, found := c.Get("key")
	require.True(t, found)
	assert.Equal(t, []byte("value"), data)
	assert.Equal(t, 1, c.Size())
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(10 * time.Millisecond)

	c.Set("key", []byte("value"))
	time.Sleep(20 * time.Millisecond)

	_, found := c.Get("key")
	assert.False(t, found)
}

func TestCacheDeletePrefix(t *testing.T) {
	c := NewCache(time.Minute)

	c.Set("matches:p1", []byte("a"))
	c.Set("matches:p2", []byte("b"))
	c.Set("leaderboard:10", []byte("c"))

	c.DeletePrefix("matches:")

	assert.Equal(t, 1, c.Size())
	_, found := c.Get("leaderboard:10")
	assert.True(t, found)
}

func TestCacheClear(t *testing.T) {
	c := NewCache(time.Minute)

	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	c.Clear()

	assert.Equal(t, 0, c.Size())
}

func TestCacheStats(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("a", []byte("1"))

	stats := c.Stats()
	assert.Equal(t, 1, stats["total_items"])
	assert.Equal(t, 0, stats["expired_items"])
}

func TestMiddlewareCachesMatchingGets(t *testing.T) {
	c := NewCache(time.Minute)
	metrics := monitoring.NewMetrics()

	calls := 0
	router := gin.New()
	router.Use(c.Middleware(metrics, "/projects"))
	router.GET("/projects/:id/matches", func(ctx *gin.Context) {
		calls++
		ctx.JSON(http.StatusOK, gin.H{"matches": []string{}})
	})
	router.GET("/health", func(ctx *gin.Context) {
		calls++
		ctx.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/projects/p1/matches", nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "matches")
	}
	assert.Equal(t, 1, calls, "repeated requests should hit the cache")

	// Different query strings are separate entries.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/projects/p1/matches?limit=5", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, 2, calls)

	// Paths outside the prefixes are never cached.
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		router.ServeHTTP(w, req)
	}
	assert.Equal(t, 4, calls)
}

func TestMiddlewareSkipsErrors(t *testing.T) {
	c := NewCache(time.Minute)
	metrics := monitoring.NewMetrics()

	calls := 0
	router := gin.New()
	router.Use(c.Middleware(metrics, "/projects"))
	router.GET("/projects/:id/matches", func(ctx *gin.Context) {
		calls++
		ctx.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/projects/missing/matches", nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusNotFound, w.Code)
	}
	assert.Equal(t, 2, calls, "error responses must not be cached")
}

func TestStatsCache(t *testing.T) {
	s := NewStatsCache(time.Minute)

	_, ok := s.Get()
	assert.False(t, ok)

	s.Set(map[string]int{"builders": 3})
	v, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, map[string]int{"builders": 3}, v)

	s.Reset()
	_, ok = s.Get()
	assert.False(t, ok)
}

func TestStatsCacheExpiry(t *testing.T) {
	s := NewStatsCache(10 * time.Millisecond)

	s.Set("snapshot")
	time.Sleep(20 * time.Millisecond)

	_, ok := s.Get()
	assert.False(t, ok)
}
