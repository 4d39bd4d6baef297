package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis connection pool sizing. The limiter issues one small command per
// checked request, so a modest pool with a short checkout wait is enough.
const (
	redisPoolSize     = 16
	redisMinIdleConns = 4
	redisDialTimeout  = 5 * time.Second
	redisOpTimeout    = 3 * time.Second
	redisPoolTimeout  = 4 * time.Second
)

// RedisClient wraps the shared redis connection behind an enabled flag so the
// limiter can run without Redis at all: disabled means every rate limit
// window lives only in this process.
type RedisClient struct {
	client  *redis.Client
	enabled bool
	addr    string
}

// NewRedisClient connects to Redis for shared limiter state. An empty addr
// is not an error: recompute cooldowns and IP windows simply stay local to
// this process. A configured addr that fails to ping returns both a disabled
// client and the error, so the caller can log and keep serving.
func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	if addr == "" {
		slog.Warn("REDIS_ADDR not set, rate limit windows are process-local")
		return &RedisClient{enabled: false}, nil
	}

	slog.Info("Connecting to Redis for shared rate limit state", "addr", addr, "db", db)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  redisDialTimeout,
		ReadTimeout:  redisOpTimeout,
		WriteTimeout: redisOpTimeout,
		PoolSize:     redisPoolSize,
		MinIdleConns: redisMinIdleConns,
		PoolTimeout:  redisPoolTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("Redis unreachable, rate limit windows are process-local", "addr", addr, "error", err)
		return &RedisClient{enabled: false, addr: addr}, fmt.Errorf("redis ping failed: %w", err)
	}

	slog.Info("Redis connected", "addr", addr)

	return &RedisClient{
		client:  client,
		enabled: true,
		addr:    addr,
	}, nil
}

// GetClient returns the underlying Redis client.
func (r *RedisClient) GetClient() *redis.Client {
	return r.client
}

// IsEnabled reports whether limiter state is shared through Redis.
func (r *RedisClient) IsEnabled() bool {
	return r.enabled
}

// HealthCheck pings Redis. Fails when the client is disabled.
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if !r.enabled {
		return fmt.Errorf("redis is disabled")
	}
	return r.client.Ping(ctx).Err()
}

// Close releases the Redis connection.
func (r *RedisClient) Close() error {
	if r.enabled && r.client != nil {
		slog.Info("Closing Redis connection")
		return r.client.Close()
	}
	return nil
}

// GetPoolStats returns connection pool statistics for the admin surface.
func (r *RedisClient) GetPoolStats() map[string]interface{} {
	if !r.enabled || r.client == nil {
		return map[string]interface{}{"enabled": false}
	}

	stats := r.client.PoolStats()

	return map[string]interface{}{
		"enabled":     true,
		"addr":        r.addr,
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"stale_conns": stats.StaleConns,
	}
}
