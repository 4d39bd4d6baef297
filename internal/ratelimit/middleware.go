package ratelimit

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// IPRateLimitMiddleware creates middleware for IP-based rate limiting
func (rl *RateLimiter) IPRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ip := c.ClientIP()

		result, err := rl.AllowIP(ctx, ip)
		if err != nil {
			// Never block a request on rate limiter failure.
			slog.Error("Rate limit check failed", "ip", ip, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitIPBlock()
				rl.metrics.IncrementRateLimitEndpoint(c.FullPath())
			}

			c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded for IP",
				"message":     fmt.Sprintf("You have exceeded the rate limit of %d requests per minute", result.Limit),
				"retry_after": int(result.RetryAfter.Seconds()),
				"reset_at":    result.ResetAt.Unix(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RecomputeThrottleMiddleware enforces the per-builder score recompute
// cooldown. It keys on the builder id path parameter, so two clients asking
// for the same builder share one window.
func (rl *RateLimiter) RecomputeThrottleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		builderID := c.Param("id")
		if builderID == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		result, err := rl.AllowRecompute(ctx, builderID)
		if err != nil {
			slog.Error("Recompute throttle check failed", "builder_id", builderID, "error", err)
			c.Next()
			return
		}

		if !result.Allowed {
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitBuilderBlock()
				rl.metrics.IncrementRateLimitEndpoint(c.FullPath())
			}

			c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "score recompute cooldown active",
				"message":     "This builder's score was recomputed recently; try again later",
				"retry_after": int(result.RetryAfter.Seconds()),
				"reset_at":    result.ResetAt.Unix(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
