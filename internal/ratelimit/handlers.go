package ratelimit

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HandleRateLimitStatus returns the current rate limit policy for the
// requesting IP.
func (rl *RateLimiter) HandleRateLimitStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ip": c.ClientIP(),
			"limits": gin.H{
				"ip_per_minute": gin.H{
					"limit":  rl.config.IPLimitPerMin,
					"period": "1 minute",
				},
				"recompute_per_builder": gin.H{
					"limit":  1,
					"period": rl.config.RecomputeCooldown.String(),
				},
			},
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

// HandleAdminRateLimits returns rate limiter internals for operators.
func (rl *RateLimiter) HandleAdminRateLimits() gin.HandlerFunc {
	return func(c *gin.Context) {
		var rateLimitMetrics map[string]interface{}
		if rl.metrics != nil {
			rateLimitMetrics = rl.metrics.GetRateLimitStats()
		}

		c.JSON(http.StatusOK, gin.H{
			"limiter_stats": rl.GetStats(),
			"metrics":       rateLimitMetrics,
			"timestamp":     time.Now().Format(time.RFC3339),
		})
	}
}

// HandleAdminResetCooldown clears the recompute cooldown for one builder.
func (rl *RateLimiter) HandleAdminResetCooldown() gin.HandlerFunc {
	return func(c *gin.Context) {
		builderID := c.Param("id")
		if builderID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "builder ID is required"})
			return
		}

		if err := rl.InvalidateBuilder(c.Request.Context(), builderID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "failed to reset cooldown",
				"details": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":    "recompute cooldown reset",
			"builder_id": builderID,
			"timestamp":  time.Now().Format(time.RFC3339),
		})
	}
}

// HandleAdminResetIP clears the per-minute request window for one IP, for
// unblocking a shared NAT address that tripped the limit.
func (rl *RateLimiter) HandleAdminResetIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.Param("ip")
		if ip == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "IP address is required"})
			return
		}

		if err := rl.InvalidateIP(c.Request.Context(), ip); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "failed to reset IP rate limits",
				"details": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":   "ip rate limits reset",
			"ip":        ip,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

// HandleAdminResetAll clears every rate limit window, cooldowns included.
func (rl *RateLimiter) HandleAdminResetAll() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := rl.InvalidateAll(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "failed to reset rate limits",
				"details": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":   "all rate limits reset",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}
