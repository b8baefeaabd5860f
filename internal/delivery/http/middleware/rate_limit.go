package middleware

import (
	"net/http"
	"strconv"
	"time"

	"zaanjob-backend/internal/delivery/http/response"
	"zaanjob-backend/internal/domain"
	"zaanjob-backend/pkg/apperror"
	"zaanjob-backend/pkg/redis"
	"zaanjob-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Requests per window
	Limit int
	// Time window duration
	Window time.Duration
	// Custom key extractor (default: IP-based)
	KeyFunc func(*gin.Context) string
	// Key prefix, namespaced per limiter
	KeyPrefix string
	// Whether to reject when the store errors
	FailClosed bool
}

// GlobalRateLimitConfig applies to every API route.
func GlobalRateLimitConfig(limit int, window time.Duration) RateLimitConfig {
	return RateLimitConfig{
		Limit:     limit,
		Window:    window,
		KeyPrefix: "zaanjob:rl:ip:",
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}
}

// WriteRateLimitConfig is the stricter budget for mutating routes. It keys
// by account when the caller is signed in.
func WriteRateLimitConfig(limit int, window time.Duration) RateLimitConfig {
	return RateLimitConfig{
		Limit:     limit,
		Window:    window,
		KeyPrefix: "zaanjob:rl:write:",
		KeyFunc: func(c *gin.Context) string {
			if id := domain.UserIDFrom(c.Request.Context()); id != "" {
				return "user:" + id
			}
			return "ip:" + c.ClientIP()
		},
	}
}

// RateLimitMiddleware counts requests in fixed windows held in store. The
// store itself falls back to memory when Redis is down.
func RateLimitMiddleware(store redis.Store, secLog *security.SecurityLogger, config RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		fullKey := config.KeyPrefix + config.KeyFunc(c)

		count, resetAt, err := store.Incr(c.Request.Context(), fullKey, config.Window)
		if err != nil {
			if config.FailClosed {
				response.Error(c, http.StatusServiceUnavailable, apperror.KindInternal, "Service temporarily unavailable. Please try again.", nil)
				c.Abort()
				return
			}
			c.Next()
			return
		}

		remaining := config.Limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", resetAt.Format(time.RFC3339))

		if count > config.Limit {
			retryAfter := int(time.Until(resetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			secLog.LogRateLimitTriggered(
				c.Request.Context(),
				c.ClientIP(),
				c.GetHeader("User-Agent"),
				domain.RequestIDFrom(c.Request.Context()),
				c.FullPath(),
			)

			response.Error(c, http.StatusTooManyRequests, apperror.KindRateLimited, "Rate limit exceeded. Please try again later.", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}
