package security

import (
	"fmt"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	redis        *redis.Client
	maxPerMinute int64
}

func NewRateLimiter(redisClient *redis.Client, maxPerMinute int) *RateLimiter {
	return &RateLimiter{redis: redisClient, maxPerMinute: int64(maxPerMinute)}
}

// ChargeRateLimit caps charge attempts per client IP per minute and drops
// obvious bot traffic. The window lives in Redis so the limit holds across
// replicas. Redis errors fail open: a cache hiccup must not block payments.
func (r *RateLimiter) ChargeRateLimit() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		userAgent := e.Request.Header.Get("User-Agent")
		if r.isSuspiciousUserAgent(userAgent) {
			return e.JSON(403, map[string]string{
				"error": "Access denied",
			})
		}

		ctx := e.Request.Context()
		key := fmt.Sprintf("ratelimit:charge:%s", e.RealIP())

		count, err := r.redis.Incr(ctx, key).Result()
		if err == nil {
			if count == 1 {
				r.redis.Expire(ctx, key, time.Minute)
			}
			if count > r.maxPerMinute {
				return e.JSON(429, map[string]string{
					"error": "Too many requests. Please try again later.",
				})
			}
		}

		return e.Next()
	}
}

func (r *RateLimiter) isSuspiciousUserAgent(ua string) bool {
	suspicious := []string{"bot", "crawler", "spider", "scraper"}
	for _, pattern := range suspicious {
		if strings.Contains(strings.ToLower(ua), pattern) {
			return true
		}
	}
	return false
}
