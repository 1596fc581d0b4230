package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/pdfgallery/pdfgallery/pkg/logger"
	"github.com/pdfgallery/pdfgallery/pkg/metrics"
)

// RedisRateLimitMiddleware counts requests per client IP in fixed windows
// kept in Redis, so every replica of the gallery shares one budget of
// floor(rps*window)+burst requests per window.
// A nil client falls back to the in-process limiter.
func RedisRateLimitMiddleware(client *redis.Client, rps float64, burst int, window time.Duration) gin.HandlerFunc {
	if client == nil {
		return RateLimitMiddleware(rps, burst)
	}
	span := int64(window / time.Second)
	if span <= 0 {
		span = 1
	}
	limit := int64(rps*float64(span)) + int64(burst)

	return func(c *gin.Context) {
		now := time.Now().Unix()
		bucket := now / span
		key := "rl:" + clientKey(c) + ":" + strconv.FormatInt(bucket, 10)

		var incr *redis.IntCmd
		_, err := client.TxPipelined(c.Request.Context(), func(p redis.Pipeliner) error {
			incr = p.Incr(c.Request.Context(), key)
			p.Expire(c.Request.Context(), key, time.Duration(span+1)*time.Second)
			return nil
		})
		if err != nil {
			logger.Errorf("rate limit %s: %v", key, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
			return
		}

		used := incr.Val()
		remaining := limit - used
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if used > limit {
			// seconds until the next window opens
			c.Header("Retry-After", strconv.FormatInt((bucket+1)*span-now, 10))
			metrics.RateLimitRejected.WithLabelValues("redis").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("redis").Inc()
		c.Next()
	}
}
