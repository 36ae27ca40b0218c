package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"taskapi/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// RedisRateLimiter is a fixed-window limiter keyed by client IP. A limiter
// without a reachable Redis lets every request through.
type RedisRateLimiter struct {
	client *redis.Client
}

// NewRedisRateLimiter connects to addr. An empty addr or a failed ping
// yields a limiter that fails open.
func NewRedisRateLimiter(ctx context.Context, addr, password string, db int) *RedisRateLimiter {
	if addr == "" {
		return &RedisRateLimiter{}
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, rate limiting disabled", "addr", addr, "error", err)
		_ = client.Close()
		return &RedisRateLimiter{}
	}
	logger.Info("redis rate limiter connected", "addr", addr)
	return &RedisRateLimiter{client: client}
}

// Enabled reports whether requests are being counted.
func (r *RedisRateLimiter) Enabled() bool {
	return r != nil && r.client != nil
}

func (r *RedisRateLimiter) Close() error {
	if !r.Enabled() {
		return nil
	}
	return r.client.Close()
}

// Limit allows maxRequests per window per client.
// key format: rl:<window_seconds>:<identifier>
func (r *RedisRateLimiter) Limit(maxRequests int, window time.Duration) gin.HandlerFunc {
	prefix := "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":"
	return func(c *gin.Context) {
		if !r.Enabled() {
			c.Next()
			return
		}

		key := prefix + c.ClientIP()
		ctx := c.Request.Context()

		val, err := r.client.Incr(ctx, key).Result()
		if err != nil {
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}
		if val == 1 {
			r.client.Expire(ctx, key, window)
		}

		endpoint := routeLabel(c)
		if val > int64(maxRequests) {
			RLBlocked.WithLabelValues(endpoint).Inc()
			c.Header("Retry-After", strconv.FormatInt(int64(window.Seconds()), 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		RLRequests.WithLabelValues(endpoint).Inc()
		c.Next()
	}
}
