package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisRateLimiter is a fixed-window rate limiter backed by Redis, shared by
// every server instance pointing at the same Redis.
type RedisRateLimiter struct {
	rdb    redis.Scripter
	limit  int
	window time.Duration
	prefix string
}

var redisFixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// NewRedisRateLimiter allows limit requests per window for each client key.
func NewRedisRateLimiter(rdb redis.Scripter, limit int, window time.Duration, prefix string) *RedisRateLimiter {
	if limit <= 0 {
		limit = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisRateLimiter{rdb: rdb, limit: limit, window: window, prefix: prefix}
}

// Middleware enforces the limit keyed by client IP. With failOpen set, a
// Redis outage lets requests through instead of answering 503.
func (rl *RedisRateLimiter) Middleware(failOpen bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			count, err := rl.incr(ctx, rl.prefix+":"+c.RealIP())
			if err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Msg("redis rate limiter error")
				if failOpen {
					return next(c)
				}
				return echo.NewHTTPError(http.StatusServiceUnavailable, "rate limiter unavailable")
			}

			remaining := int64(rl.limit) - count
			if remaining < 0 {
				remaining = 0
			}
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(rl.limit) {
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(rl.window.Seconds()))))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}

func (rl *RedisRateLimiter) incr(ctx context.Context, key string) (int64, error) {
	ms := rl.window.Milliseconds()
	if ms <= 0 {
		ms = int64(time.Minute / time.Millisecond)
	}
	res, err := redisFixedWindowScript.Run(ctx, rl.rdb, []string{key}, ms).Result()
	if err != nil {
		return 0, err
	}
	switch v := res.(type) {
	case int64:
		return v, nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected redis script result type %T", res)
	}
}
