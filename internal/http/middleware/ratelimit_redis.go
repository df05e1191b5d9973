package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// RedisLimiter counts requests per key in fixed windows stored in Redis, so
// every replica shares one budget. Each window lives under its own key
// ("<prefix><key>:<window index>") that expires with the window.
type RedisLimiter struct {
	client redis.Cmdable
	limit  int64
	window time.Duration
	prefix string
	keyFn  keyFunc

	now func() time.Time
}

// NewRedisLimiter allows limit requests per window for each key produced by
// keyFn. limit <= 0 is coerced to 1 and window <= 0 to one second.
func NewRedisLimiter(client redis.Cmdable, limit int, window time.Duration, keyFn keyFunc) *RedisLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &RedisLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
		prefix: "ratelimit:",
		keyFn:  keyFn,
		now:    time.Now,
	}
}

// windowKey returns the Redis key of the window containing t and the time
// left until that window closes.
func (rl *RedisLimiter) windowKey(key string, t time.Time) (string, time.Duration) {
	n := t.UnixNano()
	w := int64(rl.window)
	idx := n / w
	left := time.Duration(w - n%w)
	return rl.prefix + key + ":" + strconv.FormatInt(idx, 10), left
}

// Allow implements Allower.
func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	k, left := rl.windowKey(key, rl.now())

	n, err := rl.client.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, err
	}
	if n == 1 {
		if err := rl.client.Expire(ctx, k, rl.window).Err(); err != nil {
			return false, 0, err
		}
	}
	if n > rl.limit {
		return false, left, nil
	}
	return true, 0, nil
}

// Handler returns the Gin middleware enforcing this limiter. When Redis is
// unreachable requests are let through.
func (rl *RedisLimiter) Handler() gin.HandlerFunc {
	return limitWith(rl, rl.keyFn)
}
