package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Each key is a sorted set of request timestamps (ms). Entries older than the
// window are dropped before counting, so the window slides with every call.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call("ZREMRANGEBYSCORE", key, "-inf", now - window)
local count = redis.call("ZCARD", key)
if count >= limit then
  return 0
end
redis.call("ZADD", key, now, ARGV[4])
redis.call("PEXPIRE", key, window)
return 1
`)

// Limiter decides whether one more request for key fits in its quota.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// SlidingWindowLimiter limits requests per key within a sliding time window.
// It is Redis-backed so every server instance shares the same counters.
type SlidingWindowLimiter struct {
	limit  int
	window time.Duration

	redisClient redis.Scripter
	redisPrefix string
	now         func() time.Time
}

// NewSlidingWindowLimiter creates a limiter on an existing Redis client.
func NewSlidingWindowLimiter(client redis.Scripter, prefix string, limit int, window time.Duration) (*SlidingWindowLimiter, error) {
	if limit <= 0 || window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	if client == nil {
		return nil, errors.New("rate limiter redis client is required")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "ainews:ratelimit"
	}
	return &SlidingWindowLimiter{
		limit:       limit,
		window:      window,
		redisClient: client,
		redisPrefix: prefix,
		now:         time.Now,
	}, nil
}

// Allow returns true when the key is within quota. Redis failures are returned
// to the caller, which must treat them as a rejection.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}
	nowMs := l.now().UnixMilli()
	redisKey := fmt.Sprintf("%s:%s", l.redisPrefix, key)
	member := fmt.Sprintf("%d-%s", nowMs, uuid.NewString())

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	res, err := slidingWindowScript.Run(ctx, l.redisClient, []string{redisKey},
		nowMs, l.window.Milliseconds(), l.limit, member).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", redisKey, err)
	}
	return res == 1, nil
}

// Unlimited allows everything. Used when no Redis is configured.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) (bool, error) {
	return true, nil
}
