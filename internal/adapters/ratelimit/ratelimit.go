// Package ratelimit implements a Redis backed token bucket.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Defaults of the bucket.
const (
	DefaultCapacity       = 60
	DefaultRefillTokens   = 1
	DefaultRefillInterval = time.Second
	DefaultTTL            = 10 * time.Minute
	DefaultPrefix         = "phq9:rl"

	pingTimeout = 2 * time.Second
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// tokenBucket refills in whole intervals and returns {allowed, tokens, retry_after_ms}.
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill_tokens = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
  tokens = capacity
  last_refill = now_ms
end

if interval_ms > 0 and refill_tokens > 0 then
  local elapsed = math.max(0, now_ms - last_refill)
  local intervals = math.floor(elapsed / interval_ms)
  if intervals > 0 then
    tokens = math.min(capacity, tokens + (intervals * refill_tokens))
    last_refill = last_refill + (intervals * interval_ms)
  end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return { allowed, tokens, retry_after_ms }
`)

// RedisLimiter keeps one bucket per key in Redis so several instances share limits.
type RedisLimiter struct {
	rdb            redis.Scripter
	capacity       int
	refillTokens   int
	refillInterval time.Duration
	ttl            time.Duration
	prefix         string
	now            func() time.Time
}

// NewRedisLimiter creates a limiter over an existing client.
func NewRedisLimiter(rdb redis.Scripter, opts ...Option) *RedisLimiter {
	l := &RedisLimiter{
		rdb:            rdb,
		capacity:       DefaultCapacity,
		refillTokens:   DefaultRefillTokens,
		refillInterval: DefaultRefillInterval,
		ttl:            DefaultTTL,
		prefix:         DefaultPrefix,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Key joins the prefix and the caller supplied parts.
func (l *RedisLimiter) Key(parts ...string) string {
	k := l.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

// Allow implements Limiter. key is namespaced with the configured prefix.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	args := []any{
		l.now().UnixMilli(),
		l.capacity,
		l.refillTokens,
		l.refillInterval.Milliseconds(),
		int64(l.ttl / time.Second),
	}
	vals, err := tokenBucket.Run(ctx, l.rdb, []string{l.Key(key)}, args...).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return decode(vals, l.capacity)
}

func decode(vals any, limit int) (Decision, error) {
	arr, ok := vals.([]any)
	if !ok || len(arr) != 3 {
		return Decision{}, fmt.Errorf("%w: %#v", ErrUnexpectedRes, vals)
	}
	return Decision{
		Allowed:    asInt64(arr[0]) == 1,
		Limit:      limit,
		Remaining:  asInt64(arr[1]),
		RetryAfter: time.Duration(asInt64(arr[2])) * time.Millisecond,
	}, nil
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// ClientOptions configure NewRedisClient.
type ClientOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects and pings. The client is closed and an error
// returned when the server does not answer.
func NewRedisClient(ctx context.Context, o ClientOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     o.Addr,
		Password: o.Password,
		DB:       o.DB,
	})
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", ErrUnavailable, o.Addr, err)
	}
	return client, nil
}
