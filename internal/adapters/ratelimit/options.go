package ratelimit

import "time"

// Option applies a configuration option to the RedisLimiter.
type Option func(*RedisLimiter)

// WithCapacity sets the bucket size.
func WithCapacity(n int) Option {
	return func(l *RedisLimiter) {
		if n > 0 {
			l.capacity = n
		}
	}
}

// WithRefill adds tokens every interval.
func WithRefill(tokens int, interval time.Duration) Option {
	return func(l *RedisLimiter) {
		if tokens > 0 {
			l.refillTokens = tokens
		}
		if interval > 0 {
			l.refillInterval = interval
		}
	}
}

// WithTTL sets how long an idle bucket lives.
func WithTTL(d time.Duration) Option {
	return func(l *RedisLimiter) {
		if d >= time.Second {
			l.ttl = d
		}
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(p string) Option {
	return func(l *RedisLimiter) {
		if p != "" {
			l.prefix = p
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *RedisLimiter) {
		if now != nil {
			l.now = now
		}
	}
}
