// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Durations are integer milliseconds so every layer (YAML, .env, env)
//   spells them the same way.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// SheetURL locates the response export: an http(s) URL or a local path.
	SheetURL       string `koanf:"sheet_url"`
	SheetTimeoutMS int    `koanf:"sheet_timeout_ms"`
	SheetMaxBytes  int64  `koanf:"sheet_max_bytes"`
	// SheetUserAgent is sent with HTTP fetches; empty keeps the built-in agent.
	SheetUserAgent string `koanf:"sheet_user_agent"`

	// IdentityColumns and ReservedColumns describe the trailing cells of a row.
	IdentityColumns int `koanf:"identity_columns"`
	ReservedColumns int `koanf:"reserved_columns"`

	// DuplicatePolicy is "first" or "reject".
	DuplicatePolicy string `koanf:"duplicate_policy"`

	// PhrasesPath points at the phrase bank (JSON or YAML). Empty disables it.
	PhrasesPath            string `koanf:"phrases_path"`
	NoRepeatPhrases        bool   `koanf:"no_repeat_phrases"`
	PersonalizeImpressions bool   `koanf:"personalize_impressions"`

	// CORSAllowedOrigins is a comma separated list; "*" allows any origin.
	CORSAllowedOrigins string `koanf:"cors_allowed_origins"`

	// Rate limiting on /analyze, backed by Redis.
	RateLimitEnabled          bool   `koanf:"rate_limit_enabled"`
	RedisAddr                 string `koanf:"redis_addr"`
	RedisPassword             string `koanf:"redis_password"`
	RedisDB                   int    `koanf:"redis_db"`
	RateLimitCapacity         int    `koanf:"rate_limit_capacity"`
	RateLimitRefillTokens     int    `koanf:"rate_limit_refill_tokens"`
	RateLimitRefillIntervalMS int    `koanf:"rate_limit_refill_interval_ms"`
	RateLimitTTLMS            int    `koanf:"rate_limit_ttl_ms"`
	RateLimitPrefix           string `koanf:"rate_limit_prefix"`

	// RateLimitTrustProxy keys buckets on X-Forwarded-For instead of the
	// peer address. Leave off unless a proxy rewrites that header.
	RateLimitTrustProxy bool `koanf:"rate_limit_trust_proxy"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:                  "info",
		LogFormat:                 "text",
		Addr:                      ":9080",
		SheetTimeoutMS:            10_000,
		SheetMaxBytes:             8 << 20,
		IdentityColumns:           1,
		ReservedColumns:           2,
		DuplicatePolicy:           "first",
		PhrasesPath:               "phrases_phq9.json",
		NoRepeatPhrases:           true,
		PersonalizeImpressions:    false,
		CORSAllowedOrigins:        "*",
		RateLimitEnabled:          false,
		RedisAddr:                 "localhost:6379",
		RateLimitCapacity:         60,
		RateLimitRefillTokens:     1,
		RateLimitRefillIntervalMS: 1000,
		RateLimitTTLMS:            600_000,
		RateLimitPrefix:           "phq9:rl",
	}
}

// SheetTimeout returns the per-fetch deadline.
func (c *Config) SheetTimeout() time.Duration {
	return time.Duration(c.SheetTimeoutMS) * time.Millisecond
}

// RateLimitRefillInterval returns the bucket refill period.
func (c *Config) RateLimitRefillInterval() time.Duration {
	return time.Duration(c.RateLimitRefillIntervalMS) * time.Millisecond
}

// RateLimitTTL returns how long idle buckets are kept.
func (c *Config) RateLimitTTL() time.Duration {
	return time.Duration(c.RateLimitTTLMS) * time.Millisecond
}

// AllowedOrigins splits CORSAllowedOrigins into trimmed entries.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
