package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/phq9/internal/domain/model"
)

// Environment knobs read before koanf runs.
const (
	EnvPrefix     = "PHQ9_"
	EnvConfigFile = "PHQ9_CONFIG"
	EnvDotenvFile = "PHQ9_DOTENV"
	defaultDotenv = ".env"
)

// Load builds a Config by layering defaults, optional file, .env and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if PHQ9_CONFIG is set
//  3. .env file (PHQ9_DOTENV, default ".env") if present
//  4. env (prefix PHQ9_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	if err := loadDotenv(k); err != nil {
		return nil, err
	}

	// PHQ9_SHEET_URL -> sheet_url (flat keys, underscores kept)
	envProvider := env.Provider(EnvPrefix, ".", envKey)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
}

// loadDotenv copies PHQ9_ entries of the .env file into k. The process
// environment is left untouched and still wins in the next layer.
func loadDotenv(k *koanf.Koanf) error {
	path := os.Getenv(EnvDotenvFile)
	explicit := path != ""
	if !explicit {
		path = defaultDotenv
	}
	vals, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: dotenv %s: %w", ErrLoadConfig, path, err)
	}
	for key, val := range vals {
		if !strings.HasPrefix(key, EnvPrefix) || key == EnvConfigFile || key == EnvDotenvFile {
			continue
		}
		if err := k.Set(envKey(key), val); err != nil {
			return fmt.Errorf("%w: dotenv %s: %w", ErrLoadConfig, key, err)
		}
	}
	return nil
}

// Validate checks cross-field rules.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.SheetTimeoutMS <= 0 {
		return fmt.Errorf("%w: sheet_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.SheetMaxBytes <= 0 {
		return fmt.Errorf("%w: sheet_max_bytes must be positive", ErrInvalidConfig)
	}
	layout := model.Layout{IdentityColumns: c.IdentityColumns, ReservedColumns: c.ReservedColumns}
	if err := layout.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := model.ParseDuplicatePolicy(c.DuplicatePolicy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.RateLimitEnabled {
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis_addr is required when rate limiting is enabled", ErrInvalidConfig)
		}
		if c.RateLimitCapacity <= 0 || c.RateLimitRefillTokens <= 0 || c.RateLimitRefillIntervalMS <= 0 {
			return fmt.Errorf("%w: rate limit capacity, refill tokens and interval must be positive", ErrInvalidConfig)
		}
	}
	return nil
}
