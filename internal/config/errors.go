package config

import "errors"

var (
	// ErrInvalidConfig marks a value that loaded but failed Validate.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrLoadConfig marks a layer (file, .env, env) that could not be read or decoded.
	ErrLoadConfig = errors.New("load configuration")
)
