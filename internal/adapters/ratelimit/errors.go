package ratelimit

import "errors"

// Sentinel kinds for limiter errors.
var (
	ErrUnavailable   = errors.New("rate limit store unavailable")
	ErrUnexpectedRes = errors.New("unexpected rate limit script result")
)
