package sheet

import "time"

// Option applies a configuration option to a source.
type Option func(*options)

type options struct {
	timeout   time.Duration
	maxBytes  int64
	userAgent string
}

func defaultOptions() options {
	return options{
		timeout:   DefaultTimeout,
		maxBytes:  DefaultMaxBytes,
		userAgent: DefaultUserAgent,
	}
}

// WithTimeout bounds one fetch, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithMaxBytes caps the body size.
func WithMaxBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBytes = n
		}
	}
}

// WithUserAgent sets the User-Agent header of HTTP fetches.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}
