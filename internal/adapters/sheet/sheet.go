// Package sheet fetches the questionnaire response export.
package sheet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/okian/phq9/internal/domain/model"
	"github.com/okian/phq9/pkg/metrics"
)

// Defaults for sources.
const (
	DefaultTimeout   = 10 * time.Second
	DefaultMaxBytes  = 8 << 20
	DefaultUserAgent = "phq9-analyzer/1.0"
)

// Source yields a fresh copy of the response table on every call.
type Source interface {
	Fetch(ctx context.Context) (model.Table, error)
	Describe() string
}

// New picks a source for location: http(s) URLs fetch over the network,
// file:// URLs and plain paths read from disk.
func New(location string, opts ...Option) (Source, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, ErrNoSheet
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	u, err := url.Parse(location)
	if err == nil {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return newHTTPSource(location, o), nil
		case "file":
			return &FileSource{path: u.Path, maxBytes: o.maxBytes}, nil
		}
	}
	return &FileSource{path: location, maxBytes: o.maxBytes}, nil
}

// HTTPSource downloads a CSV export over HTTP.
type HTTPSource struct {
	url       string
	client    *http.Client
	timeout   time.Duration
	maxBytes  int64
	userAgent string
}

func newHTTPSource(u string, o options) *HTTPSource {
	return &HTTPSource{
		url:       u,
		client:    &http.Client{Timeout: o.timeout},
		timeout:   o.timeout,
		maxBytes:  o.maxBytes,
		userAgent: o.userAgent,
	}
}

// Describe returns the URL without credentials or query, either of which
// may carry a key.
func (s *HTTPSource) Describe() string {
	u, err := url.Parse(s.url)
	if err != nil {
		return "http"
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context) (model.Table, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return model.Table{}, fmt.Errorf("%w: build request: %w", ErrFetch, s.redact(err))
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		return model.Table{}, fmt.Errorf("%w: %w", ErrFetch, s.redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return model.Table{}, fmt.Errorf("%w: unexpected status %d", ErrFetch, resp.StatusCode)
	}

	body, err := readCapped(resp.Body, s.maxBytes)
	if err != nil {
		return model.Table{}, err
	}
	return Parse(bytes.NewReader(body))
}

// redact replaces the URL inside a *url.Error with Describe so the query
// never reaches logs or responses.
func (s *HTTPSource) redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = s.Describe()
	}
	return err
}

// FileSource reads a CSV export from disk.
type FileSource struct {
	path     string
	maxBytes int64
}

// Describe implements Source.
func (s *FileSource) Describe() string { return "file:" + s.path }

// Fetch implements Source.
func (s *FileSource) Fetch(ctx context.Context) (model.Table, error) {
	if err := ctx.Err(); err != nil {
		return model.Table{}, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	f, err := os.Open(s.path)
	if err != nil {
		return model.Table{}, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer f.Close()

	body, err := readCapped(f, s.maxBytes)
	if err != nil {
		return model.Table{}, err
	}
	return Parse(bytes.NewReader(body))
}

func readCapped(r io.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrFetch, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrFetch, limit)
	}
	metrics.UpdateSheetBytes(len(body))
	return body, nil
}

// IsTimeout reports whether err came from an expired fetch deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
