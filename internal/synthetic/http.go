package synthetic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/phq9/internal/domain/types"
)

// HTTPClient calls the scoring service.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// NewHTTPClient creates a client with the given per-request timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Health checks GET /health.
func (c *HTTPClient) Health(ctx context.Context) error {
	resp, body, err := c.get(ctx, "/health", nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	var payload struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Status != "healthy" {
		return fmt.Errorf("%w: unexpected body %q", ErrUnhealthy, body)
	}
	return nil
}

// Analyze calls GET /analyze for r. A non-200 status is returned as an
// error carrying the service's error code.
func (c *HTTPClient) Analyze(ctx context.Context, r Respondent) (types.Assessment, error) {
	var a types.Assessment
	resp, body, err := c.get(ctx, "/analyze", query(r))
	if err != nil {
		return a, err
	}
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Code string `json:"code"`
		}
		_ = json.Unmarshal(body, &e)
		return a, fmt.Errorf("status %d (%s)", resp.StatusCode, e.Code)
	}
	if err := json.Unmarshal(body, &a); err != nil {
		return a, fmt.Errorf("decode assessment: %w", err)
	}
	return a, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, q url.Values) (*http.Response, []byte, error) {
	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read body: %w", err)
	}
	return resp, body, nil
}

func query(r Respondent) url.Values {
	q := url.Values{}
	if r.ClientName != "" {
		q.Set("client_name", r.ClientName)
		return q
	}
	for k, v := range map[string]string{
		"first_name":  r.First,
		"middle_name": r.Middle,
		"last_name":   r.Last,
		"suffix":      r.Suffix,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}
	return q
}
