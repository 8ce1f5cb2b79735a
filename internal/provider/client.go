// Package provider fetches ticker data from upstream REST APIs.
//
// Every provider exposes its upstreams as an ordered list of Sources. Cached
// wraps such a list with the shared cache store, trying sources in order and
// caching fallback results for half the category TTL.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout bounds every upstream request.
const DefaultTimeout = 10 * time.Second

var (
	// ErrUnexpectedStatus is returned for non-2xx upstream responses.
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrNoData is returned when a response parses but carries nothing usable.
	ErrNoData = errors.New("no usable data in response")
	// ErrNotConfigured is returned by sources missing credentials or location.
	ErrNotConfigured = errors.New("provider not configured")
)

const maxBodySize = 1 << 20

// Client performs JSON GET requests with a bounded timeout.
type Client struct {
	http      *http.Client
	timeout   time.Duration
	userAgent string
}

// NewClient creates a client. A non-positive timeout uses DefaultTimeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		timeout:   timeout,
		userAgent: "raspi-info-ticker/1.0",
	}
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// GetJSON fetches rawURL with the given query and headers and decodes the
// JSON body into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, headers map[string]string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", u.Host, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, resp.StatusCode, u.Host)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", u.Host, err)
	}
	return nil
}
