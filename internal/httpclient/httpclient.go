// Package httpclient posts JSON to a single endpoint, retrying rate limits
// and server errors.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
	defaultBackoff    = time.Second

	// maxRetryAfter caps a server-requested wait.
	maxRetryAfter = time.Minute

	// errorBodyLimit is how much of a failed response is kept.
	errorBodyLimit = 512
)

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Body       string // at most errorBodyLimit bytes
	retryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed if sent again: rate
// limiting (429) and server errors (5xx).
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// RetryAfter is the wait requested by a 429 response's Retry-After header,
// or 0 when none was given.
func (e *APIError) RetryAfter() time.Duration {
	return e.retryAfter
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-attempt timeout. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.hc.Timeout = d }
}

// WithHeaders sets headers sent with every request.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) { c.headers = h }
}

// WithMaxRetries sets how many times a retryable response is retried.
// Default: 3.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithBackoff sets the first retry delay; each later retry doubles it.
// Default: 1s.
func WithBackoff(base time.Duration) Option {
	return func(c *Client) { c.backoff = base }
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// Client POSTs JSON bodies to a fixed URL.
type Client struct {
	url        string
	headers    map[string]string
	hc         *http.Client
	maxRetries int
	backoff    time.Duration
}

// New creates a Client that posts to url.
func New(url string, opts ...Option) *Client {
	c := &Client{
		url:        url,
		hc:         &http.Client{Timeout: defaultTimeout},
		maxRetries: defaultMaxRetries,
		backoff:    defaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PostJSON sends body as application/json with the client headers plus
// extra. A retryable *APIError is retried up to the configured limit,
// waiting Retry-After when given and exponential backoff otherwise; the
// last one is returned when retries run out. Transport errors are not
// retried.
func (c *Client) PostJSON(ctx context.Context, body []byte, extra map[string]string) error {
	for attempt := 0; ; attempt++ {
		apiErr, err := c.do(ctx, body, extra)
		if err != nil {
			return err
		}
		if apiErr == nil {
			return nil
		}
		if !apiErr.Retryable() || attempt >= c.maxRetries {
			return apiErr
		}

		wait := c.delay(attempt, apiErr)
		slog.Debug("retrying webhook post", "status", apiErr.StatusCode, "attempt", attempt+1, "wait", wait)
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// do sends one request. A non-2xx response is returned as *APIError with
// a nil error.
func (c *Client) do(ctx context.Context, body []byte, extra map[string]string) (*APIError, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range extra {
		req.Header.Set(k, v)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, nil
	}

	snippet, err := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	io.Copy(io.Discard, resp.Body)
	if err != nil {
		return nil, err
	}
	apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(snippet)}
	if resp.StatusCode == http.StatusTooManyRequests {
		apiErr.retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	}
	return apiErr, nil
}

// delay is the wait before retry number attempt+1.
func (c *Client) delay(attempt int, apiErr *APIError) time.Duration {
	if d := apiErr.RetryAfter(); d > 0 {
		return d
	}
	return c.backoff << attempt
}

// parseRetryAfter reads a delay in seconds. HTTP dates are not used by
// Slack and read as 0.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return min(time.Duration(secs)*time.Second, maxRetryAfter)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
