package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/marketlens/whale-engine/internal/metrics"
	"github.com/marketlens/whale-engine/internal/ratelimit"
)

const (
	defaultMaxRetries     = 3
	defaultBaseDelay      = 1 * time.Second
	defaultAttemptTimeout = 10 * time.Second
	maxJitter             = 500 * time.Millisecond
	maxResponseBodyBytes  = 16 << 20 // 16 MB
)

// Client wraps outbound HTTP calls to one data source with a per-attempt
// timeout, retry on HTTP 429/5xx and network faults, and exponential
// backoff with jitter so concurrent requests do not retry in lockstep.
type Client struct {
	httpClient *http.Client
	source     string
	logger     *slog.Logger
	limiter    *ratelimit.Limiter

	maxRetries int
	baseDelay  time.Duration
	timeout    time.Duration

	jitterFn func() time.Duration
	sleepFn  func(ctx context.Context, d time.Duration) error
}

type Option func(*Client)

func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) { c.baseDelay = d }
}

func WithAttemptTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient creates a fetch client for the named source.
func NewClient(source string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		httpClient: &http.Client{},
		source:     source,
		logger:     logger.With("component", "fetch", "source", source),
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		timeout:    defaultAttemptTimeout,
		jitterFn: func() time.Duration {
			return time.Duration(rand.Int63n(int64(maxJitter)))
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Source returns the name of the source this client talks to.
func (c *Client) Source() string {
	return c.source
}

// Get issues a GET and returns the response body.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, url, "", nil)
}

// GetJSON issues a GET and decodes the JSON response into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("source %s: decode response: %w", c.source, err)
	}
	return nil
}

// PostJSON issues a POST with a JSON payload and returns the response body.
func (c *Client) PostJSON(ctx context.Context, url string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("source %s: marshal request: %w", c.source, err)
	}
	return c.do(ctx, http.MethodPost, url, "application/json", body)
}

// do runs the retry loop. Attempt n (0-indexed) sleeps
// baseDelay * 2^n + uniformJitter(0..500ms) before the next attempt.
// Only 429, 5xx, and network-level faults are retried; any other status
// returns a StatusError immediately. Exhaustion yields a typed
// SourceUnavailableError carrying the last status or error.
func (c *Client) do(ctx context.Context, method, url, contentType string, body []byte) ([]byte, error) {
	var lastStatus int
	var lastErr error

	attempts := c.maxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := c.backoffDelay(attempt - 1)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		respBody, status, err := c.attempt(ctx, method, url, contentType, body)
		if err == nil && status == 0 {
			return respBody, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if err != nil {
			if !retryable(err) {
				return nil, fmt.Errorf("source %s: %w", c.source, err)
			}
			lastErr = err
			lastStatus = 0
			metrics.FetchRetriesTotal.WithLabelValues(c.source, "network").Inc()
			c.logger.Warn("attempt failed; retrying",
				"attempt", attempt+1,
				"error", err,
			)
			continue
		}

		// status is set: decide between retryable and terminal statuses.
		if status == http.StatusTooManyRequests || status >= 500 {
			lastStatus = status
			lastErr = nil
			metrics.FetchRetriesTotal.WithLabelValues(c.source, statusReason(status)).Inc()
			c.logger.Warn("retryable status; retrying",
				"attempt", attempt+1,
				"status", status,
			)
			continue
		}

		return nil, &StatusError{Source: c.source, Status: status}
	}

	c.logger.Error("retries exhausted",
		"attempts", attempts,
		"last_status", lastStatus,
		"last_error", lastErr,
	)
	return nil, &SourceUnavailableError{Source: c.source, Status: lastStatus, Err: lastErr}
}

// attempt performs one HTTP round trip under the per-attempt timeout.
// On success it returns (body, 0, nil); a non-2xx response returns
// (nil, status, nil); transport failure returns (nil, 0, err).
func (c *Client) attempt(ctx context.Context, method, url, contentType string, body []byte) ([]byte, int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, err
		}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, url, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.FetchRequestsTotal.WithLabelValues(c.source, "error").Inc()
		return nil, 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	metrics.FetchRequestsTotal.WithLabelValues(c.source, statusClass(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, resp.StatusCode, nil
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	return respBody, 0, nil
}

func (c *Client) backoffDelay(n int) time.Duration {
	delay := c.baseDelay << uint(n)
	if c.jitterFn != nil {
		delay += c.jitterFn()
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	if c.sleepFn != nil {
		return c.sleepFn(ctx, d)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func statusReason(status int) string {
	if status == http.StatusTooManyRequests {
		return "rate_limited"
	}
	return "server_error"
}

func statusClass(status int) string {
	switch {
	case status >= 200 && status <= 299:
		return "2xx"
	case status == http.StatusTooManyRequests:
		return "429"
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "other"
	}
}
