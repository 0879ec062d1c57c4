package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	c := NewClient("test-source", nil, opts...)
	c.jitterFn = func() time.Duration { return 0 }
	c.sleepFn = func(ctx context.Context, d time.Duration) error { return nil }
	return c
}

func TestGetRetriesRateLimitThenSucceeds(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	c := newTestClient(t, WithMaxRetries(3))
	body, err := c.Get(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, int32(4), calls.Load(), "retried exactly maxRetries times")
}

func TestGetDoesNotRetryNotFound(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, WithMaxRetries(3))
	_, err := c.Get(context.Background(), srv.URL)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Status)
	assert.Equal(t, int32(1), calls.Load(), "404 must not be retried")
	assert.False(t, IsSourceUnavailable(err))
}

func TestGetExhaustsRetriesOnServerError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, WithMaxRetries(2))
	_, err := c.Get(context.Background(), srv.URL)

	var unavailable *SourceUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, http.StatusBadGateway, unavailable.Status)
	assert.Equal(t, "test-source", unavailable.Source)
	assert.Equal(t, int32(3), calls.Load())
	assert.True(t, IsSourceUnavailable(err))
}

func TestGetRetriesNetworkFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := newTestClient(t, WithMaxRetries(1))
	_, err := c.Get(context.Background(), srv.URL)

	var unavailable *SourceUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, 0, unavailable.Status)
	require.Error(t, unavailable.Err)
}

func TestGetHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := NewClient("test-source", nil, WithMaxRetries(5))
	c.jitterFn = func() time.Duration { return 0 }
	c.sleepFn = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := c.Get(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPostJSONSendsPayload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"result":42}`)
	}))
	defer srv.Close()

	c := newTestClient(t)
	body, err := c.PostJSON(context.Background(), srv.URL, map[string]any{"method": "eth_blockNumber"})

	require.NoError(t, err)
	assert.Contains(t, string(body), `"result":42`)
}

func TestBackoffDelayGrowsExponentially(t *testing.T) {
	t.Parallel()

	c := NewClient("test-source", nil, WithBaseDelay(100*time.Millisecond))
	c.jitterFn = func() time.Duration { return 0 }

	assert.Equal(t, 100*time.Millisecond, c.backoffDelay(0))
	assert.Equal(t, 200*time.Millisecond, c.backoffDelay(1))
	assert.Equal(t, 400*time.Millisecond, c.backoffDelay(2))
}

func TestRetryableClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"connection reset", errors.New("read tcp: connection reset by peer"), true},
		{"dns failure", errors.New("dial tcp: lookup api.example.com: no such host"), true},
		{"deadline", errors.New("context deadline exceeded"), true},
		{"plain failure", errors.New("invalid payload shape"), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.retryable, retryable(tc.err))
		})
	}
}
