package whalealert

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/marketlens/whale-engine/internal/domain/model"
	"github.com/marketlens/whale-engine/internal/fetch"
	"github.com/marketlens/whale-engine/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
}

func btcQuery() source.Query {
	return source.Query{Symbol: "BTC", Chain: model.ChainBitcoin}
}

func newTestAdapter(t *testing.T, handler http.HandlerFunc, apiKey string) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := fetch.NewClient(SourceName, nil, fetch.WithMaxRetries(0))
	return NewAdapter(client, srv.URL, apiKey, nil, WithNowFunc(fixedNow))
}

func TestFetchParsesProviderPayload(t *testing.T) {
	t.Parallel()

	var gotQuery atomic.Value
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query().Encode())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"result": "success",
			"count": 3,
			"transactions": [
				{
					"blockchain": "bitcoin", "symbol": "btc", "hash": "abc123",
					"from": {"address": "1FromAddr", "owner": "binance", "owner_type": "exchange"},
					"to": {"address": "1ToAddr", "owner_type": "unknown"},
					"timestamp": 1756200000, "amount": 50, "amount_usd": 3250000
				},
				{
					"blockchain": "bitcoin", "symbol": "btc", "hash": "def456",
					"from": {"address": ""},
					"to": {"address": "1Custody", "owner_type": "exchange"},
					"timestamp": 1756201000, "amount": 31, "amount_usd": 2015000
				},
				{
					"blockchain": "bitcoin", "symbol": "btc", "hash": "",
					"from": {}, "to": {},
					"timestamp": 1756202000, "amount": 99, "amount_usd": 6435000
				}
			]
		}`))
	}, "test-key")

	txs, err := adapter.Fetch(context.Background(), btcQuery())
	require.NoError(t, err)
	require.Len(t, txs, 2)

	query := gotQuery.Load().(string)
	assert.Contains(t, query, "api_key=test-key")
	assert.Contains(t, query, "min_value=1000000")
	assert.Contains(t, query, "currency=btc")
	assert.Contains(t, query, "start=")

	assert.Equal(t, "abc123", txs[0].Hash)
	assert.Equal(t, int64(1756200000_000), txs[0].Timestamp)
	assert.Equal(t, model.ClassificationBuy, txs[0].Classification)
	assert.Equal(t, 3_250_000.0, txs[0].ValueUsd)
	assert.Equal(t, "1FromAddr", txs[0].FromAddress)

	assert.Equal(t, model.ClassificationSell, txs[1].Classification)
	assert.Equal(t, model.UnknownAddress, txs[1].FromAddress)
}

func TestFetchWithoutAnyKeySkips(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}, "")

	txs, err := adapter.Fetch(context.Background(), btcQuery())

	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Equal(t, int64(0), calls.Load())
}

func TestFetchUsesRequestKeyOverride(t *testing.T) {
	t.Parallel()

	var gotKey atomic.Value
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey.Store(r.URL.Query().Get("api_key"))
		w.Write([]byte(`{"result": "success", "transactions": []}`))
	}, "env-key")

	q := btcQuery()
	q.APIKey = "request-key"
	_, err := adapter.Fetch(context.Background(), q)

	require.NoError(t, err)
	assert.Equal(t, "request-key", gotKey.Load())
}

func TestEligible(t *testing.T) {
	t.Parallel()

	withKey := NewAdapter(nil, "http://example.invalid", "k", nil)
	withoutKey := NewAdapter(nil, "http://example.invalid", "", nil)

	assert.True(t, withKey.Eligible(btcQuery()))
	assert.False(t, withoutKey.Eligible(btcQuery()))

	q := btcQuery()
	q.APIKey = "per-request"
	assert.True(t, withoutKey.Eligible(q))
}

func TestFetchRejectedQueryIsNoData(t *testing.T) {
	t.Parallel()

	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"result":"error"}`, http.StatusUnauthorized)
	}, "bad-key")

	txs, err := adapter.Fetch(context.Background(), btcQuery())

	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestFetchTransportFailurePropagates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	client := fetch.NewClient(SourceName, nil, fetch.WithMaxRetries(1), fetch.WithBaseDelay(time.Millisecond))
	adapter := NewAdapter(client, srv.URL, "key", nil, WithNowFunc(fixedNow))

	_, err := adapter.Fetch(context.Background(), btcQuery())

	assert.True(t, fetch.IsSourceUnavailable(err))
}
