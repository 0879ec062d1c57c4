package blockchair

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/marketlens/whale-engine/internal/domain/model"
	"github.com/marketlens/whale-engine/internal/fetch"
	"github.com/marketlens/whale-engine/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchAllowListShortCircuit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	adapter := NewAdapter(fetch.NewClient(SourceName, nil), srv.URL, nil)
	txs, err := adapter.Fetch(context.Background(), source.Query{Symbol: "SOL", Chain: model.ChainSolana})

	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Equal(t, int32(0), calls.Load(), "disallowed chain must not hit the network")
}

func TestFetchParsesServerFilteredRows(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bitcoin/transactions", r.URL.Path)
		assert.Contains(t, r.URL.RawQuery, "output_total_usd%281000000..%29")
		fmt.Fprint(w, `{"data":[
			{"hash":"h1","time":"2024-05-01 12:00:00","output_total":20000000000,"output_total_usd":12000000,"sender":"34xp4vRoCGJym3xR7yCVPFHoCNxv4Twseo","recipient":"1Whale"},
			{"hash":"h2","time":"2024-05-01 11:00:00","output_total":5000000000,"output_total_usd":3000000,"sender":"","recipient":""},
			{"hash":"","time":"2024-05-01 10:00:00","output_total":1,"output_total_usd":9000000},
			{"hash":"h4","time":"not-a-time","output_total":1,"output_total_usd":9000000}
		]}`)
	}))
	defer srv.Close()

	adapter := NewAdapter(fetch.NewClient(SourceName, nil), srv.URL, nil)
	q := source.Query{
		Symbol:    "BTC",
		Chain:     model.ChainBitcoin,
		Exchanges: model.NewAddressSet("34xp4vRoCGJym3xR7yCVPFHoCNxv4Twseo"),
	}
	txs, err := adapter.Fetch(context.Background(), q)

	require.NoError(t, err)
	require.Len(t, txs, 2, "rows with missing hash or unparseable time are skipped")

	assert.Equal(t, "h1", txs[0].Hash)
	assert.Equal(t, model.ClassificationBuy, txs[0].Classification)
	assert.InDelta(t, 200.0, txs[0].ValueNative, 1e-9, "satoshi converted to BTC")

	assert.Equal(t, "h2", txs[1].Hash)
	assert.Equal(t, model.UnknownAddress, txs[1].FromAddress)
	assert.Equal(t, model.ClassificationTransfer, txs[1].Classification)
}

func TestFetchTreatsRejectedQueryAsNoData(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	adapter := NewAdapter(fetch.NewClient(SourceName, nil), srv.URL, nil)
	txs, err := adapter.Fetch(context.Background(), source.Query{Symbol: "BTC", Chain: model.ChainBitcoin})

	require.NoError(t, err, "4xx means no data for this query, not transport failure")
	assert.Empty(t, txs)
}

func TestSupports(t *testing.T) {
	t.Parallel()

	adapter := NewAdapter(fetch.NewClient(SourceName, nil), "http://localhost", nil)

	assert.True(t, adapter.Supports(model.ChainBitcoin))
	assert.True(t, adapter.Supports(model.ChainCardano))
	assert.False(t, adapter.Supports(model.ChainSolana))
	assert.False(t, adapter.Supports(model.ChainBSC))
}
