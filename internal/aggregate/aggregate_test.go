package aggregate

import (
	"math/rand"
	"testing"
	"time"

	"github.com/marketlens/whale-engine/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(classification model.Classification, valueUsd float64, timestamp int64) model.WhaleTransaction {
	return model.WhaleTransaction{
		Hash:           "h",
		Timestamp:      timestamp,
		ValueUsd:       valueUsd,
		Classification: classification,
		Chain:          model.ChainBitcoin,
		Symbol:         "BTC",
	}
}

func TestAggregateEmptyIsNoData(t *testing.T) {
	t.Parallel()

	res := Aggregate(nil, "btc", model.SourceWhaleAlert, time.Now())

	assert.Equal(t, "BTC", res.Symbol)
	assert.Equal(t, model.NetFlowNoData, res.NetFlow)
	assert.Equal(t, model.SourceDerived, res.Source)
	assert.False(t, res.IsLive)
	assert.Zero(t, res.TransactionCount)
	assert.Zero(t, res.DataAgeMs)
	assert.NotNil(t, res.SampleTransactions)
	assert.Equal(t, model.TimeWindow24h, res.TimeWindow)
}

func TestAggregateNetBuying(t *testing.T) {
	t.Parallel()

	now := time.Now()
	oldest := now.Add(-2 * time.Hour).UnixMilli()
	txs := []model.WhaleTransaction{
		tx(model.ClassificationBuy, 25_000_000, now.Add(-time.Hour).UnixMilli()),
		tx(model.ClassificationBuy, 15_000_000, oldest),
		tx(model.ClassificationSell, 10_000_000, now.Add(-time.Minute).UnixMilli()),
	}

	res := Aggregate(txs, "BTC", model.SourceBlockchainAPI, now)

	assert.Equal(t, 80, res.BuyingPercent)
	assert.Equal(t, 20, res.SellingPercent)
	assert.Equal(t, model.NetFlowBuying, res.NetFlow)
	assert.Equal(t, 40_000_000.0, res.TotalBuyVolumeUsd)
	assert.Equal(t, 10_000_000.0, res.TotalSellVolumeUsd)
	assert.Equal(t, 3, res.TransactionCount)
	assert.Equal(t, 25_000_000.0, res.LargestTransactionUsd)
	assert.Equal(t, model.SourceBlockchainAPI, res.Source)
	assert.True(t, res.IsLive)
	assert.Equal(t, now.UnixMilli()-oldest, res.DataAgeMs)
}

func TestAggregateAllTransfersIsBalanced(t *testing.T) {
	t.Parallel()

	now := time.Now()
	txs := []model.WhaleTransaction{
		tx(model.ClassificationTransfer, 5_000_000, now.UnixMilli()),
		tx(model.ClassificationTransfer, 3_000_000, now.UnixMilli()),
	}

	res := Aggregate(txs, "BTC", model.SourceBlockchainAPI, now)

	assert.Zero(t, res.BuyingPercent)
	assert.Zero(t, res.SellingPercent)
	assert.Equal(t, model.NetFlowBalanced, res.NetFlow)
	assert.Equal(t, 5_000_000.0, res.LargestTransactionUsd)
	assert.True(t, res.IsLive)
}

func TestAggregateSampleCap(t *testing.T) {
	t.Parallel()

	now := time.Now()
	txs := make([]model.WhaleTransaction, 0, 25)
	for i := 0; i < 25; i++ {
		txs = append(txs, tx(model.ClassificationBuy, 2_000_000, now.UnixMilli()))
	}

	res := Aggregate(txs, "BTC", model.SourceBlockchainAPI, now)

	assert.Equal(t, 25, res.TransactionCount)
	assert.Len(t, res.SampleTransactions, model.MaxSampleTransactions)
	assert.Equal(t, txs[0], res.SampleTransactions[0])
}

func TestClassifyFlowBands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		buy  int
		sell int
		want model.NetFlow
	}{
		{"strong buying", 80, 20, model.NetFlowBuying},
		{"strong selling", 15, 85, model.NetFlowSelling},
		{"dead even", 50, 50, model.NetFlowBalanced},
		{"inside balance band", 54, 46, model.NetFlowBalanced},
		{"between bands", 60, 40, model.NetFlowMixed},
		{"exactly at dominance margin", 60, 40, model.NetFlowMixed},
		{"just over dominance margin", 61, 40, model.NetFlowBuying},
		{"at balance band edge", 55, 45, model.NetFlowMixed},
		{"all transfers", 0, 0, model.NetFlowBalanced},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, classifyFlow(tt.buy, tt.sell))
		})
	}
}

// Band rules restated independently; random pairs must agree with the
// implementation and always land in exactly one band.
func TestClassifyFlowDeterminismProperty(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10_000; i++ {
		buy := rng.Intn(101)
		sell := rng.Intn(101)

		got := classifyFlow(buy, sell)
		require.Equal(t, got, classifyFlow(buy, sell))

		var want model.NetFlow
		switch {
		case buy > sell+20:
			want = model.NetFlowBuying
		case sell > buy+20:
			want = model.NetFlowSelling
		case abs(buy-sell) < 10:
			want = model.NetFlowBalanced
		default:
			want = model.NetFlowMixed
		}
		require.Equal(t, want, got, "buy=%d sell=%d", buy, sell)
	}
}

func TestPercentsBounds(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 1_000; i++ {
		buy := rng.Float64() * 1e9
		sell := rng.Float64() * 1e9

		buyPercent, sellPercent := percents(buy, sell)
		require.GreaterOrEqual(t, buyPercent, 0)
		require.LessOrEqual(t, buyPercent, 100)
		require.GreaterOrEqual(t, sellPercent, 0)
		require.LessOrEqual(t, sellPercent, 100)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
