// Package aggregate reduces a whale-transaction list into the
// confidence-scored activity result. Pure computation, no I/O.
package aggregate

import (
	"math"
	"time"

	"github.com/marketlens/whale-engine/internal/domain/model"
	"github.com/marketlens/whale-engine/internal/metrics"
)

const (
	// dominanceMargin is the percentage-point lead required for a
	// directional NET_BUYING / NET_SELLING call.
	dominanceMargin = 20
	// balanceBand is the symmetry band below which flow reads BALANCED.
	// Spreads between the two bands report MIXED.
	balanceBand = 10
)

// Aggregate reduces transactions for one symbol into a result. src is
// the label of the source that produced the list; an empty list always
// yields the derived NO_DATA result regardless of src.
func Aggregate(txs []model.WhaleTransaction, symbol string, src model.SourceLabel, now time.Time) model.WhaleActivityResult {
	symbol = model.NormalizeSymbol(symbol)
	if len(txs) == 0 {
		return model.WhaleActivityResult{
			Symbol:             symbol,
			NetFlow:            model.NetFlowNoData,
			TimeWindow:         model.TimeWindow24h,
			Source:             model.SourceDerived,
			SampleTransactions: []model.WhaleTransaction{},
			IsLive:             false,
		}
	}

	var (
		buyVolume  float64
		sellVolume float64
		largest    float64
		oldest     = txs[0].Timestamp
	)
	for _, tx := range txs {
		switch tx.Classification {
		case model.ClassificationBuy:
			buyVolume += tx.ValueUsd
		case model.ClassificationSell:
			sellVolume += tx.ValueUsd
		}
		if tx.ValueUsd > largest {
			largest = tx.ValueUsd
		}
		if tx.Timestamp < oldest {
			oldest = tx.Timestamp
		}
	}

	buyPercent, sellPercent := percents(buyVolume, sellVolume)

	samples := txs
	if len(samples) > model.MaxSampleTransactions {
		samples = samples[:model.MaxSampleTransactions]
	}

	dataAge := now.UnixMilli() - oldest
	if dataAge < 0 {
		dataAge = 0
	}

	return model.WhaleActivityResult{
		Symbol:                symbol,
		BuyingPercent:         buyPercent,
		SellingPercent:        sellPercent,
		NetFlow:               classifyFlow(buyPercent, sellPercent),
		TotalBuyVolumeUsd:     buyVolume,
		TotalSellVolumeUsd:    sellVolume,
		TransactionCount:      len(txs),
		LargestTransactionUsd: largest,
		TimeWindow:            model.TimeWindow24h,
		Source:                src,
		SampleTransactions:    samples,
		IsLive:                true,
		DataAgeMs:             dataAge,
	}
}

// percents splits directional volume into rounded 0-100 shares. TRANSFER
// volume is excluded, so the two need not sum to 100.
func percents(buyVolume, sellVolume float64) (int, int) {
	total := buyVolume + sellVolume
	if total <= 0 {
		return 0, 0
	}
	return int(math.Round(100 * buyVolume / total)), int(math.Round(100 * sellVolume / total))
}

// classifyFlow maps a percentage pair onto the net-flow bands. All-zero
// input (pure TRANSFER volume) reads BALANCED.
func classifyFlow(buyPercent, sellPercent int) model.NetFlow {
	spread := buyPercent - sellPercent
	switch {
	case spread > dominanceMargin:
		return model.NetFlowBuying
	case -spread > dominanceMargin:
		return model.NetFlowSelling
	case spread < balanceBand && -spread < balanceBand:
		return model.NetFlowBalanced
	default:
		return model.NetFlowMixed
	}
}

// Observe records aggregation metrics for a computed result.
func Observe(res model.WhaleActivityResult, txs []model.WhaleTransaction) {
	metrics.ResultsTotal.WithLabelValues(res.NetFlow.String()).Inc()
	for _, tx := range txs {
		metrics.TransactionsObserved.WithLabelValues(tx.Chain.String(), string(tx.Classification)).Inc()
	}
}
