// Package utxo adapts Bitcoin-style block explorers. It walks the most
// recent confirmed blocks, converts each transaction's total output value
// to USD with the caller's price hint, and keeps only whale-sized
// transfers.
package utxo

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/marketlens/whale-engine/internal/domain/model"
	"github.com/marketlens/whale-engine/internal/source"
	"github.com/marketlens/whale-engine/internal/source/utxo/rest"
	"golang.org/x/sync/errgroup"
)

const (
	// SourceName identifies this adapter in orchestrator ordering and metrics.
	SourceName = "utxo-explorer"

	// recentBlockCount covers roughly one hour of Bitcoin blocks.
	recentBlockCount = 6

	// maxTransactions bounds response size and processing cost per call.
	maxTransactions = 50

	satoshiPerCoin = 100_000_000
)

type Adapter struct {
	client rest.RESTClient
	logger *slog.Logger
	blocks int
}

var _ source.Source = (*Adapter)(nil)

type AdapterOption func(*Adapter)

// WithRecentBlockCount overrides how many confirmed blocks are walked.
func WithRecentBlockCount(n int) AdapterOption {
	return func(a *Adapter) {
		if n > 0 {
			a.blocks = n
		}
	}
}

func NewAdapter(client rest.RESTClient, logger *slog.Logger, opts ...AdapterOption) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Adapter{
		client: client,
		logger: logger.With("source", SourceName),
		blocks: recentBlockCount,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

func (a *Adapter) Name() string {
	return SourceName
}

type sequencedTx struct {
	tx      model.WhaleTransaction
	height  int64
	txIndex int
}

func (a *Adapter) Fetch(ctx context.Context, q source.Query) ([]model.WhaleTransaction, error) {
	if q.PriceUsd <= 0 {
		// Without a price hint satoshi values cannot be thresholded in USD.
		a.logger.Warn("no price hint; cannot convert native values", "symbol", q.Symbol)
		return []model.WhaleTransaction{}, nil
	}

	summaries, err := a.client.GetRecentBlocks(ctx)
	if err != nil {
		return nil, err
	}
	if len(summaries) > a.blocks {
		summaries = summaries[:a.blocks]
	}
	if len(summaries) == 0 {
		a.logger.Info("explorer returned no recent blocks")
		return []model.WhaleTransaction{}, nil
	}

	// Block fetches are independent reads; run them concurrently but merge
	// deterministically by height so output ordering does not depend on
	// which fetch finishes first.
	var mu sync.Mutex
	candidates := make([]sequencedTx, 0, maxTransactions)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(recentBlockCount)
	for _, summary := range summaries {
		blockHash := summary.Hash
		g.Go(func() error {
			block, err := a.client.GetBlock(gCtx, blockHash)
			if err != nil {
				return err
			}
			found := a.extractWhales(block, q)
			mu.Lock()
			candidates = append(candidates, found...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].height != candidates[j].height {
			return candidates[i].height > candidates[j].height
		}
		return candidates[i].txIndex < candidates[j].txIndex
	})
	if len(candidates) > maxTransactions {
		candidates = candidates[:maxTransactions]
	}

	txs := make([]model.WhaleTransaction, len(candidates))
	for i, c := range candidates {
		txs[i] = c.tx
	}

	a.pollUnconfirmed(ctx, q)

	a.logger.Info("fetched whale transactions",
		"symbol", q.Symbol,
		"blocks", len(summaries),
		"count", len(txs),
	)
	return txs, nil
}

// extractWhales walks one block's transactions and keeps whale-sized ones.
func (a *Adapter) extractWhales(block *rest.Block, q source.Query) []sequencedTx {
	if block == nil {
		return nil
	}

	var found []sequencedTx
	for txIndex, tx := range block.Tx {
		if tx == nil || tx.Hash == "" {
			continue
		}

		totalOutSat := int64(0)
		for _, out := range tx.Out {
			if out == nil {
				continue
			}
			totalOutSat += out.Value
		}

		native := float64(totalOutSat) / satoshiPerCoin
		valueUsd := native * q.PriceUsd
		if valueUsd < model.MinWhaleValueUsd {
			continue
		}

		timestamp := tx.Time
		if timestamp <= 0 {
			timestamp = block.Time
		}

		from := firstInputAddress(tx)
		to := largestOutputAddress(tx)
		found = append(found, sequencedTx{
			height:  block.Height,
			txIndex: txIndex,
			tx: model.WhaleTransaction{
				Hash:           tx.Hash,
				Timestamp:      timestamp * 1000,
				ValueUsd:       valueUsd,
				ValueNative:    native,
				FromAddress:    from,
				ToAddress:      to,
				Classification: model.Classify(from, to, q.Exchanges),
				Chain:          q.Chain,
				Symbol:         model.NormalizeSymbol(q.Symbol),
			},
		})
	}
	return found
}

// pollUnconfirmed samples the mempool for whale-sized transfers. Those
// are unconfirmed and lower-confidence, so they only inform logging and
// metrics, never the returned transaction list.
func (a *Adapter) pollUnconfirmed(ctx context.Context, q source.Query) {
	mempool, err := a.client.GetUnconfirmedTransactions(ctx)
	if err != nil {
		a.logger.Debug("unconfirmed pool unavailable", "error", err)
		return
	}

	pending := 0
	for _, tx := range mempool {
		if tx == nil {
			continue
		}
		totalOutSat := int64(0)
		for _, out := range tx.Out {
			if out == nil {
				continue
			}
			totalOutSat += out.Value
		}
		if float64(totalOutSat)/satoshiPerCoin*q.PriceUsd >= model.MinWhaleValueUsd {
			pending++
		}
	}
	if pending > 0 {
		a.logger.Info("whale-sized transfers pending in mempool", "count", pending)
	}
}

func firstInputAddress(tx *rest.Tx) string {
	for _, in := range tx.Inputs {
		if in == nil || in.PrevOut == nil {
			continue
		}
		if in.PrevOut.Addr != "" {
			return in.PrevOut.Addr
		}
	}
	return model.UnknownAddress
}

func largestOutputAddress(tx *rest.Tx) string {
	best := model.UnknownAddress
	bestValue := int64(-1)
	for _, out := range tx.Out {
		if out == nil || out.Addr == "" {
			continue
		}
		if out.Value > bestValue {
			best = out.Addr
			bestValue = out.Value
		}
	}
	return best
}
