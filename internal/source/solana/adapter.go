// Package solana scans recent Solana blocks for whale-sized transfers.
//
// Native SOL moves through system program "transfer" instructions; SPL
// tokens with a known mint move through spl-token "transferChecked".
// Both are decoded from jsonParsed blocks, so no account-layout parsing
// happens client side.
package solana

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"github.com/marketlens/whale-engine/internal/domain/model"
	"github.com/marketlens/whale-engine/internal/source"
	"github.com/marketlens/whale-engine/internal/source/solana/rpc"
	"golang.org/x/sync/errgroup"
)

const (
	// SourceName identifies this adapter in orchestrator ordering and metrics.
	SourceName = "solana-rpc"

	scanSlots          = 20
	maxTransactions    = 50
	maxConcurrentSlots = 4
	lamportsPerSol     = 1e9
)

// stablecoinSymbols may assume a 1 USD price when no hint is supplied.
var stablecoinSymbols = map[string]bool{
	"USDT": true,
	"USDC": true,
}

type Adapter struct {
	client rpc.RPCClient
	mints  model.SPLMints
	logger *slog.Logger
}

var _ source.Source = (*Adapter)(nil)

func NewAdapter(client rpc.RPCClient, mints model.SPLMints, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		client: client,
		mints:  mints,
		logger: logger.With("source", SourceName),
	}
}

func (a *Adapter) Name() string {
	return SourceName
}

func (a *Adapter) Fetch(ctx context.Context, q source.Query) ([]model.WhaleTransaction, error) {
	if a.client == nil {
		a.logger.Debug("no rpc endpoint configured")
		return []model.WhaleTransaction{}, nil
	}

	symbol := model.NormalizeSymbol(q.Symbol)
	mint, isToken := a.mints.Mint(symbol)

	priceUsd := q.PriceUsd
	if priceUsd <= 0 {
		if !isToken || !stablecoinSymbols[symbol] {
			a.logger.Warn("no price hint; cannot convert amounts", "symbol", symbol)
			return []model.WhaleTransaction{}, nil
		}
		priceUsd = 1.0
	}

	head, err := a.client.GetSlot(ctx)
	if err != nil {
		return nil, err
	}
	start := head - scanSlots + 1
	if start < 0 {
		start = 0
	}
	slots, err := a.client.GetBlocks(ctx, start, head)
	if err != nil {
		return nil, err
	}

	type slotResult struct {
		slot  int64
		block *rpc.Block
	}
	results := make([]slotResult, 0, len(slots))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSlots)
	for _, s := range slots {
		slot := s
		g.Go(func() error {
			block, err := a.client.GetBlock(gCtx, slot)
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, slotResult{slot: slot, block: block})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Deterministic merge: newest slot first regardless of fetch order.
	sort.Slice(results, func(i, j int) bool { return results[i].slot > results[j].slot })

	txs := make([]model.WhaleTransaction, 0, maxTransactions)
	for _, res := range results {
		if res.block == nil {
			continue
		}
		var blockTime int64
		if res.block.BlockTime != nil {
			blockTime = *res.block.BlockTime
		}
		for _, env := range res.block.Transactions {
			if env == nil || env.Meta.Failed() || len(env.Transaction.Signatures) == 0 {
				continue
			}
			tx, ok := a.decodeTransfer(env, q, symbol, mint, isToken, priceUsd, blockTime)
			if !ok {
				continue
			}
			txs = append(txs, tx)
			if len(txs) >= maxTransactions {
				break
			}
		}
		if len(txs) >= maxTransactions {
			break
		}
	}

	a.logger.Info("fetched whale transactions",
		"chain", q.Chain,
		"symbol", symbol,
		"slots", len(slots),
		"count", len(txs),
	)
	return txs, nil
}

// decodeTransfer extracts the first whale-sized transfer instruction
// matching the queried asset. Transactions with multiple matching
// instructions count once, at the largest amount.
func (a *Adapter) decodeTransfer(env *rpc.TransactionEnv, q source.Query, symbol, mint string, isToken bool, priceUsd float64, blockTime int64) (model.WhaleTransaction, bool) {
	var (
		best       float64
		bestSource string
		bestDest   string
		found      bool
	)

	for _, inst := range env.Transaction.Message.Instructions {
		if len(inst.Parsed) == 0 {
			continue
		}
		var parsed rpc.ParsedInstruction
		if err := json.Unmarshal(inst.Parsed, &parsed); err != nil {
			continue
		}

		var native float64
		var src, dst string
		switch {
		case !isToken && inst.Program == "system" && parsed.Type == "transfer":
			var info rpc.SystemTransferInfo
			if err := json.Unmarshal(parsed.Info, &info); err != nil {
				continue
			}
			native = float64(info.Lamports) / lamportsPerSol
			src, dst = info.Source, info.Destination
		case isToken && inst.Program == "spl-token" && parsed.Type == "transferChecked":
			var info rpc.TokenTransferInfo
			if err := json.Unmarshal(parsed.Info, &info); err != nil || info.Mint != mint {
				continue
			}
			if info.TokenAmount.UIAmount == nil {
				continue
			}
			native = *info.TokenAmount.UIAmount
			src, dst = info.Source, info.Destination
			if info.Authority != "" {
				src = info.Authority
			}
		default:
			continue
		}

		if native > best {
			best = native
			bestSource, bestDest = src, dst
			found = true
		}
	}

	if !found {
		return model.WhaleTransaction{}, false
	}
	valueUsd := best * priceUsd
	if valueUsd < model.MinWhaleValueUsd {
		return model.WhaleTransaction{}, false
	}

	from := bestSource
	if from == "" {
		from = model.UnknownAddress
	}
	to := bestDest
	if to == "" {
		to = model.UnknownAddress
	}
	return model.WhaleTransaction{
		Hash:           env.Transaction.Signatures[0],
		Timestamp:      blockTime * 1000,
		ValueUsd:       valueUsd,
		ValueNative:    best,
		FromAddress:    from,
		ToAddress:      to,
		Classification: model.Classify(from, to, q.Exchanges),
		Chain:          q.Chain,
		Symbol:         symbol,
	}, true
}
