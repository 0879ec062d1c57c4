// Package evm adapts Etherscan-compatible JSON-RPC proxies for the
// account-model chain family (Ethereum, BSC, Polygon, Avalanche,
// Arbitrum, Optimism).
//
// Native-asset symbols are found by scanning full transactions in the
// most recent blocks; ERC-20 symbols with a known contract are found by
// scanning Transfer events via eth_getLogs and decoding the amount from
// the log payload.
package evm

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/marketlens/whale-engine/internal/domain/model"
	"github.com/marketlens/whale-engine/internal/source"
	"github.com/marketlens/whale-engine/internal/source/evm/rpc"
	"golang.org/x/sync/errgroup"
)

const (
	// SourceName identifies this adapter in orchestrator ordering and metrics.
	SourceName = "evm-rpc"

	// transferTopic is keccak256("Transfer(address,address,uint256)").
	transferTopic = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"

	nativeScanBlocks    = 10
	tokenScanBlocks     = 2000
	maxTransactions     = 50
	maxConcurrentBlocks = 4
	nativeDecimals      = 18
)

// tokenDecimals overrides the default 18 decimals for tokens that use
// fewer. Missing symbols fall back to 18.
var tokenDecimals = map[string]int{
	"USDT": 6,
	"USDC": 6,
}

// stablecoinSymbols may assume a 1 USD price when no hint is supplied.
var stablecoinSymbols = map[string]bool{
	"USDT": true,
	"USDC": true,
}

type Adapter struct {
	clients   map[model.Chain]rpc.RPCClient
	contracts model.TokenContracts
	logger    *slog.Logger
}

var _ source.Source = (*Adapter)(nil)

func NewAdapter(clients map[model.Chain]rpc.RPCClient, contracts model.TokenContracts, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		clients:   clients,
		contracts: contracts,
		logger:    logger.With("source", SourceName),
	}
}

func (a *Adapter) Name() string {
	return SourceName
}

// Supports reports whether a JSON-RPC proxy is configured for the chain.
func (a *Adapter) Supports(chain model.Chain) bool {
	_, ok := a.clients[chain]
	return ok
}

func (a *Adapter) Fetch(ctx context.Context, q source.Query) ([]model.WhaleTransaction, error) {
	client, ok := a.clients[q.Chain]
	if !ok {
		a.logger.Debug("no rpc proxy configured", "chain", q.Chain)
		return []model.WhaleTransaction{}, nil
	}

	symbol := model.NormalizeSymbol(q.Symbol)
	if contract, isToken := a.contracts.Contract(symbol); isToken {
		return a.fetchTokenTransfers(ctx, client, q, symbol, contract)
	}
	return a.fetchNativeTransfers(ctx, client, q, symbol)
}

// fetchNativeTransfers scans full transactions in the most recent blocks
// for large native-coin movements.
func (a *Adapter) fetchNativeTransfers(ctx context.Context, client rpc.RPCClient, q source.Query, symbol string) ([]model.WhaleTransaction, error) {
	if q.PriceUsd <= 0 {
		a.logger.Warn("no price hint; cannot convert native values", "symbol", symbol)
		return []model.WhaleTransaction{}, nil
	}

	head, err := client.BlockNumber(ctx)
	if err != nil {
		return nil, err
	}

	start := head - nativeScanBlocks + 1
	if start < 0 {
		start = 0
	}

	type blockResult struct {
		number int64
		block  *rpc.Block
	}
	results := make([]blockResult, 0, nativeScanBlocks)
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentBlocks)
	for number := start; number <= head; number++ {
		blockNumber := number
		g.Go(func() error {
			block, err := client.GetBlockByNumber(gCtx, blockNumber, true)
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, blockResult{number: blockNumber, block: block})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Deterministic merge: newest block first regardless of fetch order.
	sort.Slice(results, func(i, j int) bool { return results[i].number > results[j].number })

	txs := make([]model.WhaleTransaction, 0, maxTransactions)
	for _, res := range results {
		if res.block == nil {
			continue
		}
		blockTime, err := rpc.ParseHexInt64(res.block.Timestamp)
		if err != nil {
			continue
		}
		for _, tx := range res.block.Transactions {
			if tx == nil || tx.Hash == "" || tx.Value == "" {
				continue
			}
			native, err := rpc.ParseHexAmount(tx.Value, nativeDecimals)
			if err != nil {
				continue
			}
			valueUsd := native * q.PriceUsd
			if valueUsd < model.MinWhaleValueUsd {
				continue
			}

			from := addressOrUnknown(tx.From)
			to := addressOrUnknown(tx.To)
			txs = append(txs, model.WhaleTransaction{
				Hash:           tx.Hash,
				Timestamp:      blockTime * 1000,
				ValueUsd:       valueUsd,
				ValueNative:    native,
				FromAddress:    from,
				ToAddress:      to,
				Classification: model.Classify(from, to, q.Exchanges),
				Chain:          q.Chain,
				Symbol:         symbol,
			})
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
		"mode", "native",
		"count", len(txs),
	)
	return txs, nil
}

// fetchTokenTransfers scans ERC-20 Transfer events on the token contract
// and decodes the moved amount from each log.
func (a *Adapter) fetchTokenTransfers(ctx context.Context, client rpc.RPCClient, q source.Query, symbol, contract string) ([]model.WhaleTransaction, error) {
	priceUsd := q.PriceUsd
	if priceUsd <= 0 {
		if !stablecoinSymbols[symbol] {
			a.logger.Warn("no price hint; cannot convert token amounts", "symbol", symbol)
			return []model.WhaleTransaction{}, nil
		}
		priceUsd = 1.0
	}

	head, err := client.BlockNumber(ctx)
	if err != nil {
		return nil, err
	}
	start := head - tokenScanBlocks + 1
	if start < 0 {
		start = 0
	}

	logs, err := client.GetLogs(ctx, rpc.LogFilter{
		FromBlock: rpc.HexInt64(start),
		ToBlock:   rpc.HexInt64(head),
		Address:   contract,
		Topics:    []string{transferTopic},
	})
	if err != nil {
		return nil, err
	}

	decimals := nativeDecimals
	if d, ok := tokenDecimals[symbol]; ok {
		decimals = d
	}

	blockTimes := map[int64]int64{}
	txs := make([]model.WhaleTransaction, 0, maxTransactions)
	skipped := 0
	for i := len(logs) - 1; i >= 0; i-- { // newest first
		entry := logs[i]
		if entry.Removed || entry.TransactionHash == "" || len(entry.Topics) < 3 {
			skipped++
			continue
		}

		amount, err := rpc.ParseHexAmount(entry.Data, decimals)
		if err != nil {
			skipped++
			continue
		}
		valueUsd := amount * priceUsd
		if valueUsd < model.MinWhaleValueUsd {
			continue
		}

		blockNumber, err := rpc.ParseHexInt64(entry.BlockNumber)
		if err != nil {
			skipped++
			continue
		}
		blockTime, ok := blockTimes[blockNumber]
		if !ok {
			header, err := client.GetBlockByNumber(ctx, blockNumber, false)
			if err != nil {
				return nil, err
			}
			if header == nil {
				skipped++
				continue
			}
			blockTime, err = rpc.ParseHexInt64(header.Timestamp)
			if err != nil {
				skipped++
				continue
			}
			blockTimes[blockNumber] = blockTime
		}

		from := topicAddress(entry.Topics[1])
		to := topicAddress(entry.Topics[2])
		txs = append(txs, model.WhaleTransaction{
			Hash:           entry.TransactionHash,
			Timestamp:      blockTime * 1000,
			ValueUsd:       valueUsd,
			ValueNative:    amount,
			FromAddress:    from,
			ToAddress:      to,
			Classification: model.Classify(from, to, q.Exchanges),
			Chain:          q.Chain,
			Symbol:         symbol,
		})
		if len(txs) >= maxTransactions {
			break
		}
	}

	a.logger.Info("fetched whale transactions",
		"chain", q.Chain,
		"symbol", symbol,
		"mode", "erc20",
		"count", len(txs),
		"skipped", skipped,
	)
	return txs, nil
}

// topicAddress extracts the address from a 32-byte indexed topic.
func topicAddress(topic string) string {
	trimmed := strings.TrimPrefix(strings.TrimSpace(topic), "0x")
	if len(trimmed) < 40 {
		return model.UnknownAddress
	}
	return "0x" + strings.ToLower(trimmed[len(trimmed)-40:])
}

func addressOrUnknown(addr string) string {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		return model.UnknownAddress
	}
	return trimmed
}
