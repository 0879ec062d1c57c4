// Package blockchair adapts a Blockchair-style multi-chain explorer.
// Whale filtering happens server-side through a query predicate on the
// USD output total, so a single call per request suffices.
package blockchair

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/marketlens/whale-engine/internal/domain/model"
	"github.com/marketlens/whale-engine/internal/fetch"
	"github.com/marketlens/whale-engine/internal/source"
)

const (
	// SourceName identifies this adapter in orchestrator ordering and metrics.
	SourceName = "blockchair"

	maxResults = 50

	timeLayout = "2006-01-02 15:04:05"
)

// chainSlugs is the fixed allow-list of chains the explorer serves.
// Chains outside it return empty immediately without a network call.
var chainSlugs = map[model.Chain]string{
	model.ChainBitcoin:     "bitcoin",
	model.ChainEthereum:    "ethereum",
	model.ChainLitecoin:    "litecoin",
	model.ChainDogecoin:    "dogecoin",
	model.ChainBitcoinCash: "bitcoin-cash",
	model.ChainCardano:     "cardano",
}

// baseUnitsPerCoin converts the explorer's integer output_total into the
// chain's display unit.
var baseUnitsPerCoin = map[model.Chain]float64{
	model.ChainBitcoin:     1e8,
	model.ChainEthereum:    1e18,
	model.ChainLitecoin:    1e8,
	model.ChainDogecoin:    1e8,
	model.ChainBitcoinCash: 1e8,
	model.ChainCardano:     1e6,
}

type Adapter struct {
	client  *fetch.Client
	baseURL string
	logger  *slog.Logger
}

var _ source.Source = (*Adapter)(nil)

func NewAdapter(client *fetch.Client, baseURL string, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With("source", SourceName),
	}
}

func (a *Adapter) Name() string {
	return SourceName
}

// Supports reports whether the explorer serves the given chain.
func (a *Adapter) Supports(chain model.Chain) bool {
	_, ok := chainSlugs[chain]
	return ok
}

type transactionsResponse struct {
	Data []transactionRow `json:"data"`
}

type transactionRow struct {
	Hash           string  `json:"hash"`
	Time           string  `json:"time"`
	OutputTotal    float64 `json:"output_total"`
	OutputTotalUsd float64 `json:"output_total_usd"`
	Sender         string  `json:"sender"`
	Recipient      string  `json:"recipient"`
}

func (a *Adapter) Fetch(ctx context.Context, q source.Query) ([]model.WhaleTransaction, error) {
	slug, ok := chainSlugs[q.Chain]
	if !ok {
		a.logger.Debug("chain outside allow-list", "chain", q.Chain)
		return []model.WhaleTransaction{}, nil
	}

	params := url.Values{}
	params.Set("q", fmt.Sprintf("output_total_usd(%d..)", model.MinWhaleValueUsd))
	params.Set("s", "output_total_usd(desc)")
	params.Set("limit", fmt.Sprintf("%d", maxResults))

	endpoint := fmt.Sprintf("%s/%s/transactions?%s", a.baseURL, slug, params.Encode())
	var resp transactionsResponse
	if err := a.client.GetJSON(ctx, endpoint, &resp); err != nil {
		var statusErr *fetch.StatusError
		if errors.As(err, &statusErr) {
			a.logger.Warn("explorer rejected query", "status", statusErr.Status, "chain", q.Chain)
			return []model.WhaleTransaction{}, nil
		}
		return nil, err
	}

	units := baseUnitsPerCoin[q.Chain]
	txs := make([]model.WhaleTransaction, 0, len(resp.Data))
	skipped := 0
	for _, row := range resp.Data {
		if row.Hash == "" || row.OutputTotalUsd < model.MinWhaleValueUsd {
			skipped++
			continue
		}
		parsed, err := time.Parse(timeLayout, row.Time)
		if err != nil {
			skipped++
			continue
		}

		from := addressOrUnknown(row.Sender)
		to := addressOrUnknown(row.Recipient)
		native := row.OutputTotal
		if units > 0 {
			native = row.OutputTotal / units
		}
		txs = append(txs, model.WhaleTransaction{
			Hash:           row.Hash,
			Timestamp:      parsed.UTC().UnixMilli(),
			ValueUsd:       row.OutputTotalUsd,
			ValueNative:    native,
			FromAddress:    from,
			ToAddress:      to,
			Classification: model.Classify(from, to, q.Exchanges),
			Chain:          q.Chain,
			Symbol:         model.NormalizeSymbol(q.Symbol),
		})
		if len(txs) >= maxResults {
			break
		}
	}

	a.logger.Info("fetched whale transactions",
		"chain", q.Chain,
		"count", len(txs),
		"skipped", skipped,
	)
	return txs, nil
}

func addressOrUnknown(addr string) string {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		return model.UnknownAddress
	}
	return trimmed
}
