// Package whalealert adapts the Whale-Alert premium aggregator API.
//
// Classification for this source comes from provider-supplied counterparty
// owner types (exchange vs non-exchange) rather than the local address
// registry, which makes it higher-confidence than the on-chain adapters.
package whalealert

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
	SourceName = "whale-alert"

	timeWindow = 24 * time.Hour
	maxResults = 100
)

type Adapter struct {
	client  *fetch.Client
	baseURL string
	apiKey  string
	logger  *slog.Logger
	nowFn   func() time.Time
}

var _ source.Source = (*Adapter)(nil)

type AdapterOption func(*Adapter)

// WithNowFunc overrides the clock used for the 24h window start.
func WithNowFunc(now func() time.Time) AdapterOption {
	return func(a *Adapter) { a.nowFn = now }
}

func NewAdapter(client *fetch.Client, baseURL, apiKey string, logger *slog.Logger, opts ...AdapterOption) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Adapter{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  logger.With("source", SourceName),
		nowFn:   time.Now,
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

// Configured reports whether an API key is present at process level.
func (a *Adapter) Configured() bool {
	return a.apiKey != ""
}

// Eligible reports whether the premium tier can run for this query: a
// key was configured at startup or supplied with the request. The
// orchestrator skips the tier entirely when it cannot.
func (a *Adapter) Eligible(q source.Query) bool {
	return a.apiKey != "" || q.APIKey != ""
}

func (a *Adapter) keyFor(q source.Query) string {
	if q.APIKey != "" {
		return q.APIKey
	}
	return a.apiKey
}

// transactionsResponse is the versioned v1 payload shape this adapter
// accepts. Fields it cannot confidently parse cause the transaction to be
// skipped, never propagated partially typed.
type transactionsResponse struct {
	Result       string       `json:"result"`
	Count        int          `json:"count"`
	Transactions []providerTx `json:"transactions"`
}

type providerTx struct {
	Blockchain string       `json:"blockchain"`
	Symbol     string       `json:"symbol"`
	Hash       string       `json:"hash"`
	From       counterparty `json:"from"`
	To         counterparty `json:"to"`
	Timestamp  int64        `json:"timestamp"` // seconds
	Amount     float64      `json:"amount"`
	AmountUsd  float64      `json:"amount_usd"`
}

type counterparty struct {
	Address   string `json:"address"`
	Owner     string `json:"owner"`
	OwnerType string `json:"owner_type"`
}

func (a *Adapter) Fetch(ctx context.Context, q source.Query) ([]model.WhaleTransaction, error) {
	if !a.Eligible(q) {
		a.logger.Debug("no api key configured; skipping")
		return []model.WhaleTransaction{}, nil
	}

	start := a.nowFn().Add(-timeWindow).Unix()
	params := url.Values{}
	params.Set("api_key", a.keyFor(q))
	params.Set("min_value", fmt.Sprintf("%d", model.MinWhaleValueUsd))
	params.Set("start", fmt.Sprintf("%d", start))
	params.Set("currency", strings.ToLower(q.Symbol))
	params.Set("limit", fmt.Sprintf("%d", maxResults))

	var resp transactionsResponse
	if err := a.client.GetJSON(ctx, a.baseURL+"/v1/transactions?"+params.Encode(), &resp); err != nil {
		var statusErr *fetch.StatusError
		if errors.As(err, &statusErr) {
			// Non-retryable status means "no data for this query", not transport failure.
			a.logger.Warn("provider rejected query", "status", statusErr.Status, "symbol", q.Symbol)
			return []model.WhaleTransaction{}, nil
		}
		return nil, err
	}

	if !strings.EqualFold(resp.Result, "success") {
		a.logger.Warn("provider returned non-success result", "result", resp.Result)
		return []model.WhaleTransaction{}, nil
	}

	txs := make([]model.WhaleTransaction, 0, len(resp.Transactions))
	skipped := 0
	for _, raw := range resp.Transactions {
		if raw.Hash == "" || raw.AmountUsd <= 0 {
			skipped++
			continue
		}
		if raw.AmountUsd < model.MinWhaleValueUsd {
			continue
		}
		txs = append(txs, model.WhaleTransaction{
			Hash:           raw.Hash,
			Timestamp:      raw.Timestamp * 1000,
			ValueUsd:       raw.AmountUsd,
			ValueNative:    raw.Amount,
			FromAddress:    addressOrUnknown(raw.From.Address),
			ToAddress:      addressOrUnknown(raw.To.Address),
			Classification: model.ClassifyByOwnerType(raw.From.OwnerType, raw.To.OwnerType),
			Chain:          q.Chain,
			Symbol:         model.NormalizeSymbol(q.Symbol),
		})
	}

	a.logger.Info("fetched whale transactions",
		"symbol", q.Symbol,
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
