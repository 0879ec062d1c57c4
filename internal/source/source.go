package source

import (
	"context"

	"github.com/marketlens/whale-engine/internal/domain/model"
)

// Query carries everything an adapter needs to fetch and normalize whale
// transactions for one request.
type Query struct {
	Symbol   string
	Chain    model.Chain
	PriceUsd float64 // optional price hint for native-unit USD conversion
	// APIKey is an optional per-request premium credential. It overrides
	// any key configured at process start.
	APIKey string
	// Exchanges is the custodial address set used for local classification.
	// Empty is valid: every transaction then classifies as TRANSFER.
	Exchanges model.AddressSet
}

// Source is one external whale-transaction data source.
//
// Fetch never fails on "no data": it returns an empty slice and logs the
// reason. It returns an error (fetch.SourceUnavailableError) only for
// genuine transport failure, which callers treat identically to an empty
// result. All returned transactions satisfy the 1M USD threshold.
type Source interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]model.WhaleTransaction, error)
}
