// Package resolver maps an asset symbol onto its settlement chain and
// custody address set. Pure map reads against injected immutable tables.
package resolver

import (
	"errors"

	"github.com/marketlens/whale-engine/internal/domain/model"
)

// ErrUnsupportedSymbol marks a symbol with no chain mapping. Callers
// degrade to a derived/no-data result rather than failing the request.
var ErrUnsupportedSymbol = errors.New("unsupported symbol")

// Resolution is the routing context for one symbol.
type Resolution struct {
	Symbol string
	Chain  model.Chain
	// Exchanges is keyed by symbol, not chain: tokens sharing a chain are
	// tracked at different custody wallets. May be empty, in which case
	// every transaction classifies as TRANSFER.
	Exchanges model.AddressSet
}

type Resolver struct {
	chains    model.ChainMapping
	exchanges *model.ExchangeAddressRegistry
}

func New(chains model.ChainMapping, exchanges *model.ExchangeAddressRegistry) *Resolver {
	return &Resolver{
		chains:    chains,
		exchanges: exchanges,
	}
}

// Resolve returns the routing context for a symbol, or
// ErrUnsupportedSymbol when the symbol has no chain mapping.
func (r *Resolver) Resolve(symbol string) (Resolution, error) {
	normalized := model.NormalizeSymbol(symbol)
	chain, ok := r.chains.Resolve(normalized)
	if !ok {
		return Resolution{}, ErrUnsupportedSymbol
	}
	return Resolution{
		Symbol:    normalized,
		Chain:     chain,
		Exchanges: r.exchanges.Addresses(normalized),
	}, nil
}
