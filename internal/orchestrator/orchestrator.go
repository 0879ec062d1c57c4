// Package orchestrator walks the prioritized source fallback chain for a
// resolved asset.
//
// The chain is an explicit state machine: TRY_PREMIUM runs the
// credentialed aggregator when a key is available, TRY_CHAIN_SPECIFIC
// runs the preferred free sources for the settlement chain in fixed
// order, TRY_GENERIC runs the last-resort source, and EXHAUSTED yields
// an empty list that aggregates into a derived result. The first source
// returning at least one transaction is terminal.
package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/marketlens/whale-engine/internal/domain/model"
	"github.com/marketlens/whale-engine/internal/fetch"
	"github.com/marketlens/whale-engine/internal/metrics"
	"github.com/marketlens/whale-engine/internal/source"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// State is one position in the fallback chain.
type State string

const (
	StateTryPremium       State = "TRY_PREMIUM"
	StateTryChainSpecific State = "TRY_CHAIN_SPECIFIC"
	StateTryGeneric       State = "TRY_GENERIC"
	StateExhausted        State = "EXHAUSTED"
)

const (
	outcomeHit         = "hit"
	outcomeEmpty       = "empty"
	outcomeUnavailable = "unavailable"
)

// Premium is the credentialed aggregator tier.
type Premium interface {
	source.Source
	// Eligible reports whether the tier can run for the query (a key is
	// configured at startup or supplied with the request).
	Eligible(q source.Query) bool
}

// Routing fixes the per-chain source order for the non-premium states.
type Routing struct {
	ChainSpecific map[model.Chain][]source.Source
	Generic       map[model.Chain][]source.Source
}

// Outcome is the terminal result of one walk over the fallback chain.
type Outcome struct {
	Transactions []model.WhaleTransaction
	Source       model.SourceLabel
	// SourceName is the adapter that produced the data, empty when exhausted.
	SourceName string
	FinalState State
}

type Orchestrator struct {
	premium Premium
	routing Routing
	logger  *slog.Logger
	tracer  trace.Tracer
}

type Option func(*Orchestrator)

// WithTracer attaches a tracer for per-attempt spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = tracer }
}

func New(premium Premium, routing Routing, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		premium: premium,
		routing: routing,
		logger:  logger.With("component", "orchestrator"),
		tracer:  noop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// DefaultRouting builds the fixed per-chain ordering: Bitcoin prefers the
// UTXO explorer with the multi-chain explorer as fallback, Ethereum
// prefers the multi-chain explorer with the account-model scan as
// fallback, the remaining explorer-covered chains go straight to the
// multi-chain explorer, and the EVM sidechains go straight to their RPC
// proxies.
func DefaultRouting(utxo, multichain, evm, solana source.Source) Routing {
	return Routing{
		ChainSpecific: map[model.Chain][]source.Source{
			model.ChainBitcoin:     {utxo},
			model.ChainEthereum:    {multichain},
			model.ChainSolana:      {solana},
			model.ChainLitecoin:    {multichain},
			model.ChainDogecoin:    {multichain},
			model.ChainBitcoinCash: {multichain},
			model.ChainCardano:     {multichain},
			model.ChainBSC:         {evm},
			model.ChainPolygon:     {evm},
			model.ChainAvalanche:   {evm},
			model.ChainArbitrum:    {evm},
			model.ChainOptimism:    {evm},
		},
		Generic: map[model.Chain][]source.Source{
			model.ChainBitcoin:  {multichain},
			model.ChainEthereum: {evm},
		},
	}
}

// Run walks the fallback chain for the query. It never returns an error:
// source failure advances the chain, and full exhaustion is a valid
// derived outcome. Cancellation of ctx stops the walk early with
// whatever state it reached.
func (o *Orchestrator) Run(ctx context.Context, q source.Query) Outcome {
	state := StateTryChainSpecific
	if o.premium != nil && o.premium.Eligible(q) {
		state = StateTryPremium
	}

	for state != StateExhausted {
		if ctx.Err() != nil {
			o.logger.Warn("request budget exhausted; degrading to derived",
				"chain", q.Chain, "symbol", q.Symbol, "state", string(state))
			break
		}

		for _, src := range o.sourcesFor(state, q.Chain) {
			txs, ok := o.attempt(ctx, state, src, q)
			if !ok {
				continue
			}
			return Outcome{
				Transactions: txs,
				Source:       labelFor(state),
				SourceName:   src.Name(),
				FinalState:   state,
			}
		}
		state = next(state)
	}

	metrics.SourceExhaustedTotal.WithLabelValues(q.Chain.String()).Inc()
	o.logger.Info("all sources exhausted; returning derived result",
		"chain", q.Chain, "symbol", q.Symbol)
	return Outcome{
		Transactions: []model.WhaleTransaction{},
		Source:       model.SourceDerived,
		FinalState:   StateExhausted,
	}
}

func (o *Orchestrator) sourcesFor(state State, chain model.Chain) []source.Source {
	switch state {
	case StateTryPremium:
		if o.premium == nil {
			return nil
		}
		return []source.Source{o.premium}
	case StateTryChainSpecific:
		return o.routing.ChainSpecific[chain]
	case StateTryGeneric:
		return o.routing.Generic[chain]
	default:
		return nil
	}
}

// attempt runs one source to completion, including its internal retries.
// ok is false when the source produced nothing usable, for any reason.
func (o *Orchestrator) attempt(ctx context.Context, state State, src source.Source, q source.Query) ([]model.WhaleTransaction, bool) {
	if src == nil {
		return nil, false
	}

	attemptCtx, span := o.tracer.Start(ctx, "orchestrator.attempt",
		trace.WithAttributes(
			attribute.String("source", src.Name()),
			attribute.String("state", string(state)),
			attribute.String("chain", q.Chain.String()),
			attribute.String("symbol", q.Symbol),
		))
	defer span.End()

	started := time.Now()
	txs, err := src.Fetch(attemptCtx, q)
	metrics.SourceLatency.WithLabelValues(src.Name()).Observe(time.Since(started).Seconds())

	switch {
	case err != nil:
		metrics.SourceAttemptsTotal.WithLabelValues(src.Name(), outcomeUnavailable).Inc()
		if fetch.IsSourceUnavailable(err) {
			o.logger.Warn("source unavailable; advancing fallback chain",
				"source", src.Name(), "chain", q.Chain, "error", err)
		} else {
			o.logger.Error("source failed; advancing fallback chain",
				"source", src.Name(), "chain", q.Chain, "error", err)
		}
		return nil, false
	case len(txs) == 0:
		metrics.SourceAttemptsTotal.WithLabelValues(src.Name(), outcomeEmpty).Inc()
		o.logger.Debug("source returned no data", "source", src.Name(), "chain", q.Chain)
		return nil, false
	default:
		metrics.SourceAttemptsTotal.WithLabelValues(src.Name(), outcomeHit).Inc()
		o.logger.Info("source produced data",
			"source", src.Name(), "chain", q.Chain, "count", len(txs), "state", string(state))
		return txs, true
	}
}

func next(state State) State {
	switch state {
	case StateTryPremium:
		return StateTryChainSpecific
	case StateTryChainSpecific:
		return StateTryGeneric
	default:
		return StateExhausted
	}
}

// labelFor maps the winning state to the result's source field. Every
// on-chain source reports as blockchain-api; only the premium aggregator
// gets its own label.
func labelFor(state State) model.SourceLabel {
	if state == StateTryPremium {
		return model.SourceWhaleAlert
	}
	return model.SourceBlockchainAPI
}
