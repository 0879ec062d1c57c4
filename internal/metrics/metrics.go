package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine counters and histograms, partitioned by source and chain.

var (
	// Request handler
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "whale_engine",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total whale-activity requests by outcome",
	}, []string{"status"})

	RequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "whale_engine",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Whale-activity request duration",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
	}, []string{"status"})

	// Orchestrator
	SourceAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "whale_engine",
		Subsystem: "orchestrator",
		Name:      "source_attempts_total",
		Help:      "Total source attempts by source and outcome (hit, empty, unavailable)",
	}, []string{"source", "outcome"})

	SourceExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "whale_engine",
		Subsystem: "orchestrator",
		Name:      "exhausted_total",
		Help:      "Total requests where every source was exhausted (derived result)",
	}, []string{"chain"})

	SourceLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "whale_engine",
		Subsystem: "orchestrator",
		Name:      "source_duration_seconds",
		Help:      "Per-source attempt duration including internal retries",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
	}, []string{"source"})

	// Resilient fetch client
	FetchRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "whale_engine",
		Subsystem: "fetch",
		Name:      "retries_total",
		Help:      "Total HTTP attempt retries by source and reason",
	}, []string{"source", "reason"})

	FetchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "whale_engine",
		Subsystem: "fetch",
		Name:      "requests_total",
		Help:      "Total outbound HTTP requests by source and status class",
	}, []string{"source", "status"})

	// Rate limiter
	RateLimitWaits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "whale_engine",
		Subsystem: "fetch",
		Name:      "rate_limit_waits_total",
		Help:      "Total times outbound calls waited for the rate limiter",
	}, []string{"source"})

	// Aggregation
	ResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "whale_engine",
		Subsystem: "aggregate",
		Name:      "results_total",
		Help:      "Total aggregated results by net flow",
	}, []string{"net_flow"})

	TransactionsObserved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "whale_engine",
		Subsystem: "aggregate",
		Name:      "transactions_observed_total",
		Help:      "Total whale transactions entering aggregation",
	}, []string{"chain", "classification"})
)
