// Package server is the HTTP boundary of the engine: it validates the
// inbound request, drives the resolver and orchestrator under the
// request budget, and serializes the aggregate result.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/marketlens/whale-engine/internal/aggregate"
	"github.com/marketlens/whale-engine/internal/metrics"
	"github.com/marketlens/whale-engine/internal/orchestrator"
	"github.com/marketlens/whale-engine/internal/resolver"
	"github.com/marketlens/whale-engine/internal/source"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const maxRequestBodyBytes = 1 << 20 // 1 MB

// Orchestrator is the fallback-chain walk the server drives per request.
// Satisfied by *orchestrator.Orchestrator; tests substitute fakes.
type Orchestrator interface {
	Run(ctx context.Context, q source.Query) orchestrator.Outcome
}

type Server struct {
	resolver *resolver.Resolver
	orch     Orchestrator
	// budget bounds the whole fallback chain for one request. On expiry
	// the orchestrator degrades to a derived result.
	budget time.Duration
	logger *slog.Logger
	tracer trace.Tracer
	nowFn  func() time.Time
}

type Option func(*Server)

// WithTracer attaches a tracer for request spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Server) { s.tracer = tracer }
}

// WithNowFunc overrides the clock used for data-age computation.
func WithNowFunc(now func() time.Time) Option {
	return func(s *Server) { s.nowFn = now }
}

func New(res *resolver.Resolver, orch Orchestrator, budget time.Duration, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		resolver: res,
		orch:     orch,
		budget:   budget,
		logger:   logger.With("component", "server"),
		tracer:   noop.NewTracerProvider().Tracer(""),
		nowFn:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/whale-activity", s.instrument(s.handleWhaleActivity))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return withCORS(mux)
}

type whaleActivityRequest struct {
	Symbol           string  `json:"symbol"`
	WhaleAlertAPIKey string  `json:"whaleAlertApiKey"`
	PriceUSD         float64 `json:"priceUSD"`
}

func (s *Server) handleWhaleActivity(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set("X-Request-Id", requestID)
	logger := s.logger.With("request_id", requestID)

	var req whaleActivityRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body: symbol must be a string"})
		return
	}
	if req.Symbol == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "symbol is required"})
		return
	}

	ctx, span := s.tracer.Start(r.Context(), "whale_activity",
		trace.WithAttributes(attribute.String("symbol", req.Symbol)))
	defer span.End()

	res, err := s.resolver.Resolve(req.Symbol)
	if errors.Is(err, resolver.ErrUnsupportedSymbol) {
		// Valid low-confidence answer: no chain mapping means no source
		// can be consulted. No outbound call happens.
		logger.Info("unsupported symbol; returning derived result", "symbol", req.Symbol)
		result := aggregate.Aggregate(nil, req.Symbol, "", s.nowFn())
		writeJSON(w, http.StatusOK, result)
		return
	}
	if err != nil {
		logger.Error("resolver failed", "symbol", req.Symbol, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "internal error",
			"details": "symbol resolution failed",
		})
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.budget)
	defer cancel()

	outcome := s.orch.Run(ctx, source.Query{
		Symbol:    res.Symbol,
		Chain:     res.Chain,
		PriceUsd:  req.PriceUSD,
		APIKey:    req.WhaleAlertAPIKey,
		Exchanges: res.Exchanges,
	})

	result := aggregate.Aggregate(outcome.Transactions, res.Symbol, outcome.Source, s.nowFn())
	aggregate.Observe(result, outcome.Transactions)

	logger.Info("whale activity computed",
		"symbol", res.Symbol,
		"chain", res.Chain,
		"source", result.Source,
		"net_flow", result.NetFlow,
		"count", result.TransactionCount,
	)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// instrument wraps a handler with panic recovery and request metrics.
// A recovered panic is the only path to a 500 on this endpoint; source
// exhaustion is a normal 200.
func (s *Server) instrument(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if v := recover(); v != nil {
				s.logger.Error("handler panicked", "panic", fmt.Sprint(v), "path", r.URL.Path)
				if !rec.wrote {
					writeJSON(rec, http.StatusInternalServerError, map[string]string{
						"error":   "internal error",
						"details": "unexpected failure computing whale activity",
					})
				}
			}
			status := strconv.Itoa(rec.status)
			metrics.RequestsTotal.WithLabelValues(status).Inc()
			metrics.RequestLatency.WithLabelValues(status).Observe(time.Since(started).Seconds())
		}()

		next(rec, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.wrote = true
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wrote = true
	return r.ResponseWriter.Write(b)
}

// withCORS answers preflight uniformly and stamps the same allow headers
// on every response.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON writes v as JSON with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
