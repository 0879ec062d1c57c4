package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/marketlens/whale-engine/internal/config"
	"github.com/marketlens/whale-engine/internal/domain/model"
	"github.com/marketlens/whale-engine/internal/fetch"
	"github.com/marketlens/whale-engine/internal/orchestrator"
	"github.com/marketlens/whale-engine/internal/ratelimit"
	"github.com/marketlens/whale-engine/internal/resolver"
	"github.com/marketlens/whale-engine/internal/server"
	"github.com/marketlens/whale-engine/internal/source/blockchair"
	"github.com/marketlens/whale-engine/internal/source/evm"
	evmrpc "github.com/marketlens/whale-engine/internal/source/evm/rpc"
	"github.com/marketlens/whale-engine/internal/source/solana"
	solanarpc "github.com/marketlens/whale-engine/internal/source/solana/rpc"
	"github.com/marketlens/whale-engine/internal/source/utxo"
	"github.com/marketlens/whale-engine/internal/source/utxo/rest"
	"github.com/marketlens/whale-engine/internal/source/whalealert"
	"github.com/marketlens/whale-engine/internal/tracing"
)

const serviceName = "whale-engine"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env for local development; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.Log.Level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, serviceName, cfg.Tracing.OTLPEndpoint, true)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	fetchClient := func(sourceName string) *fetch.Client {
		return fetch.NewClient(sourceName, logger,
			fetch.WithMaxRetries(cfg.Fetch.MaxRetries),
			fetch.WithBaseDelay(cfg.Fetch.BaseDelay),
			fetch.WithAttemptTimeout(cfg.Fetch.AttemptTimeout),
			fetch.WithRateLimiter(ratelimit.NewLimiter(cfg.Fetch.RateLimitRPS, cfg.Fetch.RateLimitBurst, sourceName)),
		)
	}

	premium := whalealert.NewAdapter(
		fetchClient(whalealert.SourceName),
		cfg.WhaleAlert.BaseURL,
		cfg.WhaleAlert.APIKey,
		logger,
	)

	utxoAdapter := utxo.NewAdapter(
		rest.NewClient(fetchClient(utxo.SourceName), cfg.UTXO.BaseURL, func() int64 {
			return time.Now().UnixMilli()
		}),
		logger,
	)

	blockchairAdapter := blockchair.NewAdapter(
		fetchClient(blockchair.SourceName),
		cfg.Blockchair.BaseURL,
		logger,
	)

	evmClients := make(map[model.Chain]evmrpc.RPCClient, len(cfg.EVM.RPCURLs))
	for chain, rpcURL := range cfg.EVM.RPCURLs {
		if rpcURL == "" {
			continue
		}
		evmClients[model.Chain(chain)] = evmrpc.NewClient(fetchClient(evm.SourceName), rpcURL)
	}
	evmAdapter := evm.NewAdapter(evmClients, model.DefaultTokenContracts(), logger)

	var solanaClient solanarpc.RPCClient
	if cfg.Solana.RPCURL != "" {
		solanaClient = solanarpc.NewClient(fetchClient(solana.SourceName), cfg.Solana.RPCURL)
	}
	solanaAdapter := solana.NewAdapter(solanaClient, model.DefaultSPLMints(), logger)

	orch := orchestrator.New(
		premium,
		orchestrator.DefaultRouting(utxoAdapter, blockchairAdapter, evmAdapter, solanaAdapter),
		logger,
		orchestrator.WithTracer(tracing.Tracer("orchestrator")),
	)

	res := resolver.New(model.DefaultChainMapping(), model.DefaultExchangeAddressRegistry())

	srv := server.New(res, orch, cfg.Server.RequestBudget, logger,
		server.WithTracer(tracing.Tracer("server")),
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("whale engine listening",
			"port", cfg.Server.Port,
			"request_budget", cfg.Server.RequestBudget.String(),
			"premium_configured", premium.Configured(),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("received signal, shutting down")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
