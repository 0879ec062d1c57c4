// Package main implements a load test harness for the whale-activity
// endpoint. It fires concurrent POST requests against a running engine
// and reports throughput, latency percentiles, and the distribution of
// result sources (premium vs on-chain vs derived).
//
// Usage:
//
//	go run ./test/loadtest \
//	  -url http://localhost:8080/v1/whale-activity \
//	  -symbols BTC,ETH,SOL,USDT \
//	  -concurrency 8 \
//	  -duration 30s
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

type activityResult struct {
	Symbol           string `json:"symbol"`
	NetFlow          string `json:"netFlow"`
	Source           string `json:"source"`
	TransactionCount int    `json:"transactionCount"`
}

type stats struct {
	mu        sync.Mutex
	latencies []time.Duration
	bySource  map[string]int
	byFlow    map[string]int

	requests atomic.Int64
	failures atomic.Int64
}

func newStats() *stats {
	return &stats{
		bySource: make(map[string]int),
		byFlow:   make(map[string]int),
	}
}

func (s *stats) record(latency time.Duration, res *activityResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latencies = append(s.latencies, latency)
	if res != nil {
		s.bySource[res.Source]++
		s.byFlow[res.NetFlow]++
	}
}

func main() {
	var (
		url         = flag.String("url", "http://localhost:8080/v1/whale-activity", "Whale-activity endpoint URL")
		symbolsFlag = flag.String("symbols", "BTC,ETH,SOL,USDT", "Comma-separated symbols to rotate through")
		concurrency = flag.Int("concurrency", 4, "Number of parallel request workers")
		duration    = flag.Duration("duration", 30*time.Second, "Test duration")
		priceUSD    = flag.Float64("price-usd", 0, "Optional price hint forwarded with every request")
		timeout     = flag.Duration("timeout", 25*time.Second, "Per-request client timeout")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	symbols := strings.Split(*symbolsFlag, ",")
	for i := range symbols {
		symbols[i] = strings.TrimSpace(symbols[i])
	}

	logger.Info("load test configuration",
		"url", *url,
		"symbols", symbols,
		"concurrency", *concurrency,
		"duration", duration.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *duration)
	defer cancel()

	client := &http.Client{Timeout: *timeout}
	st := newStats()
	started := time.Now()

	var wg sync.WaitGroup
	for worker := 0; worker < *concurrency; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; ctx.Err() == nil; i++ {
				symbol := symbols[(worker+i)%len(symbols)]
				if err := fire(ctx, client, *url, symbol, *priceUSD, st); err != nil && ctx.Err() == nil {
					st.failures.Add(1)
					logger.Warn("request failed", "symbol", symbol, "error", err)
				}
			}
		}(worker)
	}
	wg.Wait()
	elapsed := time.Since(started)

	report(logger, st, elapsed)
}

func fire(ctx context.Context, client *http.Client, url, symbol string, priceUSD float64, st *stats) error {
	payload := map[string]any{"symbol": symbol}
	if priceUSD > 0 {
		payload["priceUSD"] = priceUSD
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	st.requests.Add(1)
	started := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	latency := time.Since(started)

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	var res activityResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	st.record(latency, &res)
	return nil
}

func report(logger *slog.Logger, st *stats, elapsed time.Duration) {
	st.mu.Lock()
	defer st.mu.Unlock()

	total := st.requests.Load()
	failures := st.failures.Load()
	if len(st.latencies) == 0 {
		logger.Error("no successful requests", "total", total, "failures", failures)
		return
	}

	sort.Slice(st.latencies, func(i, j int) bool { return st.latencies[i] < st.latencies[j] })
	pct := func(p float64) time.Duration {
		idx := int(float64(len(st.latencies)-1) * p)
		return st.latencies[idx]
	}

	logger.Info("load test complete",
		"elapsed", elapsed.Round(time.Millisecond).String(),
		"requests", total,
		"failures", failures,
		"rps", fmt.Sprintf("%.1f", float64(len(st.latencies))/elapsed.Seconds()),
		"p50", pct(0.50).Round(time.Millisecond).String(),
		"p95", pct(0.95).Round(time.Millisecond).String(),
		"p99", pct(0.99).Round(time.Millisecond).String(),
	)
	logger.Info("result sources", "by_source", st.bySource)
	logger.Info("net flows", "by_flow", st.byFlow)
}
