package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server     ServerConfig
	Fetch      FetchConfig
	WhaleAlert WhaleAlertConfig
	UTXO       UTXOConfig
	Blockchair BlockchairConfig
	EVM        EVMConfig
	Solana     SolanaConfig
	Tracing    TracingConfig
	Log        LogConfig
}

type ServerConfig struct {
	Port int
	// RequestBudget bounds one whole fallback chain walk. On expiry the
	// orchestrator degrades to a derived result instead of blocking.
	RequestBudget time.Duration
}

type FetchConfig struct {
	MaxRetries     int
	BaseDelay      time.Duration
	AttemptTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
}

type WhaleAlertConfig struct {
	BaseURL string
	APIKey  string
}

type UTXOConfig struct {
	BaseURL string
}

type BlockchairConfig struct {
	BaseURL string
}

type EVMConfig struct {
	// RPCURLs holds one JSON-RPC base URL per chain identifier (ethereum,
	// bsc, polygon, avalanche, arbitrum, optimism). Empty entries disable
	// the chain for the account-model adapter.
	RPCURLs map[string]string
}

type SolanaConfig struct {
	RPCURL string
}

type TracingConfig struct {
	OTLPEndpoint string
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:          getEnvInt("PORT", 8080),
			RequestBudget: time.Duration(getEnvInt("REQUEST_BUDGET_SEC", 20)) * time.Second,
		},
		Fetch: FetchConfig{
			MaxRetries:     getEnvInt("FETCH_MAX_RETRIES", 3),
			BaseDelay:      time.Duration(getEnvInt("FETCH_BASE_DELAY_MS", 1000)) * time.Millisecond,
			AttemptTimeout: time.Duration(getEnvInt("FETCH_TIMEOUT_SEC", 10)) * time.Second,
			RateLimitRPS:   getEnvFloat("FETCH_RATE_LIMIT_RPS", 5),
			RateLimitBurst: getEnvInt("FETCH_RATE_LIMIT_BURST", 10),
		},
		WhaleAlert: WhaleAlertConfig{
			BaseURL: getEnv("WHALE_ALERT_BASE_URL", "https://api.whale-alert.io"),
			APIKey:  getEnv("WHALE_ALERT_API_KEY", ""),
		},
		UTXO: UTXOConfig{
			BaseURL: getEnv("UTXO_EXPLORER_BASE_URL", "https://blockchain.info"),
		},
		Blockchair: BlockchairConfig{
			BaseURL: getEnv("BLOCKCHAIR_BASE_URL", "https://api.blockchair.com"),
		},
		EVM: EVMConfig{
			RPCURLs: map[string]string{
				"ethereum":  getEnv("ETHEREUM_RPC_URL", "https://eth.llamarpc.com"),
				"bsc":       getEnv("BSC_RPC_URL", "https://bsc-dataseed.binance.org"),
				"polygon":   getEnv("POLYGON_RPC_URL", "https://polygon-rpc.com"),
				"avalanche": getEnv("AVALANCHE_RPC_URL", "https://api.avax.network/ext/bc/C/rpc"),
				"arbitrum":  getEnv("ARBITRUM_RPC_URL", "https://arb1.arbitrum.io/rpc"),
				"optimism":  getEnv("OPTIMISM_RPC_URL", "https://mainnet.optimism.io"),
			},
		},
		Solana: SolanaConfig{
			RPCURL: getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		},
		Tracing: TracingConfig{
			OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Server.RequestBudget <= 0 {
		return fmt.Errorf("REQUEST_BUDGET_SEC must be positive")
	}
	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("FETCH_MAX_RETRIES must not be negative")
	}
	if c.Fetch.AttemptTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT_SEC must be positive")
	}
	if c.UTXO.BaseURL == "" {
		return fmt.Errorf("UTXO_EXPLORER_BASE_URL is required")
	}
	if c.Blockchair.BaseURL == "" {
		return fmt.Errorf("BLOCKCHAIR_BASE_URL is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
