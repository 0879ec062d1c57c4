package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 20*time.Second, cfg.Server.RequestBudget)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.Equal(t, time.Second, cfg.Fetch.BaseDelay)
	assert.Equal(t, 10*time.Second, cfg.Fetch.AttemptTimeout)
	assert.Empty(t, cfg.WhaleAlert.APIKey)
	assert.NotEmpty(t, cfg.EVM.RPCURLs["ethereum"])
	assert.NotEmpty(t, cfg.Solana.RPCURL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REQUEST_BUDGET_SEC", "5")
	t.Setenv("WHALE_ALERT_API_KEY", "secret")
	t.Setenv("ETHEREUM_RPC_URL", "http://localhost:8545")
	t.Setenv("FETCH_RATE_LIMIT_RPS", "2.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestBudget)
	assert.Equal(t, "secret", cfg.WhaleAlert.APIKey)
	assert.Equal(t, "http://localhost:8545", cfg.EVM.RPCURLs["ethereum"])
	assert.Equal(t, 2.5, cfg.Fetch.RateLimitRPS)
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("PORT", "70000")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsNonPositiveBudget(t *testing.T) {
	t.Setenv("REQUEST_BUDGET_SEC", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadIgnoresMalformedInt(t *testing.T) {
	t.Setenv("FETCH_MAX_RETRIES", "many")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
}
