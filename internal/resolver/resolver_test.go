package resolver

import (
	"testing"

	"github.com/marketlens/whale-engine/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveKnownSymbols(t *testing.T) {
	t.Parallel()

	r := New(model.DefaultChainMapping(), model.DefaultExchangeAddressRegistry())

	tests := []struct {
		symbol    string
		chain     model.Chain
		addresses bool
	}{
		{"BTC", model.ChainBitcoin, true},
		{"btc", model.ChainBitcoin, true},
		{" eth ", model.ChainEthereum, true},
		{"USDT", model.ChainEthereum, true},
		{"SOL", model.ChainSolana, true},
		{"DOGE", model.ChainDogecoin, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.symbol, func(t *testing.T) {
			t.Parallel()
			res, err := r.Resolve(tt.symbol)
			require.NoError(t, err)
			assert.Equal(t, tt.chain, res.Chain)
			assert.Equal(t, tt.addresses, res.Exchanges.Len() > 0)
		})
	}
}

func TestResolveNormalizesSymbol(t *testing.T) {
	t.Parallel()

	r := New(model.DefaultChainMapping(), model.DefaultExchangeAddressRegistry())

	res, err := r.Resolve("  usdt ")
	require.NoError(t, err)
	assert.Equal(t, "USDT", res.Symbol)
}

func TestResolveUnsupportedSymbol(t *testing.T) {
	t.Parallel()

	r := New(model.DefaultChainMapping(), model.DefaultExchangeAddressRegistry())

	_, err := r.Resolve("ZZZ")
	assert.ErrorIs(t, err, ErrUnsupportedSymbol)
}

func TestResolveWithSubstituteTables(t *testing.T) {
	t.Parallel()

	chains := model.ChainMapping{"FOO": model.ChainPolygon}
	registry := model.NewExchangeAddressRegistry(map[string]model.AddressSet{
		"FOO": model.NewAddressSet("0xAAA0000000000000000000000000000000000001"),
	})

	r := New(chains, registry)
	res, err := r.Resolve("foo")

	require.NoError(t, err)
	assert.Equal(t, model.ChainPolygon, res.Chain)
	assert.True(t, res.Exchanges.Contains("0xaaa0000000000000000000000000000000000001"))
}
