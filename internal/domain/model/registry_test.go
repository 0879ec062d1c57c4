package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressSetHexCaseInsensitive(t *testing.T) {
	t.Parallel()

	set := NewAddressSet("0xAbC0000000000000000000000000000000000001")

	assert.True(t, set.Contains("0xabc0000000000000000000000000000000000001"))
	assert.True(t, set.Contains("0xABC0000000000000000000000000000000000001"))
	assert.True(t, set.Contains("abc0000000000000000000000000000000000001"), "bare 40-char hex matches prefixed form")
	assert.False(t, set.Contains("0xabc0000000000000000000000000000000000002"))
}

func TestAddressSetBase58Exact(t *testing.T) {
	t.Parallel()

	set := NewAddressSet("34xp4vRoCGJym3xR7yCVPFHoCNxv4Twseo")

	assert.True(t, set.Contains("34xp4vRoCGJym3xR7yCVPFHoCNxv4Twseo"))
	assert.False(t, set.Contains("34XP4VROCGJYM3XR7YCVPFHOCNXV4TWSEO"), "base58 must not be case-folded")
}

func TestAddressSetDropsEmptyEntries(t *testing.T) {
	t.Parallel()

	set := NewAddressSet("", "  ", "0xabc0000000000000000000000000000000000001")
	assert.Equal(t, 1, set.Len())
}

func TestRegistryKeyedBySymbol(t *testing.T) {
	t.Parallel()

	registry := NewExchangeAddressRegistry(map[string]AddressSet{
		"usdt": NewAddressSet("0xaaa0000000000000000000000000000000000001"),
		"ETH":  NewAddressSet("0xbbb0000000000000000000000000000000000002"),
	})

	assert.True(t, registry.Addresses("USDT").Contains("0xaaa0000000000000000000000000000000000001"))
	assert.False(t, registry.Addresses("USDT").Contains("0xbbb0000000000000000000000000000000000002"))
	assert.True(t, registry.Addresses("eth").Contains("0xbbb0000000000000000000000000000000000002"))
}

func TestRegistryUnknownSymbolYieldsEmptySet(t *testing.T) {
	t.Parallel()

	registry := DefaultExchangeAddressRegistry()
	set := registry.Addresses("ZZZ")

	assert.Equal(t, 0, set.Len())
	assert.False(t, set.Contains(UnknownAddress))
}

func TestDefaultChainMapping(t *testing.T) {
	t.Parallel()

	mapping := DefaultChainMapping()

	chain, ok := mapping.Resolve("btc")
	require.True(t, ok)
	assert.Equal(t, ChainBitcoin, chain)

	chain, ok = mapping.Resolve("USDT")
	require.True(t, ok)
	assert.Equal(t, ChainEthereum, chain)

	_, ok = mapping.Resolve("ZZZ")
	assert.False(t, ok)
}
