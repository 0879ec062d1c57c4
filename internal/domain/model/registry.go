package model

import "strings"

// AddressSet is an immutable membership set of custodial addresses.
// Hex-encoded addresses match case-insensitively; base58/bech32
// addresses match exactly (their checksums are case-sensitive).
type AddressSet struct {
	members map[string]struct{}
}

// NewAddressSet builds a set from raw addresses. Empty and duplicate
// entries are dropped.
func NewAddressSet(addresses ...string) AddressSet {
	members := make(map[string]struct{}, len(addresses))
	for _, addr := range addresses {
		identity := addressIdentity(addr)
		if identity == "" {
			continue
		}
		members[identity] = struct{}{}
	}
	return AddressSet{members: members}
}

// Contains reports set membership for an address.
func (s AddressSet) Contains(address string) bool {
	if len(s.members) == 0 {
		return false
	}
	_, ok := s.members[addressIdentity(address)]
	return ok
}

// Len returns the number of distinct addresses in the set.
func (s AddressSet) Len() int {
	return len(s.members)
}

// addressIdentity canonicalizes an address for membership checks.
// 0x-prefixed and bare 40-char hex addresses lowercase; anything else
// (base58, bech32) keeps its exact form. The 40-char constraint keeps
// bech32 strings, which are longer, out of the hex path.
func addressIdentity(address string) string {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		return "0x" + strings.ToLower(trimmed[2:])
	}
	if len(trimmed) == 40 && isHexString(trimmed) {
		return "0x" + strings.ToLower(trimmed)
	}
	return trimmed
}

func isHexString(v string) bool {
	for _, ch := range v {
		switch {
		case ch >= '0' && ch <= '9':
		case ch >= 'a' && ch <= 'f':
		case ch >= 'A' && ch <= 'F':
		default:
			return false
		}
	}
	return true
}

// ExchangeAddressRegistry holds per-symbol custodial address sets used to
// decide transaction direction. Keyed by SYMBOL rather than chain: tokens
// settling on the same chain are tracked at different exchange hot
// wallets. Loaded once at process start and immutable during a request.
type ExchangeAddressRegistry struct {
	bySymbol map[string]AddressSet
}

// NewExchangeAddressRegistry builds a registry from per-symbol sets.
func NewExchangeAddressRegistry(bySymbol map[string]AddressSet) *ExchangeAddressRegistry {
	normalized := make(map[string]AddressSet, len(bySymbol))
	for symbol, set := range bySymbol {
		normalized[normalizeSymbol(symbol)] = set
	}
	return &ExchangeAddressRegistry{bySymbol: normalized}
}

// Addresses returns the custodial set for a symbol. An empty set is a
// valid answer and means every transaction classifies as TRANSFER.
func (r *ExchangeAddressRegistry) Addresses(symbol string) AddressSet {
	if r == nil {
		return AddressSet{}
	}
	return r.bySymbol[normalizeSymbol(symbol)]
}

// DefaultExchangeAddressRegistry returns the built-in registry of known
// exchange hot/cold wallets per tracked symbol.
func DefaultExchangeAddressRegistry() *ExchangeAddressRegistry {
	ethereumHotWallets := []string{
		"0x28c6c06298d514db089934071355e5743bf21d60", // Binance 14
		"0x21a31ee1afc51d94c2efccaa2092ad1028285549", // Binance 15
		"0xdfd5293d8e347dfe59e90efd55b2956a1343963d", // Binance 16
		"0x2910543af39aba0cd09dbb2d50200b3e800a63d2", // Kraken
		"0x742d35cc6634c0532925a3b844bc454e4438f44e", // Bitfinex
		"0x71660c4005ba85c37ccec55d0c4493e66fe775d3", // Coinbase
		"0x6cc5f688a315f3dc28a7781717a9a798a59fda7b", // OKX
		"0x5a52e96bacdabb82fd05763e25335261b270efcb", // Binance 28
	}

	return NewExchangeAddressRegistry(map[string]AddressSet{
		"BTC": NewAddressSet(
			"34xp4vRoCGJym3xR7yCVPFHoCNxv4Twseo", // Binance cold
			"3M219KR5vEneNb47ewrPfWyb5jQ2DjxRP6", // Binance
			"bc1qgdjqv0av3q56jvd82tkdjpy7gdp9ut8tlqmgrpmv24sq90ecnvqqjwvw97", // Bitfinex
			"1FzWLkAahHooV3kzTgyx6qsswXJ6sCXkSR",                             // Kraken
			"3Kzh9qAqVWQhEsfQz7zEQL1EuSx5tyNLNS",                             // OKX
		),
		"ETH":  NewAddressSet(ethereumHotWallets...),
		"USDT": NewAddressSet(ethereumHotWallets...),
		"USDC": NewAddressSet(ethereumHotWallets...),
		"SOL": NewAddressSet(
			"5tzFkiKscXHK5ZXCGbXZxdw7gTjjD1mBwuoFbhUvuAi9", // Binance
			"9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM", // Binance
			"GJRs4FwHtemZ5ZE9x3FNvJ8TMwitKTh21yxdRPqn7npE", // Coinbase
			"FWznbcNXWQuHTawe9RxvQ2LdCENssh12dsznf4RiouN5", // Kraken
			"5VCwKtCXgCJ6kit5FybXjvFnPXCrKoKwFqgq5YVe1rAS", // OKX
			"AC5RDfQFmDS1deWZos921JfqscXdByf6BKHAbETSYnh7", // Bybit
		),
	})
}
