package model

// Chain is a canonical settlement-chain identifier.
type Chain string

const (
	ChainBitcoin     Chain = "bitcoin"
	ChainEthereum    Chain = "ethereum"
	ChainSolana      Chain = "solana"
	ChainLitecoin    Chain = "litecoin"
	ChainDogecoin    Chain = "dogecoin"
	ChainBitcoinCash Chain = "bitcoin-cash"
	ChainCardano     Chain = "cardano"
	ChainBSC         Chain = "bsc"
	ChainPolygon     Chain = "polygon"
	ChainAvalanche   Chain = "avalanche"
	ChainArbitrum    Chain = "arbitrum"
	ChainOptimism    Chain = "optimism"
)

func (c Chain) String() string {
	return string(c)
}

// ChainMapping maps an uppercase asset symbol to its settlement chain.
// Multiple symbols may map to the same chain (tokens native to a
// smart-contract chain). Immutable after construction; a missing entry
// means the asset is unsupported.
type ChainMapping map[string]Chain

// Resolve returns the settlement chain for a symbol, or false when the
// symbol has no mapping.
func (m ChainMapping) Resolve(symbol string) (Chain, bool) {
	chain, ok := m[normalizeSymbol(symbol)]
	return chain, ok
}

// DefaultChainMapping returns the built-in symbol to chain table.
func DefaultChainMapping() ChainMapping {
	return ChainMapping{
		"BTC":   ChainBitcoin,
		"ETH":   ChainEthereum,
		"USDT":  ChainEthereum,
		"USDC":  ChainEthereum,
		"LINK":  ChainEthereum,
		"UNI":   ChainEthereum,
		"SHIB":  ChainEthereum,
		"SOL":   ChainSolana,
		"LTC":   ChainLitecoin,
		"DOGE":  ChainDogecoin,
		"BCH":   ChainBitcoinCash,
		"ADA":   ChainCardano,
		"BNB":   ChainBSC,
		"MATIC": ChainPolygon,
		"POL":   ChainPolygon,
		"AVAX":  ChainAvalanche,
		"ARB":   ChainArbitrum,
		"OP":    ChainOptimism,
	}
}

// TokenContracts maps an uppercase ERC-20 symbol to its contract address
// on the symbol's settlement chain. Native-asset symbols have no entry.
type TokenContracts map[string]string

// Contract returns the ERC-20 contract address for a symbol, or false
// for native assets.
func (t TokenContracts) Contract(symbol string) (string, bool) {
	addr, ok := t[normalizeSymbol(symbol)]
	return addr, ok
}

// DefaultTokenContracts returns the built-in ERC-20 contract table.
func DefaultTokenContracts() TokenContracts {
	return TokenContracts{
		"USDT": "0xdac17f958d2ee523a2206206994597c13d831ec7",
		"USDC": "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
		"LINK": "0x514910771af9ca656af840dff83e8264ecf986ca",
		"UNI":  "0x1f9840a85d5af5bf1d1762f925bdaddc4201f984",
		"SHIB": "0x95ad61b0a150d79219dca64e9c19a2f7f37a2fbc",
	}
}

// SPLMints maps an uppercase symbol to its SPL token mint on Solana.
// SOL itself moves through the system program and has no mint entry.
type SPLMints map[string]string

// Mint returns the SPL mint address for a symbol, or false when the
// symbol moves as native SOL.
func (m SPLMints) Mint(symbol string) (string, bool) {
	mint, ok := m[normalizeSymbol(symbol)]
	return mint, ok
}

// DefaultSPLMints returns the built-in SPL mint table.
func DefaultSPLMints() SPLMints {
	return SPLMints{
		"USDC": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		"USDT": "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB",
	}
}
