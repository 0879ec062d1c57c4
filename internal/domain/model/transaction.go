package model

import "strings"

// MinWhaleValueUsd is the floor below which a transfer is not a whale
// transaction. Adapters discard sub-threshold transfers before returning.
const MinWhaleValueUsd = 1_000_000

// UnknownAddress is the placeholder used when a provider omits an endpoint.
const UnknownAddress = "unknown"

// Classification is the direction assigned to a whale transaction.
type Classification string

const (
	ClassificationBuy      Classification = "BUY"
	ClassificationSell     Classification = "SELL"
	ClassificationTransfer Classification = "TRANSFER"
)

func (c Classification) String() string {
	return string(c)
}

// WhaleTransaction is one observed large transfer, normalized from a
// provider payload. Created transiently per request and never persisted.
type WhaleTransaction struct {
	Hash           string         `json:"hash"`
	Timestamp      int64          `json:"timestamp"` // ms since epoch
	ValueUsd       float64        `json:"valueUsd"`
	ValueNative    float64        `json:"valueNative"`
	FromAddress    string         `json:"fromAddress"`
	ToAddress      string         `json:"toAddress"`
	Classification Classification `json:"classification"`
	Chain          Chain          `json:"chain"`
	Symbol         string         `json:"symbol"`
}

// IsWhale reports whether the transaction meets the aggregation threshold.
func (t WhaleTransaction) IsWhale() bool {
	return t.ValueUsd >= MinWhaleValueUsd
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// NormalizeSymbol canonicalizes an asset symbol for table lookups and
// result reporting.
func NormalizeSymbol(symbol string) string {
	return normalizeSymbol(symbol)
}
