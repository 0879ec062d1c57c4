package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	exchanges := NewAddressSet(
		"0x28C6c06298d514Db089934071355E5743bf21d60",
		"34xp4vRoCGJym3xR7yCVPFHoCNxv4Twseo",
	)

	tests := []struct {
		name     string
		from     string
		to       string
		expected Classification
	}{
		{"exchange → wallet = BUY", "0x28c6c06298d514db089934071355e5743bf21d60", "0xabc0000000000000000000000000000000000001", ClassificationBuy},
		{"wallet → exchange = SELL", "0xabc0000000000000000000000000000000000001", "0x28c6c06298d514db089934071355e5743bf21d60", ClassificationSell},
		{"wallet → wallet = TRANSFER", "0xabc0000000000000000000000000000000000001", "0xabc0000000000000000000000000000000000002", ClassificationTransfer},
		{"exchange → exchange = TRANSFER", "0x28c6c06298d514db089934071355e5743bf21d60", "34xp4vRoCGJym3xR7yCVPFHoCNxv4Twseo", ClassificationTransfer},
		{"hex lookup is case-insensitive", "0x28C6C06298D514DB089934071355E5743BF21D60", "0xabc0000000000000000000000000000000000001", ClassificationBuy},
		{"base58 lookup is exact", "34XP4VROCGJYM3XR7YCVPFHOCNXV4TWSEO", "0xabc0000000000000000000000000000000000001", ClassificationTransfer},
		{"both unknown = TRANSFER", UnknownAddress, UnknownAddress, ClassificationTransfer},
		{"empty addresses = TRANSFER", "", "", ClassificationTransfer},
		{"btc exchange → wallet = BUY", "34xp4vRoCGJym3xR7yCVPFHoCNxv4Twseo", "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", ClassificationBuy},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Classify(tc.from, tc.to, exchanges))
		})
	}
}

func TestClassifyEmptySetDefaultsToTransfer(t *testing.T) {
	t.Parallel()

	empty := NewAddressSet()
	assert.Equal(t, ClassificationTransfer, Classify("0xaaa0000000000000000000000000000000000001", "0xbbb0000000000000000000000000000000000002", empty))
}

func TestClassifyByOwnerType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		from     string
		to       string
		expected Classification
	}{
		{"exchange → unknown = BUY", "exchange", "unknown", ClassificationBuy},
		{"unknown → exchange = SELL", "unknown", "exchange", ClassificationSell},
		{"exchange → exchange = TRANSFER", "exchange", "exchange", ClassificationTransfer},
		{"unknown → unknown = TRANSFER", "unknown", "unknown", ClassificationTransfer},
		{"case-insensitive owner type", "Exchange", "wallet", ClassificationBuy},
		{"empty owner types = TRANSFER", "", "", ClassificationTransfer},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ClassifyByOwnerType(tc.from, tc.to))
		})
	}
}
