package model

import "strings"

// Classify assigns a direction to a transfer based on which endpoints
// belong to a known exchange custody set.
//
// Withdrawal from an exchange reads as accumulation by the withdrawing
// party (BUY); a deposit to an exchange reads as preparation to sell
// (SELL); whale-to-whale and exchange-to-exchange movement is TRANSFER.
// Total: always returns exactly one of the three values, including when
// both addresses are "unknown".
func Classify(fromAddress, toAddress string, exchangeAddresses AddressSet) Classification {
	fromExchange := exchangeAddresses.Contains(fromAddress)
	toExchange := exchangeAddresses.Contains(toAddress)

	switch {
	case fromExchange && !toExchange:
		return ClassificationBuy
	case toExchange && !fromExchange:
		return ClassificationSell
	default:
		return ClassificationTransfer
	}
}

// OwnerTypeExchange is the provider-supplied counterparty type used by
// premium aggregators in place of the local address registry.
const OwnerTypeExchange = "exchange"

// ClassifyByOwnerType assigns a direction from provider counterparty
// metadata. Same shape as Classify: exchange-only source means BUY,
// exchange-only destination means SELL, anything else is TRANSFER.
func ClassifyByOwnerType(fromOwnerType, toOwnerType string) Classification {
	fromExchange := strings.EqualFold(strings.TrimSpace(fromOwnerType), OwnerTypeExchange)
	toExchange := strings.EqualFold(strings.TrimSpace(toOwnerType), OwnerTypeExchange)

	switch {
	case fromExchange && !toExchange:
		return ClassificationBuy
	case toExchange && !fromExchange:
		return ClassificationSell
	default:
		return ClassificationTransfer
	}
}
