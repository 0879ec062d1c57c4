package model

// NetFlow is the aggregate directional bias of observed whale activity.
type NetFlow string

const (
	NetFlowBuying   NetFlow = "NET_BUYING"
	NetFlowSelling  NetFlow = "NET_SELLING"
	NetFlowBalanced NetFlow = "BALANCED"
	NetFlowMixed    NetFlow = "MIXED"
	NetFlowNoData   NetFlow = "NO_DATA"
)

func (n NetFlow) String() string {
	return string(n)
}

// SourceLabel identifies which data source ultimately backed a result.
type SourceLabel string

const (
	SourceWhaleAlert    SourceLabel = "whale-alert"
	SourceBlockchainAPI SourceLabel = "blockchain-api"
	SourceMulti         SourceLabel = "multi-source"
	SourceDerived       SourceLabel = "derived"
)

func (s SourceLabel) String() string {
	return string(s)
}

// TimeWindow24h is the fixed observation window reported by this engine.
const TimeWindow24h = "24h"

// MaxSampleTransactions bounds the sample list carried in a result.
const MaxSampleTransactions = 10

// WhaleActivityResult is the aggregate returned to the caller. Computed
// fresh per request; caching belongs to the calling collaborator.
type WhaleActivityResult struct {
	Symbol                string             `json:"symbol"`
	BuyingPercent         int                `json:"buyingPercent"`
	SellingPercent        int                `json:"sellingPercent"`
	NetFlow               NetFlow            `json:"netFlow"`
	TotalBuyVolumeUsd     float64            `json:"totalBuyVolumeUsd"`
	TotalSellVolumeUsd    float64            `json:"totalSellVolumeUsd"`
	TransactionCount      int                `json:"transactionCount"`
	LargestTransactionUsd float64            `json:"largestTransactionUsd"`
	TimeWindow            string             `json:"timeWindow"`
	Source                SourceLabel        `json:"source"`
	SampleTransactions    []WhaleTransaction `json:"sampleTransactions"`
	IsLive                bool               `json:"isLive"`
	DataAgeMs             int64              `json:"dataAgeMs"`
}
