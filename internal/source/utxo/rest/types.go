package rest

// Blockchain.info-style explorer payloads. Values are in satoshi unless
// noted; times are unix seconds.

type BlockSummary struct {
	Hash   string `json:"hash"`
	Height int64  `json:"height"`
	Time   int64  `json:"time"`
}

type Block struct {
	Hash   string `json:"hash"`
	Height int64  `json:"height"`
	Time   int64  `json:"time"`
	Tx     []*Tx  `json:"tx"`
}

type Tx struct {
	Hash    string    `json:"hash"`
	Time    int64     `json:"time"`
	Inputs  []*Input  `json:"inputs"`
	Out     []*Output `json:"out"`
	TxIndex int64     `json:"tx_index"`
}

type Input struct {
	PrevOut *Output `json:"prev_out"`
}

type Output struct {
	Value int64  `json:"value"`
	Addr  string `json:"addr"`
}

type unconfirmedResponse struct {
	Txs []*Tx `json:"txs"`
}
