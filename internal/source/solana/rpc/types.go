package rpc

import "encoding/json"

type Request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error,omitempty"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return e.Message
}

// Block is a getBlock result with jsonParsed transaction encoding.
type Block struct {
	Blockhash    string            `json:"blockhash"`
	ParentSlot   int64             `json:"parentSlot"`
	BlockTime    *int64            `json:"blockTime"`
	Transactions []*TransactionEnv `json:"transactions"`
}

// TransactionEnv wraps one transaction together with its meta.
type TransactionEnv struct {
	Transaction Transaction `json:"transaction"`
	Meta        *Meta       `json:"meta"`
}

type Transaction struct {
	Signatures []string `json:"signatures"`
	Message    Message  `json:"message"`
}

type Message struct {
	Instructions []Instruction `json:"instructions"`
}

// Instruction is a jsonParsed instruction. Parsed is only populated for
// programs the node knows how to decode (system, spl-token and friends);
// raw instructions leave it empty.
type Instruction struct {
	Program   string          `json:"program"`
	ProgramID string          `json:"programId"`
	Parsed    json.RawMessage `json:"parsed"`
}

// ParsedInstruction is the decoded payload of a parsed instruction.
type ParsedInstruction struct {
	Type string          `json:"type"`
	Info json.RawMessage `json:"info"`
}

// SystemTransferInfo is parsed.info for system program "transfer".
type SystemTransferInfo struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Lamports    uint64 `json:"lamports"`
}

// TokenTransferInfo is parsed.info for spl-token "transferChecked".
type TokenTransferInfo struct {
	Source      string      `json:"source"`
	Destination string      `json:"destination"`
	Authority   string      `json:"authority"`
	Mint        string      `json:"mint"`
	TokenAmount TokenAmount `json:"tokenAmount"`
}

type TokenAmount struct {
	Amount   string   `json:"amount"`
	Decimals int      `json:"decimals"`
	UIAmount *float64 `json:"uiAmount"`
}

type Meta struct {
	Err json.RawMessage `json:"err"`
}

// Failed reports whether the transaction errored on chain.
func (m *Meta) Failed() bool {
	return m != nil && len(m.Err) > 0 && string(m.Err) != "null"
}
