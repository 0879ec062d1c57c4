package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/marketlens/whale-engine/internal/fetch"
)

// RPCClient is the Etherscan-compatible JSON-RPC proxy surface the EVM
// adapter consumes.
type RPCClient interface {
	BlockNumber(ctx context.Context) (int64, error)
	GetBlockByNumber(ctx context.Context, number int64, fullTx bool) (*Block, error)
	GetLogs(ctx context.Context, filter LogFilter) ([]Log, error)
}

// Client issues JSON-RPC calls through the resilient fetch client.
type Client struct {
	fetcher   *fetch.Client
	rpcURL    string
	requestID atomic.Int64
}

var _ RPCClient = (*Client)(nil)

func NewClient(fetcher *fetch.Client, rpcURL string) *Client {
	return &Client{
		fetcher: fetcher,
		rpcURL:  rpcURL,
	}
}

func (c *Client) call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	req := Request{
		JSONRPC: "2.0",
		ID:      int(c.requestID.Add(1)),
		Method:  method,
		Params:  params,
	}

	body, err := c.fetcher.PostJSON(ctx, c.rpcURL, req)
	if err != nil {
		return nil, err
	}

	var rpcResp Response
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	return rpcResp.Result, nil
}
