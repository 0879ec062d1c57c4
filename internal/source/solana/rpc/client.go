// Package rpc is a minimal Solana JSON-RPC client covering the block
// scan surface: getSlot, getBlocks and getBlock with jsonParsed
// transaction encoding.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/marketlens/whale-engine/internal/fetch"
)

// RPCClient is the Solana node surface the adapter consumes.
type RPCClient interface {
	GetSlot(ctx context.Context) (int64, error)
	GetBlocks(ctx context.Context, startSlot, endSlot int64) ([]int64, error)
	GetBlock(ctx context.Context, slot int64) (*Block, error)
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

// GetSlot returns the current slot at finalized commitment.
func (c *Client) GetSlot(ctx context.Context) (int64, error) {
	result, err := c.call(ctx, "getSlot", []interface{}{
		map[string]string{"commitment": "finalized"},
	})
	if err != nil {
		return 0, fmt.Errorf("getSlot: %w", err)
	}

	var slot int64
	if err := json.Unmarshal(result, &slot); err != nil {
		return 0, fmt.Errorf("unmarshal slot: %w", err)
	}
	return slot, nil
}

// GetBlocks returns the confirmed block slots in [startSlot, endSlot].
// Slots skipped by the cluster are absent from the result.
func (c *Client) GetBlocks(ctx context.Context, startSlot, endSlot int64) ([]int64, error) {
	result, err := c.call(ctx, "getBlocks", []interface{}{startSlot, endSlot})
	if err != nil {
		return nil, fmt.Errorf("getBlocks(%d, %d): %w", startSlot, endSlot, err)
	}

	var slots []int64
	if err := json.Unmarshal(result, &slots); err != nil {
		return nil, fmt.Errorf("unmarshal slots: %w", err)
	}
	return slots, nil
}

// GetBlock returns the block at slot with jsonParsed transactions, or
// nil when the slot was skipped.
func (c *Client) GetBlock(ctx context.Context, slot int64) (*Block, error) {
	params := []interface{}{slot, map[string]interface{}{
		"encoding":                       "jsonParsed",
		"transactionDetails":             "full",
		"maxSupportedTransactionVersion": 0,
		"rewards":                        false,
	}}
	result, err := c.call(ctx, "getBlock", params)
	if err != nil {
		return nil, fmt.Errorf("getBlock(%d): %w", slot, err)
	}
	if string(result) == "null" {
		return nil, nil
	}

	var block Block
	if err := json.Unmarshal(result, &block); err != nil {
		return nil, fmt.Errorf("unmarshal block %d: %w", slot, err)
	}
	return &block, nil
}
