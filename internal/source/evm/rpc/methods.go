package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// BlockNumber returns the latest block number on chain.
func (c *Client) BlockNumber(ctx context.Context) (int64, error) {
	result, err := c.call(ctx, "eth_blockNumber", []interface{}{})
	if err != nil {
		return 0, fmt.Errorf("eth_blockNumber: %w", err)
	}

	var hex string
	if err := json.Unmarshal(result, &hex); err != nil {
		return 0, fmt.Errorf("unmarshal block number: %w", err)
	}
	return ParseHexInt64(hex)
}

// GetBlockByNumber returns a block; fullTx controls whether transaction
// objects are inlined or only hashes.
func (c *Client) GetBlockByNumber(ctx context.Context, number int64, fullTx bool) (*Block, error) {
	params := []interface{}{HexInt64(number), fullTx}
	result, err := c.call(ctx, "eth_getBlockByNumber", params)
	if err != nil {
		return nil, fmt.Errorf("eth_getBlockByNumber(%d): %w", number, err)
	}
	if string(result) == "null" {
		return nil, nil
	}

	var block Block
	if err := json.Unmarshal(result, &block); err != nil {
		return nil, fmt.Errorf("unmarshal block %d: %w", number, err)
	}
	return &block, nil
}

// GetLogs returns logs matching the filter.
func (c *Client) GetLogs(ctx context.Context, filter LogFilter) ([]Log, error) {
	result, err := c.call(ctx, "eth_getLogs", []interface{}{filter})
	if err != nil {
		return nil, fmt.Errorf("eth_getLogs: %w", err)
	}

	var logs []Log
	if err := json.Unmarshal(result, &logs); err != nil {
		return nil, fmt.Errorf("unmarshal logs: %w", err)
	}
	return logs, nil
}

// HexInt64 renders a block number as an 0x-hex quantity.
func HexInt64(v int64) string {
	return fmt.Sprintf("0x%x", v)
}

// ParseHexInt64 parses an 0x-hex quantity into an int64.
func ParseHexInt64(hex string) (int64, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(hex), "0x")
	if trimmed == "" {
		return 0, fmt.Errorf("empty hex quantity")
	}
	v, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return 0, fmt.Errorf("invalid hex quantity %q", hex)
	}
	if !v.IsInt64() {
		return 0, fmt.Errorf("hex quantity %q out of range", hex)
	}
	return v.Int64(), nil
}

// ParseHexAmount parses an 0x-hex amount and scales it down by the given
// number of decimals into a float64 display value.
func ParseHexAmount(hex string, decimals int) (float64, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(hex), "0x")
	if trimmed == "" {
		return 0, fmt.Errorf("empty hex amount")
	}
	v, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return 0, fmt.Errorf("invalid hex amount %q", hex)
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	amount := new(big.Float).Quo(new(big.Float).SetInt(v), new(big.Float).SetInt(scale))
	result, _ := amount.Float64()
	return result, nil
}
