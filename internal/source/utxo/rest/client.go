package rest

import (
	"context"
	"fmt"
	"strings"

	"github.com/marketlens/whale-engine/internal/fetch"
)

// RESTClient is the explorer surface the UTXO adapter consumes.
type RESTClient interface {
	GetRecentBlocks(ctx context.Context) ([]BlockSummary, error)
	GetBlock(ctx context.Context, hash string) (*Block, error)
	GetUnconfirmedTransactions(ctx context.Context) ([]*Tx, error)
}

// Client talks to an unauthenticated blockchain.info-style explorer
// through the resilient fetch client.
type Client struct {
	fetcher *fetch.Client
	baseURL string
	nowMsFn func() int64
}

var _ RESTClient = (*Client)(nil)

func NewClient(fetcher *fetch.Client, baseURL string, nowMsFn func() int64) *Client {
	return &Client{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
		nowMsFn: nowMsFn,
	}
}

// GetRecentBlocks returns summaries of the most recently mined blocks,
// newest first.
func (c *Client) GetRecentBlocks(ctx context.Context) ([]BlockSummary, error) {
	url := fmt.Sprintf("%s/blocks/%d?format=json", c.baseURL, c.nowMsFn())
	var blocks []BlockSummary
	if err := c.fetcher.GetJSON(ctx, url, &blocks); err != nil {
		return nil, fmt.Errorf("recent blocks: %w", err)
	}
	return blocks, nil
}

// GetBlock returns full block contents by hash.
func (c *Client) GetBlock(ctx context.Context, hash string) (*Block, error) {
	url := fmt.Sprintf("%s/rawblock/%s", c.baseURL, hash)
	var block Block
	if err := c.fetcher.GetJSON(ctx, url, &block); err != nil {
		return nil, fmt.Errorf("block %s: %w", hash, err)
	}
	return &block, nil
}

// GetUnconfirmedTransactions returns the current mempool sample.
func (c *Client) GetUnconfirmedTransactions(ctx context.Context) ([]*Tx, error) {
	url := c.baseURL + "/unconfirmed-transactions?format=json"
	var resp unconfirmedResponse
	if err := c.fetcher.GetJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("unconfirmed transactions: %w", err)
	}
	return resp.Txs, nil
}
