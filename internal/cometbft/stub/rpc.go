// Package stub provides an in-memory cometbft.RPCClient for tests.
package stub

import (
	"context"
	"errors"
	"sync"

	"checkers-client/internal/cometbft"
)

// ErrNotFound is returned for query paths without a handler.
var ErrNotFound = errors.New("not found")

// QueryFunc answers one abci_query.
type QueryFunc func(data []byte) ([]byte, error)

// Query records one abci_query call.
type Query struct {
	Path string
	Data []byte
}

// RPCClient implements cometbft.RPCClient for testing.
type RPCClient struct {
	mu         sync.Mutex
	handlers   map[string]QueryFunc
	queries    []Query
	broadcasts [][]byte

	// BroadcastResult is returned by BroadcastTxSync. Nil means code 0.
	BroadcastResult *cometbft.BroadcastResult
	// BroadcastErr, when set, fails BroadcastTxSync.
	BroadcastErr error
	// Height is reported by Status and ABCIQueryAt.
	Height int64
}

var _ cometbft.RPCClient = (*RPCClient)(nil)

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{handlers: make(map[string]QueryFunc)}
}

// Handle registers fn for path.
func (c *RPCClient) Handle(path string, fn QueryFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[path] = fn
}

// Queries returns the abci_query calls made so far.
func (c *RPCClient) Queries() []Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Query(nil), c.queries...)
}

// Broadcasts returns the transactions broadcast so far.
func (c *RPCClient) Broadcasts() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.broadcasts...)
}

// ABCIQuery dispatches to the handler registered for path.
func (c *RPCClient) ABCIQuery(ctx context.Context, path string, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.queries = append(c.queries, Query{Path: path, Data: append([]byte(nil), data...)})
	fn, ok := c.handlers[path]
	c.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return fn(data)
}

// ABCIQueryAt answers like ABCIQuery, at the stub height.
func (c *RPCClient) ABCIQueryAt(ctx context.Context, path string, data []byte, _ int64) (*cometbft.ABCIResponse, error) {
	value, err := c.ABCIQuery(ctx, path, data)
	if err != nil {
		return nil, err
	}
	return &cometbft.ABCIResponse{Value: value, Height: c.Height}, nil
}

// BroadcastTxSync records tx.
func (c *RPCClient) BroadcastTxSync(ctx context.Context, tx []byte) (*cometbft.BroadcastResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.BroadcastErr != nil {
		return nil, c.BroadcastErr
	}
	c.broadcasts = append(c.broadcasts, append([]byte(nil), tx...))
	if c.BroadcastResult != nil {
		res := *c.BroadcastResult
		return &res, nil
	}
	return &cometbft.BroadcastResult{}, nil
}

// Status returns a fixed status.
func (c *RPCClient) Status(context.Context) (*cometbft.Status, error) {
	return &cometbft.Status{Network: "checkers", Moniker: "stub", LatestBlockHeight: c.Height}, nil
}
