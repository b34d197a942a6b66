package cometbft

import (
	"context"
	"time"
)

// NewBlockQuery is the event query matching every committed block.
const NewBlockQuery = "tm.event='NewBlock'"

// WSClient defines the CometBFT websocket subscription interface.
type WSClient interface {
	// SubscribeNewBlocks subscribes to committed block headers.
	SubscribeNewBlocks(ctx context.Context) (<-chan NewBlockEvent, error)

	// Close closes the WebSocket connection.
	Close() error
}

// NewBlockEvent is emitted once per committed block.
type NewBlockEvent struct {
	Height  int64
	Time    time.Time
	ChainID string
}
