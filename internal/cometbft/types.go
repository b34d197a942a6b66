package cometbft

import "fmt"

// ABCIResponse is the application answer to an abci_query.
type ABCIResponse struct {
	Code      uint32
	Codespace string
	Log       string
	Key       []byte
	Value     []byte
	Height    int64
}

// BroadcastResult is the CheckTx outcome of broadcast_tx_sync.
type BroadcastResult struct {
	Code      uint32
	Codespace string
	Log       string
	Data      []byte
	Hash      string
}

// Status is the subset of the node status the client uses.
type Status struct {
	Network           string
	Moniker           string
	LatestBlockHeight int64
	CatchingUp        bool
}

// ABCIError is returned when the application answers a query with a
// non-zero code.
type ABCIError struct {
	Path      string
	Code      uint32
	Codespace string
	Log       string
}

func (e *ABCIError) Error() string {
	return fmt.Sprintf("abci query %s: code %d (%s): %s", e.Path, e.Code, e.Codespace, e.Log)
}
