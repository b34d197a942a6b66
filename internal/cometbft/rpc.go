package cometbft

import "context"

// RPCClient defines the CometBFT JSON-RPC HTTP interface used by the client.
type RPCClient interface {
	// ABCIQuery runs an application query at the latest height and returns
	// the response value.
	ABCIQuery(ctx context.Context, path string, data []byte) ([]byte, error)

	// ABCIQueryAt runs an application query at the given height (0 for latest).
	ABCIQueryAt(ctx context.Context, path string, data []byte, height int64) (*ABCIResponse, error)

	// BroadcastTxSync submits a signed transaction and waits for CheckTx.
	BroadcastTxSync(ctx context.Context, tx []byte) (*BroadcastResult, error)

	// Status returns the node status.
	Status(ctx context.Context) (*Status, error)
}
