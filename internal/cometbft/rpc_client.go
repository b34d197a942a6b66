package cometbft

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// HTTPClient implements RPCClient using HTTP JSON-RPC 2.0.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	requestID   atomic.Uint64
}

var _ RPCClient = (*HTTPClient)(nil)

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a new CometBFT RPC client for endpoint, e.g.
// http://localhost:26657.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest represents a JSON-RPC 2.0 request. CometBFT takes named params.
type rpcRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      uint64         `json:"id"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC 2.0 error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("RPC error %d: %s: %s", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a JSON-RPC call with retries and exponential backoff.
func (c *HTTPClient) call(ctx context.Context, method string, params map[string]any, result any) error {
	if params == nil {
		params = map[string]any{}
	}
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		// CometBFT reports RPC errors with a 500 status and a JSON-RPC body.
		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			if resp.StatusCode != http.StatusOK {
				lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			} else {
				lastErr = fmt.Errorf("unmarshal response: %w", err)
			}
			continue
		}

		if rpcResp.Error != nil {
			// RPC errors are not retried
			return rpcResp.Error
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		if result != nil && rpcResp.Result != nil {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// ABCIQuery runs an application query at the latest height. A non-zero
// application code is returned as *ABCIError.
func (c *HTTPClient) ABCIQuery(ctx context.Context, path string, data []byte) ([]byte, error) {
	resp, err := c.ABCIQueryAt(ctx, path, data, 0)
	if err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, &ABCIError{Path: path, Code: resp.Code, Codespace: resp.Codespace, Log: resp.Log}
	}
	return resp.Value, nil
}

// ABCIQueryAt runs an application query at height and returns the raw
// application response, whatever its code.
func (c *HTTPClient) ABCIQueryAt(ctx context.Context, path string, data []byte, height int64) (*ABCIResponse, error) {
	params := map[string]any{
		"path":   path,
		"data":   hex.EncodeToString(data),
		"height": strconv.FormatInt(height, 10),
		"prove":  false,
	}

	var result abciQueryResult
	if err := c.call(ctx, "abci_query", params, &result); err != nil {
		return nil, err
	}

	r := result.Response
	return &ABCIResponse{
		Code:      r.Code,
		Codespace: r.Codespace,
		Log:       r.Log,
		Key:       r.Key,
		Value:     r.Value,
		Height:    int64(r.Height),
	}, nil
}

// abciQueryResult is the raw RPC response for abci_query.
type abciQueryResult struct {
	Response struct {
		Code      uint32      `json:"code"`
		Log       string      `json:"log"`
		Key       []byte      `json:"key"`
		Value     []byte      `json:"value"`
		Height    stringInt64 `json:"height"`
		Codespace string      `json:"codespace"`
	} `json:"response"`
}

// BroadcastTxSync submits tx and returns its CheckTx result. A non-zero code
// is reported in the result, not as an error.
func (c *HTTPClient) BroadcastTxSync(ctx context.Context, tx []byte) (*BroadcastResult, error) {
	params := map[string]any{
		// []byte marshals to base64, which is what the endpoint expects.
		"tx": tx,
	}

	var result broadcastTxResult
	if err := c.call(ctx, "broadcast_tx_sync", params, &result); err != nil {
		return nil, err
	}

	data, err := hex.DecodeString(result.Data)
	if err != nil {
		return nil, fmt.Errorf("decode tx data: %w", err)
	}

	return &BroadcastResult{
		Code:      result.Code,
		Codespace: result.Codespace,
		Log:       result.Log,
		Data:      data,
		Hash:      result.Hash,
	}, nil
}

type broadcastTxResult struct {
	Code      uint32 `json:"code"`
	Data      string `json:"data"` // hex
	Log       string `json:"log"`
	Codespace string `json:"codespace"`
	Hash      string `json:"hash"`
}

// Status retrieves the node status.
func (c *HTTPClient) Status(ctx context.Context) (*Status, error) {
	var result statusResult
	if err := c.call(ctx, "status", nil, &result); err != nil {
		return nil, err
	}
	return &Status{
		Network:           result.NodeInfo.Network,
		Moniker:           result.NodeInfo.Moniker,
		LatestBlockHeight: int64(result.SyncInfo.LatestBlockHeight),
		CatchingUp:        result.SyncInfo.CatchingUp,
	}, nil
}

type statusResult struct {
	NodeInfo struct {
		Network string `json:"network"`
		Moniker string `json:"moniker"`
	} `json:"node_info"`
	SyncInfo struct {
		LatestBlockHeight stringInt64 `json:"latest_block_height"`
		CatchingUp        bool        `json:"catching_up"`
	} `json:"sync_info"`
}

// stringInt64 decodes the quoted integers CometBFT uses for heights. Bare
// numbers are accepted too.
type stringInt64 int64

func (s *stringInt64) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	str := string(bytes.Trim(b, `"`))
	if str == "" {
		*s = 0
		return nil
	}
	v, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return fmt.Errorf("parse int64 %s: %w", b, err)
	}
	*s = stringInt64(v)
	return nil
}
