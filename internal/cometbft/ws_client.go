package cometbft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ErrClientClosed is returned by operations on a closed WSClientImpl.
var ErrClientClosed = errors.New("client closed")

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// SubscribeTimeout bounds the wait for a subscription confirmation.
	SubscribeTimeout time.Duration
	// Logger receives connection and protocol errors. Nil means slog.Default().
	Logger *slog.Logger
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		SubscribeTimeout:  30 * time.Second,
	}
}

// WSClientImpl implements WSClient using gorilla/websocket.
type WSClientImpl struct {
	endpoint string
	config   WSClientConfig
	logger   *slog.Logger

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// subs maps an event query to its subscriber channel. Queries survive
	// reconnects and are resubscribed.
	subs   map[string]chan NewBlockEvent
	subsMu sync.RWMutex

	// pendingSubs maps request ID to channel waiting for the confirmation
	pendingSubs   map[uint64]chan error
	pendingSubsMu sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
}

var _ WSClient = (*WSClientImpl)(nil)

// NewWSClient creates a new WebSocket client and connects to endpoint, e.g.
// ws://localhost:26657/websocket.
func NewWSClient(ctx context.Context, endpoint string, config *WSClientConfig) (*WSClientImpl, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.SubscribeTimeout <= 0 {
		cfg.SubscribeTimeout = DefaultWSConfig().SubscribeTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &WSClientImpl{
		endpoint:    endpoint,
		config:      cfg,
		logger:      logger.With("component", "cometbft.ws"),
		subs:        make(map[string]chan NewBlockEvent),
		pendingSubs: make(map[uint64]chan error),
		done:        make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

// connect establishes WebSocket connection.
func (c *WSClientImpl) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	})

	c.conn = conn
	return nil
}

// SubscribeNewBlocks subscribes to NewBlock events. The returned channel is
// closed by Close.
func (c *WSClientImpl) SubscribeNewBlocks(ctx context.Context) (<-chan NewBlockEvent, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}

	// Blocking send ensures no event loss; buffer absorbs bursts.
	ch := make(chan NewBlockEvent, 1024)

	// Registered before the request so a reconnect racing the confirmation
	// still resubscribes it.
	c.subsMu.Lock()
	if _, exists := c.subs[NewBlockQuery]; exists {
		c.subsMu.Unlock()
		return nil, fmt.Errorf("already subscribed to %s", NewBlockQuery)
	}
	c.subs[NewBlockQuery] = ch
	c.subsMu.Unlock()

	if err := c.subscribe(ctx, NewBlockQuery); err != nil {
		c.subsMu.Lock()
		if c.subs[NewBlockQuery] == ch {
			delete(c.subs, NewBlockQuery)
		}
		c.subsMu.Unlock()
		return nil, err
	}

	return ch, nil
}

// subscribe sends a subscribe request and waits for its confirmation.
func (c *WSClientImpl) subscribe(ctx context.Context, query string) error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	reqID := c.requestID.Add(1)
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "subscribe",
		Params:  map[string]any{"query": query},
	}

	confirmCh := make(chan error, 1)
	c.pendingSubsMu.Lock()
	c.pendingSubs[reqID] = confirmCh
	c.pendingSubsMu.Unlock()

	dropPending := func() {
		c.pendingSubsMu.Lock()
		delete(c.pendingSubs, reqID)
		c.pendingSubsMu.Unlock()
	}

	c.connMu.Lock()
	if c.conn == nil {
		c.connMu.Unlock()
		dropPending()
		return fmt.Errorf("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	err := c.conn.WriteJSON(req)
	c.connMu.Unlock()

	if err != nil {
		dropPending()
		return fmt.Errorf("write subscribe: %w", err)
	}

	timer := time.NewTimer(c.config.SubscribeTimeout)
	defer timer.Stop()

	select {
	case err, ok := <-confirmCh:
		if !ok {
			return ErrClientClosed
		}
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", query, err)
		}
		return nil
	case <-timer.C:
		dropPending()
		return fmt.Errorf("subscription timeout after %s", c.config.SubscribeTimeout)
	case <-c.done:
		return ErrClientClosed
	case <-ctx.Done():
		dropPending()
		return ctx.Err()
	}
}

// Close closes the WebSocket connection and every subscription channel.
func (c *WSClientImpl) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	// Subscription channels are closed once no goroutine can send on them.
	c.wg.Wait()

	c.subsMu.Lock()
	for query, ch := range c.subs {
		close(ch)
		delete(c.subs, query)
	}
	c.subsMu.Unlock()

	c.pendingSubsMu.Lock()
	for id, ch := range c.pendingSubs {
		close(ch)
		delete(c.pendingSubs, id)
	}
	c.pendingSubsMu.Unlock()

	return nil
}

// readLoop reads messages from WebSocket and dispatches to subscribers.
func (c *WSClientImpl) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			// A failed reconnect leaves no connection; schedule another.
			c.scheduleReconnect(&reconnectDelay, nil)
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			// A failed gorilla connection must not be read again.
			c.connMu.Lock()
			if c.conn == conn {
				c.conn.Close()
				c.conn = nil
			}
			c.connMu.Unlock()

			c.scheduleReconnect(&reconnectDelay, err)
			continue
		}

		reconnectDelay = c.config.ReconnectDelay

		c.handleMessage(message)
	}
}

// scheduleReconnect starts a reconnect unless one is in progress and grows
// the delay for the next one.
func (c *WSClientImpl) scheduleReconnect(delay *time.Duration, cause error) {
	if c.reconnecting.Swap(true) {
		return
	}
	if cause != nil {
		c.logger.Warn("websocket read failed, reconnecting", "error", cause, "delay", *delay)
	}

	c.wg.Add(1)
	go c.reconnect(*delay)

	*delay *= 2
	if *delay > c.config.MaxReconnectDelay {
		*delay = c.config.MaxReconnectDelay
	}
}

// reconnect dials a new connection after delay and resubscribes every query.
func (c *WSClientImpl) reconnect(delay time.Duration) {
	defer c.wg.Done()
	defer c.reconnecting.Store(false)

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	go func() {
		select {
		case <-c.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := c.connect(ctx); err != nil {
		c.logger.Warn("websocket reconnect failed", "error", err)
		return
	}

	if c.closed.Load() {
		c.connMu.Lock()
		if c.conn != nil {
			c.conn.Close()
		}
		c.connMu.Unlock()
		return
	}

	c.resubscribeAll()
}

// resubscribeAll resubscribes every active query after a reconnect.
func (c *WSClientImpl) resubscribeAll() {
	c.subsMu.RLock()
	queries := make([]string, 0, len(c.subs))
	for query := range c.subs {
		queries = append(queries, query)
	}
	c.subsMu.RUnlock()

	for _, query := range queries {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.subscribe(ctx, query)
		cancel()
		if err != nil {
			c.logger.Warn("resubscribe failed", "query", query, "error", err)
		}
	}
}

// handleMessage processes an incoming WebSocket message. Confirmations and
// events share the request ID; events are told apart by their query.
func (c *WSClientImpl) handleMessage(message []byte) {
	var msg wsMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("undecodable websocket message", "error", err)
		return
	}

	if msg.Error != nil {
		if !c.resolvePending(msg.ID, msg.Error) {
			c.logger.Warn("websocket error response", "code", msg.Error.Code, "message", msg.Error.Message)
		}
		return
	}

	var result wsEventResult
	if len(msg.Result) > 0 {
		if err := json.Unmarshal(msg.Result, &result); err != nil {
			c.logger.Warn("undecodable websocket result", "error", err)
			return
		}
	}

	if result.Query == "" {
		c.resolvePending(msg.ID, nil)
		return
	}

	c.handleEvent(&result)
}

// resolvePending completes a pending subscription. It reports whether one
// was waiting on id.
func (c *WSClientImpl) resolvePending(id uint64, err error) bool {
	c.pendingSubsMu.Lock()
	ch, ok := c.pendingSubs[id]
	if ok {
		delete(c.pendingSubs, id)
	}
	c.pendingSubsMu.Unlock()

	if ok {
		select {
		case ch <- err:
		default:
		}
	}
	return ok
}

// handleEvent dispatches an event to the subscriber of its query.
func (c *WSClientImpl) handleEvent(result *wsEventResult) {
	c.subsMu.RLock()
	ch, ok := c.subs[result.Query]
	c.subsMu.RUnlock()
	if !ok {
		return
	}

	var value wsNewBlockValue
	if err := json.Unmarshal(result.Data.Value, &value); err != nil {
		c.logger.Warn("undecodable event", "query", result.Query, "type", result.Data.Type, "error", err)
		return
	}

	header := value.Block.Header
	height, err := strconv.ParseInt(header.Height, 10, 64)
	if err != nil {
		c.logger.Warn("invalid block height", "height", header.Height, "error", err)
		return
	}

	event := NewBlockEvent{
		Height:  height,
		Time:    header.Time,
		ChainID: header.ChainID,
	}

	// Block until we can send - never drop events
	select {
	case ch <- event:
	case <-c.done:
	}
}

// pingLoop sends periodic ping frames to keep connection alive.
func (c *WSClientImpl) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					// Reader handles the reconnect.
					c.logger.Debug("ping failed", "error", err)
				}
			}
			c.connMu.Unlock()
		}
	}
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      uint64         `json:"id"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
}

type wsMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

type wsEventResult struct {
	Query string      `json:"query"`
	Data  wsEventData `json:"data"`
}

type wsEventData struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type wsNewBlockValue struct {
	Block struct {
		Header wsHeader `json:"header"`
	} `json:"block"`
}

type wsHeader struct {
	ChainID string    `json:"chain_id"`
	Height  string    `json:"height"`
	Time    time.Time `json:"time"`
}
