package cometbft

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/goleak"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func testWSConfig() *WSClientConfig {
	return &WSClientConfig{
		ReconnectDelay:    10 * time.Millisecond,
		MaxReconnectDelay: 50 * time.Millisecond,
		PingInterval:      time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      time.Second,
		SubscribeTimeout:  2 * time.Second,
	}
}

// readSubscribe reads one subscribe request and confirms it.
func readSubscribe(t *testing.T, c *websocket.Conn) (wsRequest, bool) {
	_, msg, err := c.ReadMessage()
	if err != nil {
		return wsRequest{}, false
	}
	var req wsRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		t.Errorf("unmarshal request: %v", err)
		return wsRequest{}, false
	}
	if req.Method != "subscribe" {
		t.Errorf("expected subscribe, got %s", req.Method)
	}
	if req.Params["query"] != NewBlockQuery {
		t.Errorf("unexpected query %v", req.Params["query"])
	}
	if err := c.WriteJSON(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": map[string]any{}}); err != nil {
		return wsRequest{}, false
	}
	return req, true
}

func writeNewBlock(c *websocket.Conn, id uint64, height string) error {
	return c.WriteJSON(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"query": NewBlockQuery,
			"data": map[string]any{
				"type": "tendermint/event/NewBlock",
				"value": map[string]any{
					"block": map[string]any{
						"header": map[string]any{
							"chain_id": "checkers",
							"height":   height,
							"time":     "2026-10-19T08:00:00.5Z",
						},
					},
				},
			},
		},
	})
}

func drain(c *websocket.Conn) {
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}

func TestWSClient_SubscribeNewBlocks(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		req, ok := readSubscribe(t, c)
		if !ok {
			return
		}
		if err := writeNewBlock(c, req.ID, "17"); err != nil {
			t.Errorf("write event: %v", err)
			return
		}
		drain(c)
	}))
	defer server.Close()

	ctx := context.Background()
	client, err := NewWSClient(ctx, wsURL(server), testWSConfig())
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	ch, err := client.SubscribeNewBlocks(ctx)
	if err != nil {
		t.Fatalf("SubscribeNewBlocks: %v", err)
	}

	select {
	case ev := <-ch:
		if ev.Height != 17 {
			t.Errorf("expected height 17, got %d", ev.Height)
		}
		if ev.ChainID != "checkers" {
			t.Errorf("expected chain checkers, got %s", ev.ChainID)
		}
		if ev.Time.IsZero() {
			t.Error("expected block time")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}

	if _, err := client.SubscribeNewBlocks(ctx); err == nil {
		t.Error("expected error on duplicate subscription")
	}
}

func TestWSClient_SubscribeRejected(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		var req wsRequest
		if err := c.ReadJSON(&req); err != nil {
			return
		}
		c.WriteJSON(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]any{"code": -32603, "message": "Internal error", "data": "max_subscriptions_per_client reached"},
		})
		drain(c)
	}))
	defer server.Close()

	ctx := context.Background()
	client, err := NewWSClient(ctx, wsURL(server), testWSConfig())
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	_, err = client.SubscribeNewBlocks(ctx)
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected RPCError, got %v", err)
	}
}

func TestWSClient_ReconnectResubscribes(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var connections atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		n := connections.Add(1)
		req, ok := readSubscribe(t, c)
		if !ok {
			return
		}
		if n == 1 {
			// Drop the first connection right after confirming.
			return
		}
		if err := writeNewBlock(c, req.ID, "2"); err != nil {
			return
		}
		drain(c)
	}))
	defer server.Close()

	ctx := context.Background()
	client, err := NewWSClient(ctx, wsURL(server), testWSConfig())
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	ch, err := client.SubscribeNewBlocks(ctx)
	if err != nil {
		t.Fatalf("SubscribeNewBlocks: %v", err)
	}

	select {
	case ev := <-ch:
		if ev.Height != 2 {
			t.Errorf("expected height 2, got %d", ev.Height)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for event after reconnect")
	}

	if connections.Load() < 2 {
		t.Errorf("expected a reconnect, got %d connections", connections.Load())
	}
}

func TestWSClient_Close(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		if _, ok := readSubscribe(t, c); !ok {
			return
		}
		drain(c)
	}))
	defer server.Close()

	ctx := context.Background()
	client, err := NewWSClient(ctx, wsURL(server), testWSConfig())
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}

	ch, err := client.SubscribeNewBlocks(ctx)
	if err != nil {
		t.Fatalf("SubscribeNewBlocks: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}

	if _, ok := <-ch; ok {
		t.Error("expected subscription channel to be closed")
	}

	// Double close should be safe
	if err := client.Close(); err != nil {
		t.Errorf("double Close: %v", err)
	}

	if _, err := client.SubscribeNewBlocks(ctx); !errors.Is(err, ErrClientClosed) {
		t.Errorf("expected ErrClientClosed, got %v", err)
	}
}

func TestWSClient_DialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := NewWSClient(ctx, "ws://127.0.0.1:1/websocket", nil); err == nil {
		t.Fatal("expected dial error")
	}
}

func TestWSClient_DefaultConfig(t *testing.T) {
	cfg := DefaultWSConfig()
	if cfg.PingInterval != 30*time.Second {
		t.Errorf("expected PingInterval 30s, got %v", cfg.PingInterval)
	}
	if cfg.SubscribeTimeout != 30*time.Second {
		t.Errorf("expected SubscribeTimeout 30s, got %v", cfg.SubscribeTimeout)
	}
}
