// Package tx builds checkers messages and submits them through an external
// signer and a node broadcaster.
package tx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"checkers-client/internal/cometbft"
	"checkers-client/internal/domain"
	"checkers-client/internal/registry"
)

// DefaultGas is the gas limit used when Fee.Gas is zero.
const DefaultGas uint64 = 200000

// ErrMissingWallet is returned by a Signer that holds no key.
var ErrMissingWallet = errors.New("wallet is required")

// Coin is an amount of one denomination.
type Coin struct {
	Denom  string
	Amount string
}

// Fee is the fee offered for a transaction.
type Fee struct {
	Amount []Coin
	Gas    uint64
}

// SignRequest is everything a Signer needs to produce a transaction.
type SignRequest struct {
	Msgs []domain.Any
	Fee  Fee
	Memo string
}

// Signer turns messages into signed transaction bytes. Key management lives
// behind it.
type Signer interface {
	Sign(ctx context.Context, req SignRequest) ([]byte, error)
}

// Broadcaster submits signed transactions. cometbft.HTTPClient satisfies it.
type Broadcaster interface {
	BroadcastTxSync(ctx context.Context, tx []byte) (*cometbft.BroadcastResult, error)
}

// Recorder receives one observation per broadcast attempt.
// observability.Metrics satisfies it.
type Recorder interface {
	ObserveBroadcast(msg string, err error)
}

// TxResult is the outcome of an accepted transaction.
type TxResult struct {
	Hash string
	Code uint32
	Log  string
	Data []byte
}

// WalletRequiredError is returned when no signing capability is available.
type WalletRequiredError struct {
	Op string
}

func (e *WalletRequiredError) Error() string {
	return fmt.Sprintf("%s: could not initialize signing client: %v", e.Op, ErrMissingWallet)
}

func (e *WalletRequiredError) Unwrap() error { return ErrMissingWallet }

// BroadcastError is returned when a transaction could not be signed,
// submitted or was rejected by CheckTx.
type BroadcastError struct {
	Op        string
	Code      uint32
	Codespace string
	Log       string
	Err       error
}

func (e *BroadcastError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: could not broadcast tx: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: could not broadcast tx: code %d (%s): %s", e.Op, e.Code, e.Codespace, e.Log)
}

func (e *BroadcastError) Unwrap() error { return e.Err }

// Client sends checkers messages. A nil signer makes every send fail with
// WalletRequiredError.
type Client struct {
	signer      Signer
	broadcaster Broadcaster
	logger      *slog.Logger
	recorder    Recorder
}

// Option configures Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithRecorder sets the broadcast metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		c.recorder = r
	}
}

// NewClient creates a transaction client.
func NewClient(signer Signer, broadcaster Broadcaster, opts ...Option) *Client {
	c := &Client{
		signer:      signer,
		broadcaster: broadcaster,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "tx")
	return c
}

// Pack validates msg and wraps it in its Any envelope.
func Pack(msg domain.Msg) (domain.Any, error) {
	if err := msg.ValidateBasic(); err != nil {
		return domain.Any{}, fmt.Errorf("%s: could not create message: %w", msg.MsgName(), err)
	}
	a, err := registry.Pack(msg)
	if err != nil {
		return domain.Any{}, fmt.Errorf("%s: could not create message: %w", msg.MsgName(), err)
	}
	return a, nil
}

// MsgCreateGame builds the encoded create-game message.
func (c *Client) MsgCreateGame(value domain.MsgCreateGame) (domain.Any, error) {
	return Pack(&value)
}

// MsgPlayMove builds the encoded play-move message.
func (c *Client) MsgPlayMove(value domain.MsgPlayMove) (domain.Any, error) {
	return Pack(&value)
}

// MsgRejectGame builds the encoded reject-game message.
func (c *Client) MsgRejectGame(value domain.MsgRejectGame) (domain.Any, error) {
	return Pack(&value)
}

// SendMsgCreateGame signs and broadcasts a create-game message.
func (c *Client) SendMsgCreateGame(ctx context.Context, value domain.MsgCreateGame, fee Fee, memo string) (*TxResult, error) {
	return c.send(ctx, &value, fee, memo)
}

// SendMsgPlayMove signs and broadcasts a play-move message.
func (c *Client) SendMsgPlayMove(ctx context.Context, value domain.MsgPlayMove, fee Fee, memo string) (*TxResult, error) {
	return c.send(ctx, &value, fee, memo)
}

// SendMsgRejectGame signs and broadcasts a reject-game message.
func (c *Client) SendMsgRejectGame(ctx context.Context, value domain.MsgRejectGame, fee Fee, memo string) (*TxResult, error) {
	return c.send(ctx, &value, fee, memo)
}

func (c *Client) send(ctx context.Context, msg domain.Msg, fee Fee, memo string) (*TxResult, error) {
	op := msg.MsgName()
	res, err := c.signAndBroadcast(ctx, op, msg, fee, memo)
	if c.recorder != nil {
		c.recorder.ObserveBroadcast(op, err)
	}
	if err != nil {
		c.logger.Warn("send failed", "msg", op, "error", err)
		return nil, err
	}
	c.logger.Info("tx broadcast", "msg", op, "hash", res.Hash)
	return res, nil
}

func (c *Client) signAndBroadcast(ctx context.Context, op string, msg domain.Msg, fee Fee, memo string) (*TxResult, error) {
	if c.signer == nil {
		return nil, &WalletRequiredError{Op: op}
	}

	packed, err := Pack(msg)
	if err != nil {
		return nil, &BroadcastError{Op: op, Err: err}
	}
	if fee.Gas == 0 {
		fee.Gas = DefaultGas
	}

	raw, err := c.signer.Sign(ctx, SignRequest{Msgs: []domain.Any{packed}, Fee: fee, Memo: memo})
	if errors.Is(err, ErrMissingWallet) {
		return nil, &WalletRequiredError{Op: op}
	}
	if err != nil {
		return nil, &BroadcastError{Op: op, Err: fmt.Errorf("sign: %w", err)}
	}

	out, err := c.broadcaster.BroadcastTxSync(ctx, raw)
	if err != nil {
		return nil, &BroadcastError{Op: op, Err: err}
	}
	if out.Code != 0 {
		return nil, &BroadcastError{Op: op, Code: out.Code, Codespace: out.Codespace, Log: out.Log}
	}
	return &TxResult{Hash: out.Hash, Code: out.Code, Log: out.Log, Data: out.Data}, nil
}
