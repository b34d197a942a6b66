package tx

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"checkers-client/internal/cometbft"
	"checkers-client/internal/cometbft/stub"
	"checkers-client/internal/domain"
	"checkers-client/internal/registry"
)

const (
	alice = "cosmos1jmjfq0tplp9tmx4v9uemw72y4d2wa5nr3xn9d3"
	bob   = "cosmos1xyxs3skf3f4jfqeuv89yyaqvjc6lffavxqhc8g"
	carol = "cosmos1e0w5t53nrq7p66fye6c8p0ynyhf6y24l4yuxd7"
)

// envelopeSigner "signs" by returning the first message envelope.
type envelopeSigner struct {
	requests []SignRequest
	err      error
}

func (s *envelopeSigner) Sign(_ context.Context, req SignRequest) ([]byte, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return req.Msgs[0].Marshal(), nil
}

type broadcastRecorder struct {
	ok, failed []string
}

func (r *broadcastRecorder) ObserveBroadcast(msg string, err error) {
	if err != nil {
		r.failed = append(r.failed, msg)
		return
	}
	r.ok = append(r.ok, msg)
}

func TestClient_SendMsgPlayMove(t *testing.T) {
	signer := &envelopeSigner{}
	rpc := stub.NewRPCClient()
	rpc.BroadcastResult = &cometbft.BroadcastResult{Hash: "ABCD", Data: []byte{0x01}}
	rec := &broadcastRecorder{}
	c := NewClient(signer, rpc, WithRecorder(rec))

	move := domain.MsgPlayMove{Creator: alice, GameIndex: "1", FromX: 1, FromY: 2, ToX: 2, ToY: 3}
	fee := Fee{Amount: []Coin{{Denom: "stake", Amount: "10"}}}
	res, err := c.SendMsgPlayMove(context.Background(), move, fee, "first move")
	require.NoError(t, err)
	require.Equal(t, "ABCD", res.Hash)
	require.Equal(t, []byte{0x01}, res.Data)

	require.Len(t, signer.requests, 1)
	req := signer.requests[0]
	require.Equal(t, DefaultGas, req.Fee.Gas)
	require.Equal(t, fee.Amount, req.Fee.Amount)
	require.Equal(t, "first move", req.Memo)

	// What was broadcast is what the signer produced.
	txs := rpc.Broadcasts()
	require.Len(t, txs, 1)
	var sent domain.Any
	require.NoError(t, sent.Unmarshal(txs[0]))
	msg, err := registry.Unpack(sent)
	require.NoError(t, err)
	require.Equal(t, &move, msg)

	require.Equal(t, []string{"MsgPlayMove"}, rec.ok)
}

func TestClient_KeepsExplicitGas(t *testing.T) {
	signer := &envelopeSigner{}
	c := NewClient(signer, stub.NewRPCClient())

	_, err := c.SendMsgCreateGame(context.Background(), domain.MsgCreateGame{Creator: alice, Black: bob, Red: carol, Wager: 5}, Fee{Gas: 90000}, "")
	require.NoError(t, err)
	require.Equal(t, uint64(90000), signer.requests[0].Fee.Gas)
}

func TestClient_WalletRequired(t *testing.T) {
	rpc := stub.NewRPCClient()
	c := NewClient(nil, rpc)

	_, err := c.SendMsgRejectGame(context.Background(), domain.MsgRejectGame{Creator: alice, GameIndex: "3"}, Fee{}, "")
	var walletErr *WalletRequiredError
	require.ErrorAs(t, err, &walletErr)
	require.Equal(t, "MsgRejectGame", walletErr.Op)
	require.ErrorIs(t, err, ErrMissingWallet)
	require.Empty(t, rpc.Broadcasts())

	// A signer without a key reports the same condition.
	c = NewClient(&envelopeSigner{err: ErrMissingWallet}, rpc)
	_, err = c.SendMsgRejectGame(context.Background(), domain.MsgRejectGame{Creator: alice, GameIndex: "3"}, Fee{}, "")
	require.ErrorAs(t, err, &walletErr)
	require.Empty(t, rpc.Broadcasts())
}

func TestClient_InvalidMessage(t *testing.T) {
	signer := &envelopeSigner{}
	c := NewClient(signer, stub.NewRPCClient())

	_, err := c.SendMsgPlayMove(context.Background(), domain.MsgPlayMove{Creator: alice}, Fee{}, "")
	var broadcastErr *BroadcastError
	require.ErrorAs(t, err, &broadcastErr)
	require.ErrorIs(t, err, domain.ErrEmptyGameIndex)
	require.Empty(t, signer.requests)
}

func TestClient_CheckTxRejected(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.BroadcastResult = &cometbft.BroadcastResult{Code: 5, Codespace: "sdk", Log: "insufficient funds"}
	rec := &broadcastRecorder{}
	c := NewClient(&envelopeSigner{}, rpc, WithRecorder(rec))

	_, err := c.SendMsgCreateGame(context.Background(), domain.MsgCreateGame{Creator: alice, Black: bob, Red: carol}, Fee{}, "")
	var broadcastErr *BroadcastError
	require.ErrorAs(t, err, &broadcastErr)
	require.Equal(t, uint32(5), broadcastErr.Code)
	require.Equal(t, "MsgCreateGame", broadcastErr.Op)
	require.Contains(t, err.Error(), "insufficient funds")
	require.Equal(t, []string{"MsgCreateGame"}, rec.failed)
}

func TestClient_BroadcastFailure(t *testing.T) {
	cause := errors.New("connection refused")
	rpc := stub.NewRPCClient()
	rpc.BroadcastErr = cause
	c := NewClient(&envelopeSigner{}, rpc)

	_, err := c.SendMsgPlayMove(context.Background(), domain.MsgPlayMove{Creator: alice, GameIndex: "1"}, Fee{}, "")
	var broadcastErr *BroadcastError
	require.ErrorAs(t, err, &broadcastErr)
	require.ErrorIs(t, err, cause)
}

func TestClient_SignFailure(t *testing.T) {
	cause := errors.New("ledger disconnected")
	c := NewClient(&envelopeSigner{err: cause}, stub.NewRPCClient())

	_, err := c.SendMsgPlayMove(context.Background(), domain.MsgPlayMove{Creator: alice, GameIndex: "1"}, Fee{}, "")
	var broadcastErr *BroadcastError
	require.ErrorAs(t, err, &broadcastErr)
	require.ErrorIs(t, err, cause)
}

func TestClient_MessageBuilders(t *testing.T) {
	c := NewClient(nil, stub.NewRPCClient())

	a, err := c.MsgCreateGame(domain.MsgCreateGame{Creator: alice, Black: bob, Red: carol, Wager: 1})
	require.NoError(t, err)
	require.Equal(t, "/alice.checkers.checkers.MsgCreateGame", a.TypeURL)

	a, err = c.MsgRejectGame(domain.MsgRejectGame{Creator: alice, GameIndex: "2"})
	require.NoError(t, err)
	require.Equal(t, "/alice.checkers.checkers.MsgRejectGame", a.TypeURL)

	a, err = c.MsgPlayMove(domain.MsgPlayMove{Creator: alice, GameIndex: "2", ToX: 1})
	require.NoError(t, err)
	require.Equal(t, "/alice.checkers.checkers.MsgPlayMove", a.TypeURL)

	_, err = c.MsgCreateGame(domain.MsgCreateGame{Creator: "nope", Black: bob, Red: carol})
	require.ErrorIs(t, err, domain.ErrInvalidAddress)
	require.Contains(t, err.Error(), "MsgCreateGame: could not create message")
}
