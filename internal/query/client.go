// Package query issues the named queries of the checkers module over an
// ABCI transport and decodes their responses.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"checkers-client/internal/domain"
	"checkers-client/internal/wire"
)

// ServicePrefix is the ABCI path prefix of the module query service.
const ServicePrefix = "/" + domain.ProtoPackage + ".Query/"

// Query names.
const (
	NameParams        = "Params"
	NameSystemInfo    = "SystemInfo"
	NameStoredGame    = "StoredGame"
	NameStoredGameAll = "StoredGameAll"
	NameCanPlayMove   = "CanPlayMove"
	NamePlayerInfo    = "PlayerInfo"
	NamePlayerInfoAll = "PlayerInfoAll"
	NameLeaderboard   = "Leaderboard"
)

// Path returns the ABCI path of a query name.
func Path(name string) string {
	return ServicePrefix + name
}

// ABCIQuerier runs raw application queries. cometbft.HTTPClient satisfies it.
type ABCIQuerier interface {
	ABCIQuery(ctx context.Context, path string, data []byte) ([]byte, error)
}

// Recorder receives one observation per query. observability.Metrics
// satisfies it.
type Recorder interface {
	ObserveQuery(name string, err error, elapsed time.Duration)
}

// QueryUnavailableError is returned when a query cannot be answered: the
// transport failed or the response could not be decoded.
type QueryUnavailableError struct {
	Query string
	Err   error
}

func (e *QueryUnavailableError) Error() string {
	return fmt.Sprintf("query %s unavailable: %v", e.Query, e.Err)
}

func (e *QueryUnavailableError) Unwrap() error { return e.Err }

// Client issues checkers queries. It performs no retries; the transport owns
// the retry policy.
type Client struct {
	transport ABCIQuerier
	logger    *slog.Logger
	recorder  Recorder
}

// Option configures Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithRecorder sets the query metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		c.recorder = r
	}
}

// NewClient creates a query client over transport.
func NewClient(transport ABCIQuerier, opts ...Option) *Client {
	c := &Client{
		transport: transport,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "query")
	return c
}

// do runs one query and decodes the response into a fresh T.
func do[T any, P interface {
	*T
	wire.Unmarshaler
}](ctx context.Context, c *Client, name string, req wire.Marshaler) (T, error) {
	var zero T
	start := time.Now()

	raw, err := c.transport.ABCIQuery(ctx, Path(name), req.Marshal())
	if err == nil {
		var out T
		if err = P(&out).Unmarshal(raw); err == nil {
			c.observe(name, nil, start)
			return out, nil
		}
		err = fmt.Errorf("decode response: %w", err)
	}

	c.observe(name, err, start)
	c.logger.Debug("query failed", "query", name, "error", err)
	return zero, &QueryUnavailableError{Query: name, Err: err}
}

func (c *Client) observe(name string, err error, start time.Time) {
	if c.recorder != nil {
		c.recorder.ObserveQuery(name, err, time.Since(start))
	}
}

// emptyRequest is the request of parameterless queries.
type emptyRequest struct{}

func (emptyRequest) Marshal() []byte { return nil }

// Params returns the module parameters.
func (c *Client) Params(ctx context.Context) (domain.QueryParamsResponse, error) {
	return do[domain.QueryParamsResponse](ctx, c, NameParams, emptyRequest{})
}

// SystemInfo returns the game counter and FIFO bounds.
func (c *Client) SystemInfo(ctx context.Context) (domain.QueryGetSystemInfoResponse, error) {
	return do[domain.QueryGetSystemInfoResponse](ctx, c, NameSystemInfo, emptyRequest{})
}

// StoredGame returns the game with the given index.
func (c *Client) StoredGame(ctx context.Context, index string) (domain.QueryGetStoredGameResponse, error) {
	return do[domain.QueryGetStoredGameResponse](ctx, c, NameStoredGame, domain.QueryGetStoredGameRequest{Index: index})
}

// StoredGameAll returns one page of games.
func (c *Client) StoredGameAll(ctx context.Context, page domain.PageRequest) (domain.QueryAllStoredGameResponse, error) {
	return do[domain.QueryAllStoredGameResponse](ctx, c, NameStoredGameAll, domain.QueryAllStoredGameRequest{Pagination: page})
}

// StoredGameAllPages follows the pagination cursor from page until the last
// page and returns every game in page order.
func (c *Client) StoredGameAllPages(ctx context.Context, page domain.PageRequest) (domain.QueryAllStoredGameResponse, error) {
	return fetchAll(ctx, NameStoredGameAll, page, c.StoredGameAll)
}

// CanPlayMove asks whether a move is legal.
func (c *Client) CanPlayMove(ctx context.Context, req domain.QueryCanPlayMoveRequest) (domain.QueryCanPlayMoveResponse, error) {
	return do[domain.QueryCanPlayMoveResponse](ctx, c, NameCanPlayMove, req)
}

// PlayerInfo returns the statistics of one player.
func (c *Client) PlayerInfo(ctx context.Context, index string) (domain.QueryGetPlayerInfoResponse, error) {
	return do[domain.QueryGetPlayerInfoResponse](ctx, c, NamePlayerInfo, domain.QueryGetPlayerInfoRequest{Index: index})
}

// PlayerInfoAll returns one page of players.
func (c *Client) PlayerInfoAll(ctx context.Context, page domain.PageRequest) (domain.QueryAllPlayerInfoResponse, error) {
	return do[domain.QueryAllPlayerInfoResponse](ctx, c, NamePlayerInfoAll, domain.QueryAllPlayerInfoRequest{Pagination: page})
}

// PlayerInfoAllPages follows the pagination cursor from page until the last
// page and returns every player in page order.
func (c *Client) PlayerInfoAllPages(ctx context.Context, page domain.PageRequest) (domain.QueryAllPlayerInfoResponse, error) {
	return fetchAll(ctx, NamePlayerInfoAll, page, c.PlayerInfoAll)
}

// Leaderboard returns the leaderboard.
func (c *Client) Leaderboard(ctx context.Context) (domain.QueryGetLeaderboardResponse, error) {
	return do[domain.QueryGetLeaderboardResponse](ctx, c, NameLeaderboard, emptyRequest{})
}
