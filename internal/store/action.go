package store

import (
	"fmt"

	"checkers-client/internal/domain"
	"checkers-client/internal/query"
)

// Action names a store query. The set is closed.
type Action int

// Store actions, one per module query.
const (
	QueryParams Action = iota + 1
	QuerySystemInfo
	QueryStoredGame
	QueryStoredGameAll
	QueryCanPlayMove
	QueryPlayerInfo
	QueryPlayerInfoAll
	QueryLeaderboard
)

// Actions lists every action in declaration order.
var Actions = []Action{
	QueryParams,
	QuerySystemInfo,
	QueryStoredGame,
	QueryStoredGameAll,
	QueryCanPlayMove,
	QueryPlayerInfo,
	QueryPlayerInfoAll,
	QueryLeaderboard,
}

// QueryName returns the module query run by a.
func (a Action) QueryName() string {
	switch a {
	case QueryParams:
		return query.NameParams
	case QuerySystemInfo:
		return query.NameSystemInfo
	case QueryStoredGame:
		return query.NameStoredGame
	case QueryStoredGameAll:
		return query.NameStoredGameAll
	case QueryCanPlayMove:
		return query.NameCanPlayMove
	case QueryPlayerInfo:
		return query.NamePlayerInfo
	case QueryPlayerInfoAll:
		return query.NamePlayerInfoAll
	case QueryLeaderboard:
		return query.NameLeaderboard
	}
	return ""
}

func (a Action) String() string {
	if name := a.QueryName(); name != "" {
		return "Query" + name
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Paginated reports whether a is a list query honouring Options.All.
func (a Action) Paginated() bool {
	return a == QueryStoredGameAll || a == QueryPlayerInfoAll
}

// ParseAction returns the action named s, e.g. "QueryStoredGameAll".
func ParseAction(s string) (Action, error) {
	for _, a := range Actions {
		if a.String() == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	if a.QueryName() == "" {
		return nil, fmt.Errorf("invalid action %d", int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(b []byte) error {
	v, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Options control one store query.
type Options struct {
	// Subscribe registers the query for refresh on every new block.
	Subscribe bool
	// All follows the pagination cursor to the last page (list queries only).
	All bool
}

// Args are the path parameters of a query. Only the fields of the action's
// request are used.
type Args struct {
	Index     string `cbor:"index,omitempty"`
	GameIndex string `cbor:"gameIndex,omitempty"`
	Player    string `cbor:"player,omitempty"`
	FromX     uint64 `cbor:"fromX,omitempty"`
	FromY     uint64 `cbor:"fromY,omitempty"`
	ToX       uint64 `cbor:"toX,omitempty"`
	ToY       uint64 `cbor:"toY,omitempty"`
}

// MoveArgs returns the Args of a CanPlayMove request.
func MoveArgs(req domain.QueryCanPlayMoveRequest) Args {
	return Args{
		GameIndex: req.GameIndex,
		Player:    req.Player,
		FromX:     req.FromX,
		FromY:     req.FromY,
		ToX:       req.ToX,
		ToY:       req.ToY,
	}
}

func (a Args) moveRequest() domain.QueryCanPlayMoveRequest {
	return domain.QueryCanPlayMoveRequest{
		GameIndex: a.GameIndex,
		Player:    a.Player,
		FromX:     a.FromX,
		FromY:     a.FromY,
		ToX:       a.ToX,
		ToY:       a.ToY,
	}
}

// Payload is everything needed to replay a query.
type Payload struct {
	All    bool
	Args   Args
	Filter domain.PageRequest
}

// Subscription is a query replayed on every refresh.
type Subscription struct {
	Action  Action
	Payload Payload
}

// Key identifies a cache entry: the query name and the canonical encoding
// of its arguments and filter.
type Key struct {
	Query  string
	Params string
}
