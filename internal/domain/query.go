package domain

import "checkers-client/internal/wire"

// Response is implemented by every query response envelope.
type Response interface {
	wire.Marshaler
	Plain() wire.Plain
}

// QueryGetStoredGameRequest selects one game by index.
type QueryGetStoredGameRequest struct {
	Index string
}

// Marshal encodes q.
func (q QueryGetStoredGameRequest) Marshal() []byte {
	w := wire.NewWriter()
	w.String(1, q.Index)
	return w.Bytes()
}

// Unmarshal decodes b into q.
func (q *QueryGetStoredGameRequest) Unmarshal(b []byte) error {
	s, err := decodeIndex(b)
	if err != nil {
		return err
	}
	*q = QueryGetStoredGameRequest{Index: s}
	return nil
}

// QueryGetPlayerInfoRequest selects one player by address.
type QueryGetPlayerInfoRequest struct {
	Index string
}

// Marshal encodes q.
func (q QueryGetPlayerInfoRequest) Marshal() []byte {
	w := wire.NewWriter()
	w.String(1, q.Index)
	return w.Bytes()
}

// Unmarshal decodes b into q.
func (q *QueryGetPlayerInfoRequest) Unmarshal(b []byte) error {
	s, err := decodeIndex(b)
	if err != nil {
		return err
	}
	*q = QueryGetPlayerInfoRequest{Index: s}
	return nil
}

// QueryAllStoredGameRequest lists games one page at a time.
type QueryAllStoredGameRequest struct {
	Pagination PageRequest
}

// Marshal encodes q.
func (q QueryAllStoredGameRequest) Marshal() []byte {
	w := wire.NewWriter()
	w.Message(1, q.Pagination)
	return w.Bytes()
}

// Unmarshal decodes b into q.
func (q *QueryAllStoredGameRequest) Unmarshal(b []byte) error {
	page, err := decodeSingle[PageRequest](b)
	if err != nil {
		return err
	}
	*q = QueryAllStoredGameRequest{Pagination: page}
	return nil
}

// QueryAllPlayerInfoRequest lists players one page at a time.
type QueryAllPlayerInfoRequest struct {
	Pagination PageRequest
}

// Marshal encodes q.
func (q QueryAllPlayerInfoRequest) Marshal() []byte {
	w := wire.NewWriter()
	w.Message(1, q.Pagination)
	return w.Bytes()
}

// Unmarshal decodes b into q.
func (q *QueryAllPlayerInfoRequest) Unmarshal(b []byte) error {
	page, err := decodeSingle[PageRequest](b)
	if err != nil {
		return err
	}
	*q = QueryAllPlayerInfoRequest{Pagination: page}
	return nil
}

// QueryCanPlayMoveRequest asks whether a move would be accepted.
type QueryCanPlayMoveRequest struct {
	GameIndex string
	Player    string
	FromX     uint64
	FromY     uint64
	ToX       uint64
	ToY       uint64
}

// Marshal encodes q.
func (q QueryCanPlayMoveRequest) Marshal() []byte {
	w := wire.NewWriter()
	w.String(1, q.GameIndex)
	w.String(2, q.Player)
	w.Uint64(3, q.FromX)
	w.Uint64(4, q.FromY)
	w.Uint64(5, q.ToX)
	w.Uint64(6, q.ToY)
	return w.Bytes()
}

// Unmarshal decodes b into q.
func (q *QueryCanPlayMoveRequest) Unmarshal(b []byte) error {
	var out QueryCanPlayMoveRequest
	r := wire.NewReader(b)
	for !r.Done() {
		num, typ, err := r.Next()
		if err != nil {
			return err
		}
		switch {
		case num == 1 && typ == wire.BytesType:
			out.GameIndex, err = r.String()
		case num == 2 && typ == wire.BytesType:
			out.Player, err = r.String()
		case num == 3 && typ == wire.VarintType:
			out.FromX, err = r.Uint64()
		case num == 4 && typ == wire.VarintType:
			out.FromY, err = r.Uint64()
		case num == 5 && typ == wire.VarintType:
			out.ToX, err = r.Uint64()
		case num == 6 && typ == wire.VarintType:
			out.ToY, err = r.Uint64()
		default:
			err = r.Skip(num, typ)
		}
		if err != nil {
			return err
		}
	}
	*q = out
	return nil
}

// QueryParamsResponse wraps Params.
type QueryParamsResponse struct {
	Params Params
}

// Marshal encodes q.
func (q QueryParamsResponse) Marshal() []byte {
	w := wire.NewWriter()
	w.Message(1, q.Params)
	return w.Bytes()
}

// Unmarshal decodes b into q.
func (q *QueryParamsResponse) Unmarshal(b []byte) error {
	v, err := decodeSingle[Params](b)
	if err != nil {
		return err
	}
	*q = QueryParamsResponse{Params: v}
	return nil
}

// Plain returns the plain-object form of q.
func (q QueryParamsResponse) Plain() wire.Plain {
	return wire.Plain{"params": q.Params.Plain()}
}

// QueryGetSystemInfoResponse wraps SystemInfo.
type QueryGetSystemInfoResponse struct {
	SystemInfo SystemInfo
}

// Marshal encodes q.
func (q QueryGetSystemInfoResponse) Marshal() []byte {
	w := wire.NewWriter()
	w.Message(1, q.SystemInfo)
	return w.Bytes()
}

// Unmarshal decodes b into q.
func (q *QueryGetSystemInfoResponse) Unmarshal(b []byte) error {
	v, err := decodeSingle[SystemInfo](b)
	if err != nil {
		return err
	}
	*q = QueryGetSystemInfoResponse{SystemInfo: v}
	return nil
}

// Plain returns the plain-object form of q.
func (q QueryGetSystemInfoResponse) Plain() wire.Plain {
	return wire.Plain{"SystemInfo": q.SystemInfo.Plain()}
}

// QueryGetStoredGameResponse wraps one StoredGame.
type QueryGetStoredGameResponse struct {
	StoredGame StoredGame
}

// Marshal encodes q.
func (q QueryGetStoredGameResponse) Marshal() []byte {
	w := wire.NewWriter()
	w.Message(1, q.StoredGame)
	return w.Bytes()
}

// Unmarshal decodes b into q.
func (q *QueryGetStoredGameResponse) Unmarshal(b []byte) error {
	v, err := decodeSingle[StoredGame](b)
	if err != nil {
		return err
	}
	*q = QueryGetStoredGameResponse{StoredGame: v}
	return nil
}

// Plain returns the plain-object form of q.
func (q QueryGetStoredGameResponse) Plain() wire.Plain {
	return wire.Plain{"storedGame": q.StoredGame.Plain()}
}

// QueryAllStoredGameResponse is one page of games.
type QueryAllStoredGameResponse struct {
	StoredGame []StoredGame
	Pagination PageResponse
}

// Marshal encodes q.
func (q QueryAllStoredGameResponse) Marshal() []byte {
	w := wire.NewWriter()
	for _, g := range q.StoredGame {
		w.Element(1, g)
	}
	w.Message(2, q.Pagination)
	return w.Bytes()
}

// Unmarshal decodes b into q.
func (q *QueryAllStoredGameResponse) Unmarshal(b []byte) error {
	var out QueryAllStoredGameResponse
	r := wire.NewReader(b)
	for !r.Done() {
		num, typ, err := r.Next()
		if err != nil {
			return err
		}
		switch {
		case num == 1 && typ == wire.BytesType:
			var g StoredGame
			if err = r.Message(&g); err == nil {
				out.StoredGame = append(out.StoredGame, g)
			}
		case num == 2 && typ == wire.BytesType:
			err = r.Message(&out.Pagination)
		default:
			err = r.Skip(num, typ)
		}
		if err != nil {
			return err
		}
	}
	*q = out
	return nil
}

// Plain returns the plain-object form of q.
func (q QueryAllStoredGameResponse) Plain() wire.Plain {
	games := make([]any, 0, len(q.StoredGame))
	for _, g := range q.StoredGame {
		games = append(games, g.Plain())
	}
	return wire.Plain{"storedGame": games, "pagination": q.Pagination.Plain()}
}

// NextKey returns the cursor of the following page, empty on the last page.
func (q QueryAllStoredGameResponse) NextKey() []byte {
	return q.Pagination.NextKey
}

// MergePage appends the games of next and takes its pagination.
func (q QueryAllStoredGameResponse) MergePage(next QueryAllStoredGameResponse) QueryAllStoredGameResponse {
	games := make([]StoredGame, 0, len(q.StoredGame)+len(next.StoredGame))
	games = append(games, q.StoredGame...)
	games = append(games, next.StoredGame...)
	return QueryAllStoredGameResponse{StoredGame: games, Pagination: next.Pagination}
}

// QueryCanPlayMoveResponse tells whether a move is possible and why not.
type QueryCanPlayMoveResponse struct {
	Possible bool
	Reason   string
}

// Marshal encodes q.
func (q QueryCanPlayMoveResponse) Marshal() []byte {
	w := wire.NewWriter()
	w.Bool(1, q.Possible)
	w.String(2, q.Reason)
	return w.Bytes()
}

// Unmarshal decodes b into q.
func (q *QueryCanPlayMoveResponse) Unmarshal(b []byte) error {
	var out QueryCanPlayMoveResponse
	r := wire.NewReader(b)
	for !r.Done() {
		num, typ, err := r.Next()
		if err != nil {
			return err
		}
		switch {
		case num == 1 && typ == wire.VarintType:
			out.Possible, err = r.Bool()
		case num == 2 && typ == wire.BytesType:
			out.Reason, err = r.String()
		default:
			err = r.Skip(num, typ)
		}
		if err != nil {
			return err
		}
	}
	*q = out
	return nil
}

// Plain returns the plain-object form of q.
func (q QueryCanPlayMoveResponse) Plain() wire.Plain {
	return wire.Plain{"possible": q.Possible, "reason": q.Reason}
}

// QueryGetPlayerInfoResponse wraps one PlayerInfo.
type QueryGetPlayerInfoResponse struct {
	PlayerInfo PlayerInfo
}

// Marshal encodes q.
func (q QueryGetPlayerInfoResponse) Marshal() []byte {
	w := wire.NewWriter()
	w.Message(1, q.PlayerInfo)
	return w.Bytes()
}

// Unmarshal decodes b into q.
func (q *QueryGetPlayerInfoResponse) Unmarshal(b []byte) error {
	v, err := decodeSingle[PlayerInfo](b)
	if err != nil {
		return err
	}
	*q = QueryGetPlayerInfoResponse{PlayerInfo: v}
	return nil
}

// Plain returns the plain-object form of q.
func (q QueryGetPlayerInfoResponse) Plain() wire.Plain {
	return wire.Plain{"playerInfo": q.PlayerInfo.Plain()}
}

// QueryAllPlayerInfoResponse is one page of players.
type QueryAllPlayerInfoResponse struct {
	PlayerInfo []PlayerInfo
	Pagination PageResponse
}

// Marshal encodes q.
func (q QueryAllPlayerInfoResponse) Marshal() []byte {
	w := wire.NewWriter()
	for _, p := range q.PlayerInfo {
		w.Element(1, p)
	}
	w.Message(2, q.Pagination)
	return w.Bytes()
}

// Unmarshal decodes b into q.
func (q *QueryAllPlayerInfoResponse) Unmarshal(b []byte) error {
	var out QueryAllPlayerInfoResponse
	r := wire.NewReader(b)
	for !r.Done() {
		num, typ, err := r.Next()
		if err != nil {
			return err
		}
		switch {
		case num == 1 && typ == wire.BytesType:
			var p PlayerInfo
			if err = r.Message(&p); err == nil {
				out.PlayerInfo = append(out.PlayerInfo, p)
			}
		case num == 2 && typ == wire.BytesType:
			err = r.Message(&out.Pagination)
		default:
			err = r.Skip(num, typ)
		}
		if err != nil {
			return err
		}
	}
	*q = out
	return nil
}

// Plain returns the plain-object form of q.
func (q QueryAllPlayerInfoResponse) Plain() wire.Plain {
	players := make([]any, 0, len(q.PlayerInfo))
	for _, p := range q.PlayerInfo {
		players = append(players, p.Plain())
	}
	return wire.Plain{"playerInfo": players, "pagination": q.Pagination.Plain()}
}

// NextKey returns the cursor of the following page, empty on the last page.
func (q QueryAllPlayerInfoResponse) NextKey() []byte {
	return q.Pagination.NextKey
}

// MergePage appends the players of next and takes its pagination.
func (q QueryAllPlayerInfoResponse) MergePage(next QueryAllPlayerInfoResponse) QueryAllPlayerInfoResponse {
	players := make([]PlayerInfo, 0, len(q.PlayerInfo)+len(next.PlayerInfo))
	players = append(players, q.PlayerInfo...)
	players = append(players, next.PlayerInfo...)
	return QueryAllPlayerInfoResponse{PlayerInfo: players, Pagination: next.Pagination}
}

// QueryGetLeaderboardResponse wraps the Leaderboard.
type QueryGetLeaderboardResponse struct {
	Leaderboard Leaderboard
}

// Marshal encodes q.
func (q QueryGetLeaderboardResponse) Marshal() []byte {
	w := wire.NewWriter()
	w.Message(1, q.Leaderboard)
	return w.Bytes()
}

// Unmarshal decodes b into q.
func (q *QueryGetLeaderboardResponse) Unmarshal(b []byte) error {
	v, err := decodeSingle[Leaderboard](b)
	if err != nil {
		return err
	}
	*q = QueryGetLeaderboardResponse{Leaderboard: v}
	return nil
}

// Plain returns the plain-object form of q.
func (q QueryGetLeaderboardResponse) Plain() wire.Plain {
	return wire.Plain{"Leaderboard": q.Leaderboard.Plain()}
}

// decodeSingle decodes an envelope whose only field is the record at field 1.
// A repeated occurrence of the field replaces the earlier one.
func decodeSingle[T any, P interface {
	*T
	wire.Unmarshaler
}](b []byte) (T, error) {
	var out, zero T
	r := wire.NewReader(b)
	for !r.Done() {
		num, typ, err := r.Next()
		if err != nil {
			return zero, err
		}
		if num == 1 && typ == wire.BytesType {
			var v T
			if err = r.Message(P(&v)); err == nil {
				out = v
			}
		} else {
			err = r.Skip(num, typ)
		}
		if err != nil {
			return zero, err
		}
	}
	return out, nil
}

func decodeIndex(b []byte) (string, error) {
	var index string
	r := wire.NewReader(b)
	for !r.Done() {
		num, typ, err := r.Next()
		if err != nil {
			return "", err
		}
		if num == 1 && typ == wire.BytesType {
			index, err = r.String()
		} else {
			err = r.Skip(num, typ)
		}
		if err != nil {
			return "", err
		}
	}
	return index, nil
}
