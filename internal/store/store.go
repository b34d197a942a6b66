// Package store caches checkers query results and replays subscribed
// queries whenever the chain produces a block.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/jinzhu/copier"

	"checkers-client/internal/cometbft"
	"checkers-client/internal/domain"
)

// Querier is the query surface the store drives. query.Client satisfies it.
type Querier interface {
	Params(ctx context.Context) (domain.QueryParamsResponse, error)
	SystemInfo(ctx context.Context) (domain.QueryGetSystemInfoResponse, error)
	StoredGame(ctx context.Context, index string) (domain.QueryGetStoredGameResponse, error)
	StoredGameAll(ctx context.Context, page domain.PageRequest) (domain.QueryAllStoredGameResponse, error)
	StoredGameAllPages(ctx context.Context, page domain.PageRequest) (domain.QueryAllStoredGameResponse, error)
	CanPlayMove(ctx context.Context, req domain.QueryCanPlayMoveRequest) (domain.QueryCanPlayMoveResponse, error)
	PlayerInfo(ctx context.Context, index string) (domain.QueryGetPlayerInfoResponse, error)
	PlayerInfoAll(ctx context.Context, page domain.PageRequest) (domain.QueryAllPlayerInfoResponse, error)
	PlayerInfoAllPages(ctx context.Context, page domain.PageRequest) (domain.QueryAllPlayerInfoResponse, error)
	Leaderboard(ctx context.Context) (domain.QueryGetLeaderboardResponse, error)
}

// Event is a new block notification. Each event refreshes every subscription.
type Event = cometbft.NewBlockEvent

// Observer is called after every commit with the key and a private copy of
// the committed value.
type Observer interface {
	Observe(ctx context.Context, key Key, value domain.Response)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, key Key, value domain.Response)

// Observe calls f.
func (f ObserverFunc) Observe(ctx context.Context, key Key, value domain.Response) {
	f(ctx, key, value)
}

// Recorder receives store metrics. observability.Metrics satisfies it.
type Recorder interface {
	ObserveRefresh(action string, err error)
	SetCacheEntries(n int)
}

// SubscriptionError reports one subscription that failed to refresh.
type SubscriptionError struct {
	Subscription Subscription
	Err          error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("refresh %s: %v", e.Subscription.Action, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }

// Store is a query cache with a subscription set. It is safe for concurrent
// use. Queries run outside the lock; only the commit is serialized.
type Store struct {
	querier  Querier
	logger   *slog.Logger
	recorder Recorder
	observer Observer

	mu         sync.RWMutex
	entries    map[Key]domain.Response
	subs       map[string]Subscription
	generation uint64
}

// Option configures Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Store) {
		s.recorder = r
	}
}

// WithObserver sets the commit observer.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		s.observer = o
	}
}

// New creates an empty store over q.
func New(q Querier, opts ...Option) *Store {
	s := &Store{
		querier: q,
		logger:  slog.Default(),
		entries: make(map[Key]domain.Response),
		subs:    make(map[string]Subscription),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "store")
	return s
}

// Structure returns the ordered field descriptors of a record kind.
func (s *Store) Structure(kind domain.Kind) ([]domain.Field, bool) {
	return domain.Structure(kind)
}

var keyEncoding = mustKeyEncoding()

func mustKeyEncoding() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

type keyFilter struct {
	Key        []byte `cbor:"key,omitempty"`
	Offset     uint64 `cbor:"offset,omitempty"`
	Limit      uint64 `cbor:"limit,omitempty"`
	CountTotal bool   `cbor:"countTotal,omitempty"`
	Reverse    bool   `cbor:"reverse,omitempty"`
}

type keyParams struct {
	Args   Args      `cbor:"args"`
	Filter keyFilter `cbor:"filter"`
}

type subscriptionKey struct {
	Action Action    `cbor:"action"`
	All    bool      `cbor:"all,omitempty"`
	Params keyParams `cbor:"params"`
}

func newKeyParams(args Args, filter domain.PageRequest) keyParams {
	return keyParams{
		Args: args,
		Filter: keyFilter{
			Key:        filter.Key,
			Offset:     filter.Offset,
			Limit:      filter.Limit,
			CountTotal: filter.CountTotal,
			Reverse:    filter.Reverse,
		},
	}
}

// CacheKey returns the cache key of a query. Equal arguments and filters
// always produce the same key.
func CacheKey(action Action, args Args, filter domain.PageRequest) (Key, error) {
	b, err := keyEncoding.Marshal(newKeyParams(args, filter))
	if err != nil {
		return Key{}, fmt.Errorf("encode cache key: %w", err)
	}
	return Key{Query: action.QueryName(), Params: string(b)}, nil
}

func subscriptionID(sub Subscription) (string, error) {
	b, err := keyEncoding.Marshal(subscriptionKey{
		Action: sub.Action,
		All:    sub.Payload.All,
		Params: newKeyParams(sub.Payload.Args, sub.Payload.Filter),
	})
	if err != nil {
		return "", fmt.Errorf("encode subscription: %w", err)
	}
	return string(b), nil
}

// clone deep-copies v. Slices that are nil in v stay nil in the copy, so a
// getter returns a value equal to the one the query returned.
func clone[T any](v T) (T, error) {
	var out T
	if err := copier.CopyWithOption(&out, &v, copier.Option{DeepCopy: true}); err != nil {
		return out, fmt.Errorf("copy entry: %w", err)
	}
	keepNil(reflect.ValueOf(&out).Elem(), reflect.ValueOf(v))
	return out, nil
}

// keepNil resets slices in dst that copier turned from nil into empty.
func keepNil(dst, src reflect.Value) {
	if !dst.IsValid() || !src.IsValid() || dst.Type() != src.Type() {
		return
	}
	switch src.Kind() {
	case reflect.Slice:
		if src.IsNil() {
			if dst.CanSet() {
				dst.Set(reflect.Zero(dst.Type()))
			}
			return
		}
		for i := 0; i < src.Len() && i < dst.Len(); i++ {
			keepNil(dst.Index(i), src.Index(i))
		}
	case reflect.Struct:
		for i := 0; i < src.NumField(); i++ {
			if dst.Type().Field(i).IsExported() {
				keepNil(dst.Field(i), src.Field(i))
			}
		}
	case reflect.Pointer:
		switch {
		case src.IsNil():
			if dst.CanSet() {
				dst.Set(reflect.Zero(dst.Type()))
			}
		case !dst.IsNil():
			keepNil(dst.Elem(), src.Elem())
		}
	}
}

// execute runs fetch and commits its result under the query's key. Nothing
// is committed when fetch fails or the store is reset while fetch runs.
func execute[T domain.Response](ctx context.Context, s *Store, action Action, opts Options, args Args, filter domain.PageRequest, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	key, err := CacheKey(action, args, filter)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", action, err)
	}

	s.mu.RLock()
	gen := s.generation
	s.mu.RUnlock()

	value, err := fetch(ctx)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", action, err)
	}
	stored, err := clone(value)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", action, err)
	}

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		s.logger.Debug("dropping result of query started before reset", "action", action)
		return value, nil
	}
	s.entries[key] = stored
	n := len(s.entries)
	s.mu.Unlock()

	if s.recorder != nil {
		s.recorder.SetCacheEntries(n)
	}
	if s.observer != nil {
		observed, err := clone(value)
		if err != nil {
			s.logger.Warn("copy committed entry", "action", action, "error", err)
		} else {
			s.observer.Observe(ctx, key, observed)
		}
	}

	if opts.Subscribe {
		sub := Subscription{Action: action, Payload: Payload{All: opts.All, Args: args, Filter: filter}}
		if err := s.Subscribe(sub); err != nil {
			return zero, fmt.Errorf("%s: %w", action, err)
		}
	}
	return value, nil
}

// get returns a copy of the entry under key, or the zero value.
func get[T domain.Response](s *Store, action Action, args Args, filter domain.PageRequest) T {
	var zero T
	key, err := CacheKey(action, args, filter)
	if err != nil {
		return zero
	}

	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return zero
	}
	v, ok := entry.(T)
	if !ok {
		return zero
	}
	out, err := clone(v)
	if err != nil {
		s.logger.Warn("copy cache entry", "action", action, "error", err)
		return zero
	}
	return out
}

// Len returns the number of cache entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Subscribe adds sub to the subscription set. Adding an existing
// subscription is a no-op.
func (s *Store) Subscribe(sub Subscription) error {
	if sub.Action.QueryName() == "" {
		return fmt.Errorf("subscribe: invalid action %d", int(sub.Action))
	}
	id, err := subscriptionID(sub)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[id]; !ok {
		s.subs[id] = sub
		s.logger.Debug("subscribed", "action", sub.Action, "all", sub.Payload.All)
	}
	return nil
}

// Unsubscribe removes sub from the subscription set. Removing an absent
// subscription is a no-op.
func (s *Store) Unsubscribe(sub Subscription) error {
	id, err := subscriptionID(sub)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
	return nil
}

// Subscriptions returns a snapshot of the subscription set in a stable order.
func (s *Store) Subscriptions() []Subscription {
	s.mu.RLock()
	ids := make([]string, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]Subscription, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.subs[id])
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Action < out[j].Action })
	return out
}

// Dispatch replays a subscription without re-subscribing it.
func (s *Store) Dispatch(ctx context.Context, sub Subscription) error {
	opts := Options{All: sub.Payload.All}
	args, filter := sub.Payload.Args, sub.Payload.Filter

	var err error
	switch sub.Action {
	case QueryParams:
		_, err = s.QueryParams(ctx, opts)
	case QuerySystemInfo:
		_, err = s.QuerySystemInfo(ctx, opts)
	case QueryStoredGame:
		_, err = s.QueryStoredGame(ctx, opts, args.Index)
	case QueryStoredGameAll:
		_, err = s.QueryStoredGameAll(ctx, opts, filter)
	case QueryCanPlayMove:
		_, err = s.QueryCanPlayMove(ctx, opts, args.moveRequest())
	case QueryPlayerInfo:
		_, err = s.QueryPlayerInfo(ctx, opts, args.Index)
	case QueryPlayerInfoAll:
		_, err = s.QueryPlayerInfoAll(ctx, opts, filter)
	case QueryLeaderboard:
		_, err = s.QueryLeaderboard(ctx, opts)
	default:
		err = fmt.Errorf("dispatch: invalid action %d", int(sub.Action))
	}
	return err
}

// Lookup returns a copy of the cached result of sub, or nil for an invalid
// action. An action never queried yields its zero response.
func (s *Store) Lookup(sub Subscription) domain.Response {
	args, filter := sub.Payload.Args, sub.Payload.Filter
	switch sub.Action {
	case QueryParams:
		return s.GetParams()
	case QuerySystemInfo:
		return s.GetSystemInfo()
	case QueryStoredGame:
		return s.GetStoredGame(args.Index)
	case QueryStoredGameAll:
		return s.GetStoredGameAll(filter)
	case QueryCanPlayMove:
		return s.GetCanPlayMove(args.moveRequest())
	case QueryPlayerInfo:
		return s.GetPlayerInfo(args.Index)
	case QueryPlayerInfoAll:
		return s.GetPlayerInfoAll(filter)
	case QueryLeaderboard:
		return s.GetLeaderboard()
	}
	return nil
}

// Refresh dispatches every subscription. A failing subscription does not
// stop the others; all failures are joined into the returned error.
func (s *Store) Refresh(ctx context.Context) error {
	var errs []error
	for _, sub := range s.Subscriptions() {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		err := s.Dispatch(ctx, sub)
		if s.recorder != nil {
			s.recorder.ObserveRefresh(sub.Action.String(), err)
		}
		if err != nil {
			errs = append(errs, &SubscriptionError{Subscription: sub, Err: err})
		}
	}
	return errors.Join(errs...)
}

// Run refreshes the store once per event until ctx is done or events is
// closed. Refresh failures are logged.
func (s *Store) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.Refresh(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.Warn("refresh failed", "height", ev.Height, "error", err)
				continue
			}
			s.logger.Debug("refreshed", "height", ev.Height)
		}
	}
}

// Reset drops every cache entry and subscription. Queries in flight when
// Reset is called do not commit.
func (s *Store) Reset() {
	s.mu.Lock()
	s.entries = make(map[Key]domain.Response)
	s.subs = make(map[string]Subscription)
	s.generation++
	s.mu.Unlock()

	if s.recorder != nil {
		s.recorder.SetCacheEntries(0)
	}
}

// QueryParams fetches and caches the module parameters.
func (s *Store) QueryParams(ctx context.Context, opts Options) (domain.QueryParamsResponse, error) {
	return execute(ctx, s, QueryParams, opts, Args{}, domain.PageRequest{}, s.querier.Params)
}

// GetParams returns the cached parameters.
func (s *Store) GetParams() domain.QueryParamsResponse {
	return get[domain.QueryParamsResponse](s, QueryParams, Args{}, domain.PageRequest{})
}

// QuerySystemInfo fetches and caches the system info.
func (s *Store) QuerySystemInfo(ctx context.Context, opts Options) (domain.QueryGetSystemInfoResponse, error) {
	return execute(ctx, s, QuerySystemInfo, opts, Args{}, domain.PageRequest{}, s.querier.SystemInfo)
}

// GetSystemInfo returns the cached system info.
func (s *Store) GetSystemInfo() domain.QueryGetSystemInfoResponse {
	return get[domain.QueryGetSystemInfoResponse](s, QuerySystemInfo, Args{}, domain.PageRequest{})
}

// QueryStoredGame fetches and caches one game.
func (s *Store) QueryStoredGame(ctx context.Context, opts Options, index string) (domain.QueryGetStoredGameResponse, error) {
	return execute(ctx, s, QueryStoredGame, opts, Args{Index: index}, domain.PageRequest{},
		func(ctx context.Context) (domain.QueryGetStoredGameResponse, error) {
			return s.querier.StoredGame(ctx, index)
		})
}

// GetStoredGame returns the cached game with the given index.
func (s *Store) GetStoredGame(index string) domain.QueryGetStoredGameResponse {
	return get[domain.QueryGetStoredGameResponse](s, QueryStoredGame, Args{Index: index}, domain.PageRequest{})
}

// QueryStoredGameAll fetches and caches a page of games, or every page when
// opts.All is set.
func (s *Store) QueryStoredGameAll(ctx context.Context, opts Options, filter domain.PageRequest) (domain.QueryAllStoredGameResponse, error) {
	fetch := s.querier.StoredGameAll
	if opts.All {
		fetch = s.querier.StoredGameAllPages
	}
	return execute(ctx, s, QueryStoredGameAll, opts, Args{}, filter,
		func(ctx context.Context) (domain.QueryAllStoredGameResponse, error) {
			return fetch(ctx, filter)
		})
}

// GetStoredGameAll returns the cached games for filter.
func (s *Store) GetStoredGameAll(filter domain.PageRequest) domain.QueryAllStoredGameResponse {
	return get[domain.QueryAllStoredGameResponse](s, QueryStoredGameAll, Args{}, filter)
}

// QueryCanPlayMove fetches and caches a move legality check.
func (s *Store) QueryCanPlayMove(ctx context.Context, opts Options, req domain.QueryCanPlayMoveRequest) (domain.QueryCanPlayMoveResponse, error) {
	return execute(ctx, s, QueryCanPlayMove, opts, MoveArgs(req), domain.PageRequest{},
		func(ctx context.Context) (domain.QueryCanPlayMoveResponse, error) {
			return s.querier.CanPlayMove(ctx, req)
		})
}

// GetCanPlayMove returns the cached legality check of req.
func (s *Store) GetCanPlayMove(req domain.QueryCanPlayMoveRequest) domain.QueryCanPlayMoveResponse {
	return get[domain.QueryCanPlayMoveResponse](s, QueryCanPlayMove, MoveArgs(req), domain.PageRequest{})
}

// QueryPlayerInfo fetches and caches one player.
func (s *Store) QueryPlayerInfo(ctx context.Context, opts Options, index string) (domain.QueryGetPlayerInfoResponse, error) {
	return execute(ctx, s, QueryPlayerInfo, opts, Args{Index: index}, domain.PageRequest{},
		func(ctx context.Context) (domain.QueryGetPlayerInfoResponse, error) {
			return s.querier.PlayerInfo(ctx, index)
		})
}

// GetPlayerInfo returns the cached player with the given index.
func (s *Store) GetPlayerInfo(index string) domain.QueryGetPlayerInfoResponse {
	return get[domain.QueryGetPlayerInfoResponse](s, QueryPlayerInfo, Args{Index: index}, domain.PageRequest{})
}

// QueryPlayerInfoAll fetches and caches a page of players, or every page
// when opts.All is set.
func (s *Store) QueryPlayerInfoAll(ctx context.Context, opts Options, filter domain.PageRequest) (domain.QueryAllPlayerInfoResponse, error) {
	fetch := s.querier.PlayerInfoAll
	if opts.All {
		fetch = s.querier.PlayerInfoAllPages
	}
	return execute(ctx, s, QueryPlayerInfoAll, opts, Args{}, filter,
		func(ctx context.Context) (domain.QueryAllPlayerInfoResponse, error) {
			return fetch(ctx, filter)
		})
}

// GetPlayerInfoAll returns the cached players for filter.
func (s *Store) GetPlayerInfoAll(filter domain.PageRequest) domain.QueryAllPlayerInfoResponse {
	return get[domain.QueryAllPlayerInfoResponse](s, QueryPlayerInfoAll, Args{}, filter)
}

// QueryLeaderboard fetches and caches the leaderboard.
func (s *Store) QueryLeaderboard(ctx context.Context, opts Options) (domain.QueryGetLeaderboardResponse, error) {
	return execute(ctx, s, QueryLeaderboard, opts, Args{}, domain.PageRequest{}, s.querier.Leaderboard)
}

// GetLeaderboard returns the cached leaderboard.
func (s *Store) GetLeaderboard() domain.QueryGetLeaderboardResponse {
	return get[domain.QueryGetLeaderboardResponse](s, QueryLeaderboard, Args{}, domain.PageRequest{})
}
