// Package main runs one checkers query and prints the result as JSON.
//
// Usage:
//
//	query [flags] <action>
//
// where action is a query name such as Leaderboard or QueryStoredGameAll.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"checkers-client/internal/cometbft"
	"checkers-client/internal/config"
	"checkers-client/internal/domain"
	"checkers-client/internal/query"
	"checkers-client/internal/store"
)

func main() {
	var cfg config.Config
	if err := config.ParseEnv(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	var (
		args   store.Args
		filter domain.PageRequest
		key    string
		all    bool
	)
	flag.StringVar(&cfg.RPCEndpoint, "rpc-endpoint", cfg.RPCEndpoint, "CometBFT RPC HTTP endpoint")
	flag.DurationVar(&cfg.RPCTimeout, "rpc-timeout", cfg.RPCTimeout, "Per-request RPC timeout")
	flag.IntVar(&cfg.RPCMaxRetries, "rpc-max-retries", cfg.RPCMaxRetries, "RPC retries on transport errors")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&args.Index, "index", "", "Game index or player address (StoredGame, PlayerInfo)")
	flag.StringVar(&args.GameIndex, "game-index", "", "Game index (CanPlayMove)")
	flag.StringVar(&args.Player, "player", "", "Player colour, b or r (CanPlayMove)")
	flag.Uint64Var(&args.FromX, "from-x", 0, "Source column (CanPlayMove)")
	flag.Uint64Var(&args.FromY, "from-y", 0, "Source row (CanPlayMove)")
	flag.Uint64Var(&args.ToX, "to-x", 0, "Target column (CanPlayMove)")
	flag.Uint64Var(&args.ToY, "to-y", 0, "Target row (CanPlayMove)")
	flag.StringVar(&key, "page-key", "", "Base64 pagination cursor")
	flag.Uint64Var(&filter.Offset, "page-offset", 0, "Pagination offset")
	flag.Uint64Var(&filter.Limit, "page-limit", 0, "Page size (0 for the node default)")
	flag.BoolVar(&filter.CountTotal, "page-count-total", false, "Ask the node for the total count")
	flag.BoolVar(&filter.Reverse, "page-reverse", false, "Iterate in reverse order")
	flag.BoolVar(&all, "all", false, "Follow pagination to the last page")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: query [flags] <action>\n\nactions:\n")
		for _, a := range store.Actions {
			fmt.Fprintf(flag.CommandLine.Output(), "  %s\n", a.QueryName())
		}
		fmt.Fprintln(flag.CommandLine.Output())
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	action, err := parseAction(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if key != "" {
		if filter.Key, err = base64.StdEncoding.DecodeString(key); err != nil {
			fmt.Fprintf(os.Stderr, "page-key: %v\n", err)
			os.Exit(2)
		}
	}
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rpc := cometbft.NewHTTPClient(cfg.RPCEndpoint,
		cometbft.WithTimeout(cfg.RPCTimeout),
		cometbft.WithMaxRetries(cfg.RPCMaxRetries),
	)
	s := store.New(query.NewClient(rpc, query.WithLogger(logger)), store.WithLogger(logger))

	sub := store.Subscription{Action: action, Payload: store.Payload{All: all, Args: args, Filter: filter}}
	if err := execute(ctx, s, sub, os.Stdout); err != nil {
		logger.Error("query failed", "action", action.String(), "error", err)
		os.Exit(1)
	}
}

// parseAction accepts both "StoredGame" and "QueryStoredGame".
func parseAction(name string) (store.Action, error) {
	if !strings.HasPrefix(name, "Query") {
		name = "Query" + name
	}
	return store.ParseAction(name)
}

// execute runs sub once and writes its plain form to w.
func execute(ctx context.Context, s *store.Store, sub store.Subscription, w io.Writer) error {
	if err := s.Dispatch(ctx, sub); err != nil {
		return err
	}
	resp := s.Lookup(sub)
	if resp == nil {
		return fmt.Errorf("no result for %s", sub.Action)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp.Plain())
}
