// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the configuration shared by the binaries.
type Config struct {
	RPCEndpoint   string        `env:"CHECKERS_RPC_ENDPOINT"    envDefault:"http://localhost:26657"`
	WSEndpoint    string        `env:"CHECKERS_WS_ENDPOINT"     envDefault:"ws://localhost:26657/websocket"`
	RPCTimeout    time.Duration `env:"CHECKERS_RPC_TIMEOUT"     envDefault:"30s"`
	RPCMaxRetries int           `env:"CHECKERS_RPC_MAX_RETRIES" envDefault:"3"`
	PostgresDSN   string        `env:"CHECKERS_POSTGRES_DSN"`
	ClickHouseDSN string        `env:"CHECKERS_CLICKHOUSE_DSN"`
	MetricsAddr   string        `env:"CHECKERS_METRICS_ADDR"    envDefault:":9090"`
	LogLevel      string        `env:"CHECKERS_LOG_LEVEL"       envDefault:"info"`
	RefreshAll    bool          `env:"CHECKERS_REFRESH_ALL"     envDefault:"true"`
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates a Config.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks endpoint schemes and numeric bounds.
func (c Config) Validate() error {
	var errs []error
	if err := checkURL(c.RPCEndpoint, "http", "https"); err != nil {
		errs = append(errs, fmt.Errorf("rpc endpoint: %w", err))
	}
	if err := checkURL(c.WSEndpoint, "ws", "wss"); err != nil {
		errs = append(errs, fmt.Errorf("ws endpoint: %w", err))
	}
	if c.RPCTimeout <= 0 {
		errs = append(errs, fmt.Errorf("rpc timeout must be positive, got %s", c.RPCTimeout))
	}
	if c.RPCMaxRetries < 0 {
		errs = append(errs, fmt.Errorf("rpc max retries must not be negative, got %d", c.RPCMaxRetries))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func checkURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%q: expected %s URL", raw, strings.Join(schemes, " or "))
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return l, nil
}
