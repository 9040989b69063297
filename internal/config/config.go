// Package config loads server configuration from environment variables with
// optional command-line flag overrides.
package config

import (
	"flag"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the server settings. Environment variables populate the
// defaults; flags override the environment.
type Config struct {
	Addr        string        `env:"HEXDICE_ADDR" envDefault:":8080"`
	DBPath      string        `env:"HEXDICE_DB_PATH" envDefault:"data/hexdice.db"`
	Seed        int64         `env:"HEXDICE_SEED" envDefault:"0"`
	TurnTimeout time.Duration `env:"HEXDICE_TURN_TIMEOUT" envDefault:"0"`
	MaxAttacks  int           `env:"HEXDICE_MAX_ATTACKS" envDefault:"0"`
	CORSOrigins string        `env:"HEXDICE_CORS_ORIGINS" envDefault:""`
	LogLevel    string        `env:"HEXDICE_LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment and applies any flags from args.
func Load(args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("hexdice", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path (empty disables persistence)")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "master seed for game randomness (0 = crypto)")
	fs.DurationVar(&cfg.TurnTimeout, "turn-timeout", cfg.TurnTimeout, "force end of turn after this long (0 = never)")
	fs.IntVar(&cfg.MaxAttacks, "max-attacks", cfg.MaxAttacks, "attacks allowed per turn (0 = unlimited)")
	fs.StringVar(&cfg.CORSOrigins, "cors-origins", cfg.CORSOrigins, "comma-separated extra allowed CORS origins")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// CORSOriginList splits the configured origins into a list, dropping empty
// entries.
func (c Config) CORSOriginList() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// SlogLevel maps the configured level name onto a slog level. Unknown names
// fall back to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
