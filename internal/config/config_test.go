package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Addr)
	require.Equal(t, "data/hexdice.db", cfg.DBPath)
	require.Equal(t, int64(0), cfg.Seed)
	require.Equal(t, time.Duration(0), cfg.TurnTimeout)
	require.Equal(t, 0, cfg.MaxAttacks)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("HEXDICE_ADDR", ":9001")
	t.Setenv("HEXDICE_TURN_TIMEOUT", "90s")
	t.Setenv("HEXDICE_MAX_ATTACKS", "3")

	cfg, err := Load(nil)
	require.NoError(t, err)

	require.Equal(t, ":9001", cfg.Addr)
	require.Equal(t, 90*time.Second, cfg.TurnTimeout)
	require.Equal(t, 3, cfg.MaxAttacks)
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("HEXDICE_ADDR", ":9001")

	cfg, err := Load([]string{"-addr", ":7777", "-seed", "5"})
	require.NoError(t, err)

	require.Equal(t, ":7777", cfg.Addr)
	require.Equal(t, int64(5), cfg.Seed)
}

func TestCORSOriginList(t *testing.T) {
	require.Nil(t, Config{}.CORSOriginList())

	cfg := Config{CORSOrigins: "https://play.example.com, https://beta.example.com ,"}
	require.Equal(t,
		[]string{"https://play.example.com", "https://beta.example.com"},
		cfg.CORSOriginList())
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"bizarre": slog.LevelInfo,
	}
	for name, want := range cases {
		require.Equal(t, want, Config{LogLevel: name}.SlogLevel())
	}
}
