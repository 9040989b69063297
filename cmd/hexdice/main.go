// Command hexdice runs the multiplayer dice conquest server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/talgya/hexdice/internal/api"
	"github.com/talgya/hexdice/internal/config"
	"github.com/talgya/hexdice/internal/entropy"
	"github.com/talgya/hexdice/internal/game"
	"github.com/talgya/hexdice/internal/persistence"
	"github.com/talgya/hexdice/internal/session"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("hexdice starting", "addr", cfg.Addr, "seed", cfg.Seed, "turn_timeout", cfg.TurnTimeout)

	// ── Database ──────────────────────────────────────────────────────
	var store *persistence.Store
	if cfg.DBPath != "" {
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			os.MkdirAll(dir, 0755)
		}
		store, err = persistence.Open(cfg.DBPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		slog.Info("database opened", "path", cfg.DBPath)
	} else {
		slog.Warn("persistence disabled, games will not survive a restart")
	}

	// ── Sessions ──────────────────────────────────────────────────────
	seeder := entropy.NewSeeder(cfg.Seed)
	policy := game.Policy{MaxAttacksPerTurn: cfg.MaxAttacks}

	var gameStore session.GameStore
	if store != nil {
		gameStore = store
	}
	coord := session.NewCoordinator(gameStore, seeder, policy, cfg.TurnTimeout)
	if err := coord.Restore(); err != nil {
		slog.Error("failed to restore games", "error", err)
		os.Exit(1)
	}
	defer coord.Close()

	// ── HTTP API ──────────────────────────────────────────────────────
	apiServer := &api.Server{
		Coord:       coord,
		Addr:        cfg.Addr,
		DBPath:      cfg.DBPath,
		CORSOrigins: cfg.CORSOriginList(),
	}
	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: apiServer.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	slog.Info("listening", "addr", cfg.Addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("received signal, shutting down", "signal", sig)
	case err := <-errCh:
		slog.Error("HTTP server error", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}

	slog.Info("stopped")
}
