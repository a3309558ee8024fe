// Command aegisd runs the agent orchestration core as an HTTP service,
// grounded on cmd/tarsy/main.go's flag/config-dir/.env bootstrap sequence,
// extended with the graceful-shutdown and spec-mandated exit codes
// cmd/tarsy/main.go's early-phase version does not yet implement.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/aegis-sec/aegis/pkg/api"
	"github.com/aegis-sec/aegis/pkg/config"
	"github.com/aegis-sec/aegis/pkg/core"
	"github.com/aegis-sec/aegis/pkg/coreerr"
)

// Exit codes (spec §6).
const (
	exitOK                 = 0
	exitConfigError        = 64
	exitPersistenceCorrupt = 70
	exitBackendUnavailable = 74
	exitInterrupted        = 130
)

const shutdownTimeout = 15 * time.Second

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	os.Exit(run())
}

func run() int {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("no .env file loaded", "path", envPath, "error", err)
	} else {
		slog.Info("loaded environment", "path", envPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		slog.Error("configuration initialization failed", "error", err)
		return exitConfigError
	}

	c, err := core.New(ctx, cfg)
	if err != nil {
		switch {
		case coreerr.Is(err, coreerr.ErrPersistenceCorrupt):
			slog.Error("startup aborted: persistence corrupt", "error", err)
			return exitPersistenceCorrupt
		case coreerr.Is(err, coreerr.ErrBackendUnavailable):
			slog.Error("startup aborted: backend unavailable", "error", err)
			return exitBackendUnavailable
		default:
			slog.Error("startup aborted: configuration error", "error", err)
			return exitConfigError
		}
	}

	server := api.NewServer(cfg, c)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("aegisd listening", "addr", cfg.API.ListenAddr)
		serveErr <- server.Start()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			slog.Error("http server stopped unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}
	if err := c.Shutdown(shutdownCtx); err != nil {
		slog.Error("core shutdown error", "error", err)
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		return exitInterrupted
	}
	return exitOK
}
