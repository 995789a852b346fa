// Command csml is the main entry point for the CSML interpreter host.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"

	"github.com/csml-lang/interpreter/internal/bot"
	"github.com/csml-lang/interpreter/internal/config"
	"github.com/csml-lang/interpreter/internal/extension"
	"github.com/csml-lang/interpreter/internal/health"
	"github.com/csml-lang/interpreter/internal/observe"
	"github.com/csml-lang/interpreter/internal/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "csml: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "csml: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("csml starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Observability ────────────────────────────────────────────────────
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: "dev"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown error", "err", err)
		}
	}()

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		slog.Error("failed to build metrics", "err", err)
		return 1
	}

	// ── Bot bundle ────────────────────────────────────────────────────────
	flows, err := loadFlowsFromDir(cfg.Bot.BundleDir)
	if err != nil {
		slog.Error("failed to load bot flows", "dir", cfg.Bot.BundleDir, "err", err)
		return 1
	}
	bundle := &bot.Bundle{Flows: flows, DefaultFlow: cfg.Bot.DefaultFlow}
	loader := bot.StaticLoader{defaultBotID: bundle}
	slog.Info("bot bundle loaded", "flows", len(flows), "default_flow", cfg.Bot.DefaultFlow)

	// ── Persistence adapter (informative, per spec.md §6) ───────────────────
	var pgHealth health.Checker
	if cfg.Store.PostgresDSN != "" {
		pool, err := pgxpool.New(ctx, cfg.Store.PostgresDSN)
		if err != nil {
			slog.Error("failed to connect to postgres", "err", err)
			return 1
		}
		defer pool.Close()

		pgStore := store.NewPostgresStore(pool)
		if err := pgStore.Migrate(ctx); err != nil {
			slog.Error("failed to migrate store schema", "err", err)
			return 1
		}
		if err := pgStore.Upsert(ctx, &store.BotVersion{
			BotID:       defaultBotID,
			VersionID:   "dev",
			DefaultFlow: cfg.Bot.DefaultFlow,
			Flows:       flows,
		}); err != nil {
			slog.Warn("failed to persist bot version snapshot", "err", err)
		} else {
			slog.Info("bot version snapshot persisted", "bot_id", defaultBotID, "version_id", "dev")
		}

		pgHealth = health.Checker{Name: "postgres", Check: func(ctx context.Context) error {
			return pool.Ping(ctx)
		}}
	}

	// ── Extensions ────────────────────────────────────────────────────────
	extensions := extension.NewRegistry()
	defer func() {
		if err := extensions.Close(); err != nil {
			slog.Error("error closing extensions", "err", err)
		}
	}()
	for _, srv := range cfg.Extensions.Servers {
		if err := extensions.RegisterServer(ctx, srv.ServerConfig()); err != nil {
			slog.Error("failed to register extension server", "name", srv.Name, "err", err)
			return 1
		}
		slog.Info("extension server registered", "name", srv.Name, "transport", srv.Transport)
	}

	// ── Hot-reload watcher ────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		diff := config.Diff(old, new)
		if diff.LogLevelChanged {
			slog.SetDefault(newLogger(diff.NewLogLevel))
			slog.Info("log level changed", "new_level", diff.NewLogLevel)
		}
		if diff.ExtensionsChanged {
			slog.Warn("extension server configuration changed; restart csml to apply it", "changes", len(diff.ExtensionChanges))
		}
		if diff.BotChanged {
			slog.Warn("bot configuration changed; restart csml to reload flows")
		}
	})
	if err != nil {
		slog.Error("failed to start config watcher", "err", err)
		return 1
	}
	defer watcher.Stop()

	// ── HTTP server ───────────────────────────────────────────────────────
	checkers := []health.Checker{}
	if pgHealth.Name != "" {
		checkers = append(checkers, pgHealth)
	}
	healthHandler := health.New(checkers...)

	srv := newServer(cfg.Server.ListenAddr, loader, extensions, healthHandler, metrics)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server ready", "listen_addr", cfg.Server.ListenAddr)
		if err := srv.ListenAndServe(); err != nil {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received, stopping…")
	case err := <-serveErr:
		slog.Error("server error", "err", err)
		return 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// defaultBotID names the single bot bundle loaded from cfg.Bot.BundleDir.
// Multi-bot hosting is a host concern beyond this reference server's scope
// (spec.md §1's "opaque bot-loader").
const defaultBotID = "default"

// loadFlowsFromDir reads every ".csml" file directly under dir into a
// [bot.FlowSource], using the filename without extension as the flow name.
func loadFlowsFromDir(dir string) ([]bot.FlowSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read bundle dir %q: %w", dir, err)
	}

	var flows []bot.FlowSource
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".csml" {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read flow file %q: %w", entry.Name(), err)
		}
		name := entry.Name()[:len(entry.Name())-len(".csml")]
		flows = append(flows, bot.FlowSource{Name: name, Content: string(content)})
	}
	return flows, nil
}

// ── Logger ───────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogLevelDebug:
		lvl = slog.LevelDebug
	case config.LogLevelWarn:
		lvl = slog.LevelWarn
	case config.LogLevelError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
