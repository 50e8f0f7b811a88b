package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/antoniostano/genesisvoice/internal/config"
	"github.com/antoniostano/genesisvoice/internal/generation"
	"github.com/antoniostano/genesisvoice/internal/httpapi"
	"github.com/antoniostano/genesisvoice/internal/observability"
	"github.com/antoniostano/genesisvoice/internal/session"
	"github.com/antoniostano/genesisvoice/internal/ttsapi"
)

func main() {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	store, err := openSessionStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("session store init failed: %w", err)
	}
	defer store.Close()
	logger.Info("session store ready", "driver", cfg.SessionStoreDriver)

	client := ttsapi.New(cfg.APIBaseURL,
		ttsapi.WithTimeout(cfg.APITimeout),
		ttsapi.WithMetrics(metrics),
	)

	workflow := generation.NewWorkflow(client, generation.Config{
		Interval:    cfg.PollInterval,
		MaxAttempts: cfg.MaxPollAttempts,
	}, generation.WithLogger(logger), generation.WithMetrics(metrics))

	registry := generation.NewRegistry(cfg.GenerationRetention)
	registry.SetExpireHook(func(snap generation.Snapshot) {
		logger.Debug("generation expired", "generation_id", snap.ID, "state", snap.State)
	})

	api := httpapi.New(cfg, store, client, workflow, registry, metrics, logger)
	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	registry.StartJanitor(runCtx, 30*time.Second)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.BindAddr, "api_base_url", cfg.APIBaseURL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}

	runCancel()
	registry.CancelAll()
	api.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
		_ = httpServer.Close()
	}

	logger.Info("shutdown complete")
	return nil
}

func openSessionStore(ctx context.Context, cfg config.Config) (session.Store, error) {
	driver := session.StoreType(cfg.SessionStoreDriver)
	switch driver {
	case session.StoreTypeRedis:
		client, err := session.NewRedisClient(ctx, cfg.SessionRedisURL)
		if err != nil {
			return nil, err
		}
		return session.NewStore(ctx, driver,
			session.WithRedisClient(client),
			session.WithRedisTTL(cfg.SessionRedisTTL),
		)
	default:
		return session.NewStore(ctx, driver,
			session.WithFilePath(cfg.SessionFilePath),
			session.WithDatabaseURL(cfg.SessionDatabaseURL),
		)
	}
}

func newLogger(w io.Writer, format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler = slog.NewJSONHandler(w, opts)
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("app", "genesisvoice")
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
