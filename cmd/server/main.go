package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abouzarnameh/bombbase-api/internal/adapter/httpserver"
	"github.com/abouzarnameh/bombbase-api/internal/adapter/metrics"
	"github.com/abouzarnameh/bombbase-api/internal/adapter/store"
	"github.com/abouzarnameh/bombbase-api/internal/app"
	"github.com/abouzarnameh/bombbase-api/internal/platform/config"
	"github.com/abouzarnameh/bombbase-api/internal/platform/logging"
	"github.com/abouzarnameh/bombbase-api/internal/platform/retry"
	"github.com/abouzarnameh/bombbase-api/internal/platform/version"
	"github.com/jonboulle/clockwork"
)

const (
	connectTimeout  = 10 * time.Second
	migrateTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func runGracefulShutdown(srv *httpserver.Server) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupStore(cfg *config.Config, clock clockwork.Clock, dbMetrics *metrics.DBMetrics) *store.Store {
	policy := retry.Policy{
		MaxAttempts:    cfg.DBConnectAttempts,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			slog.Warn("Database connection failed, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		},
	}

	st, err := retry.Do(context.Background(), clock, policy, func(ctx context.Context) (*store.Store, error) {
		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		return store.Open(ctx, cfg.DatabaseURL, dbMetrics)
	})
	if err != nil {
		slog.Error("Failed to connect to database", "driver", cfg.Driver(), "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return st
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Get().String())

	registry := metrics.NewRegistry()
	dbMetrics := metrics.NewDBMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	sessionMetrics := metrics.NewSessionMetrics(registry)

	st := setupStore(cfg, clock, dbMetrics)
	defer st.Close()

	appSvc := app.NewService(st.Sessions, clock, sessionMetrics)

	healthChecks := []httpserver.HealthCheck{
		{Name: string(st.Driver), Check: st.Ping},
	}
	srv := httpserver.NewServer(cfg, appSvc, healthChecks, registry, httpMetrics)

	done := runGracefulShutdown(srv)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
	slog.Info("Server stopped")
}
