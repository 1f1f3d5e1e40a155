package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abouzarnameh/bombbase-api/internal/adapter/metrics"
	"github.com/abouzarnameh/bombbase-api/internal/app"
	"github.com/abouzarnameh/bombbase-api/internal/platform/config"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

type appService interface {
	Now() int64
	GetOrCreatePending(ctx context.Context, creatorID int64) (int64, error)
	GetSession(ctx context.Context, sessionID int64) (*app.SessionView, error)
	AddItem(ctx context.Context, req app.AddItemRequest) (int64, error)
	DeleteItem(ctx context.Context, sessionID, itemID int64) (int64, error)
	StartSession(ctx context.Context, sessionID, requesterID int64) (*int64, error)
	DeleteSession(ctx context.Context, sessionID int64) (int64, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app          appService
	healthChecks []HealthCheck
	startTime    time.Time

	registry    *prometheus.Registry
	httpMetrics *metrics.HTTPMetrics
}

// NewServer wires the echo router. registry and httpMetrics may be nil, in
// which case /metrics is not served and requests are not measured.
func NewServer(cfg *config.Config, app appService, healthChecks []HealthCheck, registry *prometheus.Registry, httpMetrics *metrics.HTTPMetrics) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		app:          app,
		healthChecks: healthChecks,
		startTime:    time.Now(),
		registry:     registry,
		httpMetrics:  httpMetrics,
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port, "storage", s.config.Driver())
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
