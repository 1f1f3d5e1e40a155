package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/abouzarnameh/bombbase-api/internal/platform/version"
	"github.com/labstack/echo/v4"
)

const readinessProbeTimeout = 5 * time.Second

// HealthCheck is a named dependency probe run by /health/ready. The server
// names its storage check after the backend driver ("sqlite" or "postgres").
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type livenessResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	ServerNowMs   int64   `json:"server_now_ms"`
}

type checkResult struct {
	Name      string `json:"name"`
	OK        bool   `json:"ok"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status  string        `json:"status"`
	Storage string        `json:"storage"`
	Checks  []checkResult `json:"checks"`
}

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
}

func (s *Server) handleHealth(c echo.Context) error {
	return writeJSON(c, okResponse{OK: true})
}

// handleLiveness never touches storage; clients may use server_now_ms to
// align countdowns without loading a session.
func (s *Server) handleLiveness(c echo.Context) error {
	return writeJSON(c, livenessResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(s.startTime).Seconds(),
		ServerNowMs:   s.app.Now(),
	})
}

// handleReadiness runs every check, reporting each result, and answers 503
// if any failed.
func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessProbeTimeout)
	defer cancel()

	resp := readinessResponse{
		Status: "ready",
		Checks: make([]checkResult, 0, len(s.healthChecks)),
	}
	if s.config != nil {
		resp.Storage = string(s.config.Driver())
	}

	status := http.StatusOK
	for _, hc := range s.healthChecks {
		began := time.Now()
		err := hc.Check(ctx)
		result := checkResult{Name: hc.Name, OK: err == nil, LatencyMs: time.Since(began).Milliseconds()}
		if err != nil {
			result.Error = err.Error()
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}
		resp.Checks = append(resp.Checks, result)
	}

	if err := c.JSON(status, resp); err != nil {
		return fmt.Errorf("failed to write readiness response: %w", err)
	}
	return nil
}

func (s *Server) handleVersion(c echo.Context) error {
	return writeJSON(c, version.Get())
}
