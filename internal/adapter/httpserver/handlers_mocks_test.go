package httpserver

import (
	"context"
	"errors"
	"testing"

	"github.com/abouzarnameh/bombbase-api/internal/app"
	"github.com/abouzarnameh/bombbase-api/internal/platform/config"
	"github.com/labstack/echo/v4"
)

// --- Mock implementations ---

const mockNowMs int64 = 1_700_000_000_000

type mockAppService struct {
	getOrCreatePendingFn func(ctx context.Context, creatorID int64) (int64, error)
	getSessionFn         func(ctx context.Context, sessionID int64) (*app.SessionView, error)
	addItemFn            func(ctx context.Context, req app.AddItemRequest) (int64, error)
	deleteItemFn         func(ctx context.Context, sessionID, itemID int64) (int64, error)
	startSessionFn       func(ctx context.Context, sessionID, requesterID int64) (*int64, error)
	deleteSessionFn      func(ctx context.Context, sessionID int64) (int64, error)
}

func (m *mockAppService) Now() int64 { return mockNowMs }

func (m *mockAppService) GetOrCreatePending(ctx context.Context, creatorID int64) (int64, error) {
	if m.getOrCreatePendingFn != nil {
		return m.getOrCreatePendingFn(ctx, creatorID)
	}
	return 0, errors.New("not implemented")
}

func (m *mockAppService) GetSession(ctx context.Context, sessionID int64) (*app.SessionView, error) {
	if m.getSessionFn != nil {
		return m.getSessionFn(ctx, sessionID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) AddItem(ctx context.Context, req app.AddItemRequest) (int64, error) {
	if m.addItemFn != nil {
		return m.addItemFn(ctx, req)
	}
	return 0, errors.New("not implemented")
}

func (m *mockAppService) DeleteItem(ctx context.Context, sessionID, itemID int64) (int64, error) {
	if m.deleteItemFn != nil {
		return m.deleteItemFn(ctx, sessionID, itemID)
	}
	return 0, errors.New("not implemented")
}

func (m *mockAppService) StartSession(ctx context.Context, sessionID, requesterID int64) (*int64, error) {
	if m.startSessionFn != nil {
		return m.startSessionFn(ctx, sessionID, requesterID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) DeleteSession(ctx context.Context, sessionID int64) (int64, error) {
	if m.deleteSessionFn != nil {
		return m.deleteSessionFn(ctx, sessionID)
	}
	return 0, errors.New("not implemented")
}

// --- Test helpers ---

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:         "test",
		Port:           "0",
		DatabaseURL:    "app.db",
		AllowedOrigins: []string{"*"},
	}
}

func newTestServer(t *testing.T, app appService, opts ...func(*Server)) *Server {
	t.Helper()
	srv := NewServer(testConfig(), app, nil, nil, nil)
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

// callHandler wraps a handler with error middleware, matching production behavior
func callHandler(handler echo.HandlerFunc, c echo.Context) error {
	return ErrorHandlingMiddleware(nil)(handler)(c)
}
