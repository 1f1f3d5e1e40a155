package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/abouzarnameh/bombbase-api/internal/app"
	"github.com/abouzarnameh/bombbase-api/internal/domain"
	apperrors "github.com/abouzarnameh/bombbase-api/internal/platform/errors"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// --- POST /session/pending_simple ---

func TestHandlePendingSimple_Success(t *testing.T) {
	var gotCreator int64
	mock := &mockAppService{
		getOrCreatePendingFn: func(_ context.Context, creatorID int64) (int64, error) {
			gotCreator = creatorID
			return 1, nil
		},
	}
	srv := newTestServer(t, mock)
	c, rec := newJSONContext(http.MethodPost, "/session/pending_simple", `{"creator_id": 42}`)

	err := callHandler(srv.handlePendingSimple, c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sid":1}`, rec.Body.String())
	assert.Equal(t, int64(42), gotCreator)
}

func TestHandlePendingSimple_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing creator_id", `{}`},
		{"string creator_id", `{"creator_id": "42"}`},
		{"fractional creator_id", `{"creator_id": 4.2}`},
		{"malformed body", `{"creator_id":`},
		{"empty body", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &mockAppService{})
			c, rec := newJSONContext(http.MethodPost, "/session/pending_simple", tt.body)

			err := callHandler(srv.handlePendingSimple, c)

			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, apperrors.CodeValidation, decodeError(t, rec).Error)
		})
	}
}

func TestHandlePendingSimple_StoreFailureIsInternal(t *testing.T) {
	mock := &mockAppService{
		getOrCreatePendingFn: func(context.Context, int64) (int64, error) {
			return 0, errors.New("disk I/O error")
		},
	}
	srv := newTestServer(t, mock)
	c, rec := newJSONContext(http.MethodPost, "/session/pending_simple", `{"creator_id": 42}`)

	err := callHandler(srv.handlePendingSimple, c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, apperrors.CodeInternal, resp.Error)
	assert.NotContains(t, rec.Body.String(), "disk I/O error")
	assert.Nil(t, resp.Context)
}

// --- GET /session ---

func TestHandleGetSession_Success(t *testing.T) {
	startedAt := int64(1_700_000_000_500)
	mock := &mockAppService{
		getSessionFn: func(_ context.Context, sessionID int64) (*app.SessionView, error) {
			return &app.SessionView{
				Session: &domain.Session{ID: sessionID, CreatorID: 42, Status: domain.SessionRunning, CreatedAtMs: 1000, StartedAtMs: &startedAt},
				Items: []domain.Item{
					{ID: 2, SessionID: sessionID, TravelMs: 3000, Priority: 1, CreatedAtMs: 1100},
					{ID: 1, SessionID: sessionID, Title: ptr("Bomb A"), TravelMs: 5000, Priority: 2, CreatedAtMs: 1050},
				},
			}, nil
		},
	}
	srv := newTestServer(t, mock)
	c, rec := newJSONContext(http.MethodGet, "/session?sid=1", "")

	err := callHandler(srv.handleGetSession, c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"session": {"id":1,"creator_id":42,"status":"running","created_at_ms":1000,"started_at_ms":1700000000500},
		"items": [
			{"id":2,"session_id":1,"title":null,"travel_ms":3000,"priority":1,"created_at_ms":1100},
			{"id":1,"session_id":1,"title":"Bomb A","travel_ms":5000,"priority":2,"created_at_ms":1050}
		],
		"server_now_ms": 1700000000000
	}`, rec.Body.String())
}

func TestHandleGetSession_EmptyItemsIsArray(t *testing.T) {
	mock := &mockAppService{
		getSessionFn: func(_ context.Context, sessionID int64) (*app.SessionView, error) {
			return &app.SessionView{
				Session: &domain.Session{ID: sessionID, CreatorID: 42, Status: domain.SessionPending, CreatedAtMs: 1000},
			}, nil
		},
	}
	srv := newTestServer(t, mock)
	c, rec := newJSONContext(http.MethodGet, "/session?sid=3", "")

	err := callHandler(srv.handleGetSession, c)

	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), `"items":[]`)
	assert.Contains(t, rec.Body.String(), `"started_at_ms":null`)
}

func TestHandleGetSession_NotFound(t *testing.T) {
	mock := &mockAppService{
		getSessionFn: func(context.Context, int64) (*app.SessionView, error) {
			return nil, domain.ErrSessionNotFound
		},
	}
	srv := newTestServer(t, mock)
	c, rec := newJSONContext(http.MethodGet, "/session?sid=99", "")

	err := callHandler(srv.handleGetSession, c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, apperrors.CodeNotFound, resp.Error)
	assert.Equal(t, float64(99), resp.Context["sid"])
}

func TestHandleGetSession_InvalidSID(t *testing.T) {
	for _, target := range []string{"/session", "/session?sid=abc", "/session?sid=1.5"} {
		t.Run(target, func(t *testing.T) {
			srv := newTestServer(t, &mockAppService{})
			c, rec := newJSONContext(http.MethodGet, target, "")

			err := callHandler(srv.handleGetSession, c)

			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, apperrors.CodeValidation, decodeError(t, rec).Error)
		})
	}
}

// --- POST /session/:sid/add ---

func TestHandleAddItem_Success(t *testing.T) {
	var got app.AddItemRequest
	mock := &mockAppService{
		addItemFn: func(_ context.Context, req app.AddItemRequest) (int64, error) {
			got = req
			return 7, nil
		},
	}
	srv := newTestServer(t, mock)
	c, rec := newJSONContext(http.MethodPost, "/session/1/add", `{"title":"Bomb A","travel_ms":5000,"priority":2}`)
	c.SetParamNames("sid")
	c.SetParamValues("1")

	err := callHandler(srv.handleAddItem, c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"item_id":7}`, rec.Body.String())
	assert.Equal(t, int64(1), got.SessionID)
	assert.Equal(t, int64(5000), got.TravelMs)
	require.NotNil(t, got.Title)
	assert.Equal(t, "Bomb A", *got.Title)
	require.NotNil(t, got.Priority)
	assert.Equal(t, int64(2), *got.Priority)
}

func TestHandleAddItem_OptionalFieldsOmitted(t *testing.T) {
	var got app.AddItemRequest
	mock := &mockAppService{
		addItemFn: func(_ context.Context, req app.AddItemRequest) (int64, error) {
			got = req
			return 1, nil
		},
	}
	srv := newTestServer(t, mock)
	c, _ := newJSONContext(http.MethodPost, "/session/1/add", `{"travel_ms":5000}`)
	c.SetParamNames("sid")
	c.SetParamValues("1")

	require.NoError(t, callHandler(srv.handleAddItem, c))
	assert.Nil(t, got.Title)
	assert.Nil(t, got.Priority)
}

func TestHandleAddItem_MissingTravelMs(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})
	c, rec := newJSONContext(http.MethodPost, "/session/1/add", `{"title":"x"}`)
	c.SetParamNames("sid")
	c.SetParamValues("1")

	err := callHandler(srv.handleAddItem, c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.CodeValidation, decodeError(t, rec).Error)
}

func TestHandleAddItem_DomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", domain.ErrSessionNotFound, http.StatusOK, apperrors.CodeNotFound},
		{"not pending", domain.ErrSessionNotPending, http.StatusOK, apperrors.CodeSessionNotPending},
		{"bad travel", domain.ErrInvalidTravelDuration, http.StatusBadRequest, apperrors.CodeValidation},
		{"bad priority", domain.ErrInvalidPriority, http.StatusBadRequest, apperrors.CodeValidation},
		{"store failure", errors.New("boom"), http.StatusInternalServerError, apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockAppService{
				addItemFn: func(context.Context, app.AddItemRequest) (int64, error) {
					return 0, tt.err
				},
			}
			srv := newTestServer(t, mock)
			c, rec := newJSONContext(http.MethodPost, "/session/1/add", `{"travel_ms":5000}`)
			c.SetParamNames("sid")
			c.SetParamValues("1")

			err := callHandler(srv.handleAddItem, c)

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Error)
		})
	}
}

// --- DELETE /session/:sid/item/:item_id ---

func TestHandleDeleteItem(t *testing.T) {
	tests := []struct {
		name       string
		deleted    int64
		err        error
		wantStatus int
		wantBody   string
	}{
		{"deleted", 1, nil, http.StatusOK, `{"ok":true,"deleted":1}`},
		{"no match", 0, nil, http.StatusOK, `{"ok":true,"deleted":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockAppService{
				deleteItemFn: func(_ context.Context, sessionID, itemID int64) (int64, error) {
					assert.Equal(t, int64(1), sessionID)
					assert.Equal(t, int64(5), itemID)
					return tt.deleted, tt.err
				},
			}
			srv := newTestServer(t, mock)
			c, rec := newJSONContext(http.MethodDelete, "/session/1/item/5", "")
			c.SetParamNames("sid", "item_id")
			c.SetParamValues("1", "5")

			err := callHandler(srv.handleDeleteItem, c)

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestHandleDeleteItem_SessionNotFound(t *testing.T) {
	mock := &mockAppService{
		deleteItemFn: func(context.Context, int64, int64) (int64, error) {
			return 0, domain.ErrSessionNotFound
		},
	}
	srv := newTestServer(t, mock)
	c, rec := newJSONContext(http.MethodDelete, "/session/9/item/5", "")
	c.SetParamNames("sid", "item_id")
	c.SetParamValues("9", "5")

	err := callHandler(srv.handleDeleteItem, c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, apperrors.CodeNotFound, resp.Error)
	assert.Equal(t, float64(5), resp.Context["item_id"])
}

func TestHandleDeleteItem_InvalidItemID(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})
	c, rec := newJSONContext(http.MethodDelete, "/session/1/item/x", "")
	c.SetParamNames("sid", "item_id")
	c.SetParamValues("1", "x")

	err := callHandler(srv.handleDeleteItem, c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- POST /session/:sid/start ---

func TestHandleStartSession_Success(t *testing.T) {
	mock := &mockAppService{
		startSessionFn: func(_ context.Context, sessionID, requesterID int64) (*int64, error) {
			assert.Equal(t, int64(1), sessionID)
			assert.Equal(t, int64(42), requesterID)
			startedAt := int64(1_700_000_000_123)
			return &startedAt, nil
		},
	}
	srv := newTestServer(t, mock)
	c, rec := newJSONContext(http.MethodPost, "/session/1/start", `{"user_id":42}`)
	c.SetParamNames("sid")
	c.SetParamValues("1")

	err := callHandler(srv.handleStartSession, c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"started_at_ms":1700000000123}`, rec.Body.String())
}

func TestHandleStartSession_RunningWithoutStartTime(t *testing.T) {
	mock := &mockAppService{
		startSessionFn: func(context.Context, int64, int64) (*int64, error) {
			return nil, nil
		},
	}
	srv := newTestServer(t, mock)
	c, rec := newJSONContext(http.MethodPost, "/session/1/start", `{"user_id":42}`)
	c.SetParamNames("sid")
	c.SetParamValues("1")

	err := callHandler(srv.handleStartSession, c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"started_at_ms":null}`, rec.Body.String())
}

func TestHandleStartSession_DomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", domain.ErrSessionNotFound, http.StatusOK, apperrors.CodeNotFound},
		{"forbidden", domain.ErrForbidden, http.StatusOK, apperrors.CodeForbidden},
		{"empty", domain.ErrSessionEmpty, http.StatusOK, apperrors.CodeEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockAppService{
				startSessionFn: func(context.Context, int64, int64) (*int64, error) {
					return nil, tt.err
				},
			}
			srv := newTestServer(t, mock)
			c, rec := newJSONContext(http.MethodPost, "/session/1/start", `{"user_id":7}`)
			c.SetParamNames("sid")
			c.SetParamValues("1")

			err := callHandler(srv.handleStartSession, c)

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Error)
		})
	}
}

func TestHandleStartSession_MissingUserID(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})
	c, rec := newJSONContext(http.MethodPost, "/session/1/start", `{}`)
	c.SetParamNames("sid")
	c.SetParamValues("1")

	err := callHandler(srv.handleStartSession, c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- DELETE /session/:sid ---

func TestHandleDeleteSession(t *testing.T) {
	mock := &mockAppService{
		deleteSessionFn: func(_ context.Context, sessionID int64) (int64, error) {
			if sessionID == 1 {
				return 1, nil
			}
			return 0, nil
		},
	}
	srv := newTestServer(t, mock)

	for sid, want := range map[string]string{"1": `{"ok":true,"deleted":1}`, "2": `{"ok":true,"deleted":0}`} {
		c, rec := newJSONContext(http.MethodDelete, "/session/"+sid, "")
		c.SetParamNames("sid")
		c.SetParamValues(sid)

		require.NoError(t, callHandler(srv.handleDeleteSession, c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, want, rec.Body.String())
	}
}
