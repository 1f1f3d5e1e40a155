package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/abouzarnameh/bombbase-api/internal/app"
	"github.com/abouzarnameh/bombbase-api/internal/domain"
	apperrors "github.com/abouzarnameh/bombbase-api/internal/platform/errors"
	"github.com/labstack/echo/v4"
)

func (s *Server) registerSessionRoutes(writeLimiter echo.MiddlewareFunc) {
	s.echo.GET("/session", s.handleGetSession)
	s.echo.POST("/session/pending_simple", s.handlePendingSimple, writeLimiter)
	s.echo.POST("/session/:sid/add", s.handleAddItem, writeLimiter)
	s.echo.DELETE("/session/:sid/item/:item_id", s.handleDeleteItem, writeLimiter)
	s.echo.POST("/session/:sid/start", s.handleStartSession, writeLimiter)
	s.echo.DELETE("/session/:sid", s.handleDeleteSession, writeLimiter)
}

// --- Wire types ---

type okResponse struct {
	OK bool `json:"ok"`
}

type pendingSimpleRequest struct {
	CreatorID *int64 `json:"creator_id"`
}

type pendingSimpleResponse struct {
	SID int64 `json:"sid"`
}

type addItemRequest struct {
	Title    *string `json:"title"`
	TravelMs *int64  `json:"travel_ms"`
	Priority *int64  `json:"priority"`
}

type addItemResponse struct {
	OK     bool  `json:"ok"`
	ItemID int64 `json:"item_id"`
}

type startRequest struct {
	UserID *int64 `json:"user_id"`
}

type startResponse struct {
	OK          bool   `json:"ok"`
	StartedAtMs *int64 `json:"started_at_ms"`
}

type deletedResponse struct {
	OK      bool  `json:"ok"`
	Deleted int64 `json:"deleted"`
}

type sessionJSON struct {
	ID          int64  `json:"id"`
	CreatorID   int64  `json:"creator_id"`
	Status      string `json:"status"`
	CreatedAtMs int64  `json:"created_at_ms"`
	StartedAtMs *int64 `json:"started_at_ms"`
}

type itemJSON struct {
	ID          int64   `json:"id"`
	SessionID   int64   `json:"session_id"`
	Title       *string `json:"title"`
	TravelMs    int64   `json:"travel_ms"`
	Priority    int64   `json:"priority"`
	CreatedAtMs int64   `json:"created_at_ms"`
}

type sessionResponse struct {
	Session     sessionJSON `json:"session"`
	Items       []itemJSON  `json:"items"`
	ServerNowMs int64       `json:"server_now_ms"`
}

func toSessionResponse(view *app.SessionView, nowMs int64) sessionResponse {
	s := view.Session
	items := make([]itemJSON, 0, len(view.Items))
	for _, it := range view.Items {
		items = append(items, itemJSON{
			ID:          it.ID,
			SessionID:   it.SessionID,
			Title:       it.Title,
			TravelMs:    it.TravelMs,
			Priority:    it.Priority,
			CreatedAtMs: it.CreatedAtMs,
		})
	}
	return sessionResponse{
		Session: sessionJSON{
			ID:          s.ID,
			CreatorID:   s.CreatorID,
			Status:      string(s.Status),
			CreatedAtMs: s.CreatedAtMs,
			StartedAtMs: s.StartedAtMs,
		},
		Items:       items,
		ServerNowMs: nowMs,
	}
}

// --- Handlers ---

func (s *Server) handlePendingSimple(c echo.Context) error {
	var req pendingSimpleRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	if req.CreatorID == nil {
		return apperrors.ValidationError("creator_id is required").WithField("field", "creator_id")
	}

	sid, err := s.app.GetOrCreatePending(c.Request().Context(), *req.CreatorID)
	if err != nil {
		return apperrors.InternalError("failed to get or create pending session", err).
			WithField("creator_id", *req.CreatorID)
	}

	return writeJSON(c, pendingSimpleResponse{SID: sid})
}

func (s *Server) handleGetSession(c echo.Context) error {
	sid, err := parseID(c.QueryParam("sid"), "sid")
	if err != nil {
		return err
	}

	view, err := s.app.GetSession(c.Request().Context(), sid)
	if err != nil {
		return sessionError(err, sid, "failed to get session")
	}

	return writeJSON(c, toSessionResponse(view, s.app.Now()))
}

func (s *Server) handleAddItem(c echo.Context) error {
	sid, err := parseID(c.Param("sid"), "sid")
	if err != nil {
		return err
	}

	var req addItemRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	if req.TravelMs == nil {
		return apperrors.ValidationError("travel_ms is required").WithField("field", "travel_ms")
	}

	itemID, err := s.app.AddItem(c.Request().Context(), app.AddItemRequest{
		SessionID: sid,
		Title:     req.Title,
		TravelMs:  *req.TravelMs,
		Priority:  req.Priority,
	})
	if err != nil {
		return sessionError(err, sid, "failed to add item")
	}

	return writeJSON(c, addItemResponse{OK: true, ItemID: itemID})
}

func (s *Server) handleDeleteItem(c echo.Context) error {
	sid, err := parseID(c.Param("sid"), "sid")
	if err != nil {
		return err
	}
	itemID, err := parseID(c.Param("item_id"), "item_id")
	if err != nil {
		return err
	}

	deleted, err := s.app.DeleteItem(c.Request().Context(), sid, itemID)
	if err != nil {
		return sessionError(err, sid, "failed to delete item").WithField("item_id", itemID)
	}

	return writeJSON(c, deletedResponse{OK: true, Deleted: deleted})
}

func (s *Server) handleStartSession(c echo.Context) error {
	sid, err := parseID(c.Param("sid"), "sid")
	if err != nil {
		return err
	}

	var req startRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	if req.UserID == nil {
		return apperrors.ValidationError("user_id is required").WithField("field", "user_id")
	}

	startedAtMs, err := s.app.StartSession(c.Request().Context(), sid, *req.UserID)
	if err != nil {
		return sessionError(err, sid, "failed to start session").WithField("user_id", *req.UserID)
	}

	return writeJSON(c, startResponse{OK: true, StartedAtMs: startedAtMs})
}

func (s *Server) handleDeleteSession(c echo.Context) error {
	sid, err := parseID(c.Param("sid"), "sid")
	if err != nil {
		return err
	}

	deleted, err := s.app.DeleteSession(c.Request().Context(), sid)
	if err != nil {
		return sessionError(err, sid, "failed to delete session")
	}

	return writeJSON(c, deletedResponse{OK: true, Deleted: deleted})
}

// --- Helpers ---

func parseID(raw, field string) (int64, error) {
	if raw == "" {
		return 0, apperrors.ValidationError(field + " is required").WithField("field", field)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.ValidationError("invalid "+field+" format").WithField(field, raw)
	}
	return id, nil
}

func decodeJSON(c echo.Context, dst any) error {
	if err := json.NewDecoder(c.Request().Body).Decode(dst); err != nil {
		if _, ok := errors.AsType[*echo.HTTPError](err); ok {
			return err
		}
		return apperrors.ValidationError("invalid JSON body").WithField("reason", err.Error())
	}
	return nil
}

func writeJSON(c echo.Context, body any) error {
	if err := c.JSON(http.StatusOK, body); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// sessionError maps domain errors to structured errors; anything unrecognised
// becomes an internal error carrying msg.
func sessionError(err error, sid int64, msg string) *apperrors.Error {
	var out *apperrors.Error
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		out = apperrors.NotFoundError("session not found")
	case errors.Is(err, domain.ErrSessionNotPending):
		out = apperrors.ConflictError(apperrors.CodeSessionNotPending, "session is not pending")
	case errors.Is(err, domain.ErrSessionEmpty):
		out = apperrors.ConflictError(apperrors.CodeEmpty, "session has no items")
	case errors.Is(err, domain.ErrForbidden):
		out = apperrors.ForbiddenError("only the session creator may start it")
	case errors.Is(err, domain.ErrInvalidTravelDuration), errors.Is(err, domain.ErrInvalidPriority):
		out = apperrors.ValidationError(err.Error())
	default:
		out = apperrors.InternalError(msg, err)
	}
	return out.WithField("sid", sid)
}
