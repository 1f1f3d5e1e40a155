package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abouzarnameh/bombbase-api/internal/domain"
	"github.com/jonboulle/clockwork"
)

// Recorder receives domain events for metrics. All methods must be safe for
// concurrent use.
type Recorder interface {
	SessionCreated()
	SessionStarted()
	SessionDeleted()
	ItemAdded()
	ItemDeleted()
}

type noopRecorder struct{}

func (noopRecorder) SessionCreated() { /* EMPTY */ }
func (noopRecorder) SessionStarted() { /* EMPTY */ }
func (noopRecorder) SessionDeleted() { /* EMPTY */ }
func (noopRecorder) ItemAdded()      { /* EMPTY */ }
func (noopRecorder) ItemDeleted()    { /* EMPTY */ }

// Service is the application layer. It owns the session and item rules; the
// repository only persists.
type Service struct {
	sessions domain.SessionRepository
	clock    clockwork.Clock
	recorder Recorder
}

// NewService creates the application layer service.
// recorder may be nil when metrics are not wired.
func NewService(sessions domain.SessionRepository, clock clockwork.Clock, recorder Recorder) *Service {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Service{
		sessions: sessions,
		clock:    clock,
		recorder: recorder,
	}
}

// SessionView is a session together with its ordered items.
type SessionView struct {
	Session *domain.Session
	Items   []domain.Item
}

// AddItemRequest bundles the parameters of a new item. Nil Priority means
// domain.DefaultPriority.
type AddItemRequest struct {
	SessionID int64
	Title     *string
	TravelMs  int64
	Priority  *int64
}

// Now returns the service clock in milliseconds since epoch.
func (s *Service) Now() int64 {
	return s.clock.Now().UnixMilli()
}

// GetOrCreatePending returns the creator's most recent pending session, creating
// one if none exists. Concurrent first calls for the same creator may both create.
func (s *Service) GetOrCreatePending(ctx context.Context, creatorID int64) (int64, error) {
	sid, found, err := s.sessions.FindPendingByCreator(ctx, creatorID)
	if err != nil {
		return 0, fmt.Errorf("failed to look up pending session: %w", err)
	}
	if found {
		return sid, nil
	}

	sid, err = s.sessions.CreateSession(ctx, creatorID, s.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to create session: %w", err)
	}

	s.recorder.SessionCreated()
	slog.InfoContext(ctx, "Session created", "session_id", sid, "creator_id", creatorID)
	return sid, nil
}

// GetSession returns the session and its items ordered by (priority, id).
func (s *Service) GetSession(ctx context.Context, sessionID int64) (*SessionView, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	items, err := s.sessions.ListItems(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	domain.SortItems(items)

	return &SessionView{Session: session, Items: items}, nil
}

// AddItem validates and appends an item to a pending session.
func (s *Service) AddItem(ctx context.Context, req AddItemRequest) (int64, error) {
	priority := domain.DefaultPriority
	if req.Priority != nil {
		priority = *req.Priority
	}
	if err := domain.ValidateItem(req.TravelMs, priority); err != nil {
		return 0, err
	}

	session, err := s.sessions.GetSession(ctx, req.SessionID)
	if err != nil {
		return 0, err
	}
	if !session.IsPending() {
		return 0, domain.ErrSessionNotPending
	}

	itemID, err := s.sessions.InsertItem(ctx, domain.Item{
		SessionID:   req.SessionID,
		Title:       normalizeTitle(req.Title),
		TravelMs:    req.TravelMs,
		Priority:    priority,
		CreatedAtMs: s.Now(),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert item: %w", err)
	}

	s.recorder.ItemAdded()
	return itemID, nil
}

// DeleteItem removes an item if it belongs to the session. Returns the number of
// rows removed (0 or 1).
func (s *Service) DeleteItem(ctx context.Context, sessionID, itemID int64) (int64, error) {
	if _, err := s.sessions.GetSession(ctx, sessionID); err != nil {
		return 0, err
	}

	deleted, err := s.sessions.DeleteItem(ctx, sessionID, itemID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete item: %w", err)
	}

	if deleted > 0 {
		s.recorder.ItemDeleted()
	}
	return deleted, nil
}

// StartSession moves a pending session to running and returns its start time.
// Restarting a running session echoes the recorded start time, which is nil
// for sessions marked running without one.
func (s *Service) StartSession(ctx context.Context, sessionID, requesterID int64) (*int64, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.IsPending() {
		count, err := s.sessions.CountItems(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to count items: %w", err)
		}
		if count == 0 {
			return nil, domain.ErrSessionEmpty
		}
	}

	if requesterID != session.CreatorID {
		return nil, domain.ErrForbidden
	}

	if !session.IsPending() {
		return session.StartedAtMs, nil
	}

	now := s.Now()
	updated, err := s.sessions.MarkRunning(ctx, sessionID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	if !updated {
		// Lost a race against another start; echo whatever won.
		current, err := s.sessions.GetSession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return current.StartedAtMs, nil
	}

	s.recorder.SessionStarted()
	slog.InfoContext(ctx, "Session started", "session_id", sessionID, "started_at_ms", now)
	return &now, nil
}

// DeleteSession removes the session and its items. Returns the number of
// sessions removed (0 or 1).
func (s *Service) DeleteSession(ctx context.Context, sessionID int64) (int64, error) {
	deleted, err := s.sessions.DeleteSession(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete session: %w", err)
	}

	if deleted > 0 {
		s.recorder.SessionDeleted()
		slog.InfoContext(ctx, "Session deleted", "session_id", sessionID)
	}
	return deleted, nil
}

// normalizeTitle stores an empty title as NULL and keeps anything else as typed.
func normalizeTitle(title *string) *string {
	if title == nil || *title == "" {
		return nil
	}
	return title
}
