package domain

import "context"

type SessionStatus string

const (
	SessionPending SessionStatus = "pending"
	SessionRunning SessionStatus = "running"
)

// ParseSessionStatus maps a stored status string to a SessionStatus.
// Unknown values are treated as running so they never accept new items.
func ParseSessionStatus(s string) SessionStatus {
	if s == string(SessionPending) {
		return SessionPending
	}
	return SessionRunning
}

type Session struct {
	ID          int64
	CreatorID   int64
	Status      SessionStatus
	CreatedAtMs int64
	StartedAtMs *int64
}

func (s *Session) IsPending() bool {
	return s.Status == SessionPending
}

type SessionRepository interface {
	// Sessions

	FindPendingByCreator(ctx context.Context, creatorID int64) (int64, bool, error)
	CreateSession(ctx context.Context, creatorID, createdAtMs int64) (int64, error)
	GetSession(ctx context.Context, sessionID int64) (*Session, error)
	MarkRunning(ctx context.Context, sessionID, startedAtMs int64) (bool, error)
	DeleteSession(ctx context.Context, sessionID int64) (int64, error)

	// Items

	ListItems(ctx context.Context, sessionID int64) ([]Item, error)
	CountItems(ctx context.Context, sessionID int64) (int, error)
	InsertItem(ctx context.Context, item Item) (int64, error)
	DeleteItem(ctx context.Context, sessionID, itemID int64) (int64, error)

	Ping(ctx context.Context) error
}
