package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/abouzarnameh/bombbase-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRepo struct {
	pool *pgxpool.Pool
}

var _ domain.SessionRepository = (*SessionRepo)(nil)

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

func (r *SessionRepo) FindPendingByCreator(ctx context.Context, creatorID int64) (int64, bool, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		SELECT id FROM sessions
		WHERE creator_id = $1 AND status = 'pending'
		ORDER BY id DESC
		LIMIT 1
	`, creatorID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to find pending session: %w", err)
	}
	return id, true, nil
}

func (r *SessionRepo) CreateSession(ctx context.Context, creatorID, createdAtMs int64) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO sessions (creator_id, status, created_at_ms)
		VALUES ($1, 'pending', $2)
		RETURNING id
	`, creatorID, createdAtMs).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert session: %w", err)
	}
	return id, nil
}

func (r *SessionRepo) GetSession(ctx context.Context, sessionID int64) (*domain.Session, error) {
	var (
		s      domain.Session
		status string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, creator_id, status, created_at_ms, started_at_ms
		FROM sessions
		WHERE id = $1
	`, sessionID).Scan(&s.ID, &s.CreatorID, &status, &s.CreatedAtMs, &s.StartedAtMs)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	s.Status = domain.ParseSessionStatus(status)
	return &s, nil
}

func (r *SessionRepo) MarkRunning(ctx context.Context, sessionID, startedAtMs int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sessions
		SET status = 'running', started_at_ms = $2
		WHERE id = $1 AND status = 'pending'
	`, sessionID, startedAtMs)
	if err != nil {
		return false, fmt.Errorf("failed to mark session running: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *SessionRepo) DeleteSession(ctx context.Context, sessionID int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete session: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *SessionRepo) ListItems(ctx context.Context, sessionID int64) ([]domain.Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, title, travel_ms, priority, created_at_ms
		FROM items
		WHERE session_id = $1
		ORDER BY priority ASC, id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Item, error) {
		var it domain.Item
		err := row.Scan(&it.ID, &it.SessionID, &it.Title, &it.TravelMs, &it.Priority, &it.CreatedAtMs)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan items: %w", err)
	}
	return items, nil
}

func (r *SessionRepo) CountItems(ctx context.Context, sessionID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM items WHERE session_id = $1`, sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

func (r *SessionRepo) InsertItem(ctx context.Context, item domain.Item) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO items (session_id, title, travel_ms, priority, created_at_ms)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, item.SessionID, item.Title, item.TravelMs, item.Priority, item.CreatedAtMs).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert item: %w", err)
	}
	return id, nil
}

func (r *SessionRepo) DeleteItem(ctx context.Context, sessionID, itemID int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM items WHERE id = $1 AND session_id = $2`, itemID, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete item: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *SessionRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
