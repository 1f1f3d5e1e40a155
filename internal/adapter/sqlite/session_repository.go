package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/abouzarnameh/bombbase-api/internal/domain"
)

type SessionRepo struct {
	db *DB
}

var _ domain.SessionRepository = (*SessionRepo)(nil)

func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) FindPendingByCreator(ctx context.Context, creatorID int64) (int64, bool, error) {
	var id int64
	err := r.db.queryRow(ctx, `
		SELECT id FROM sessions
		WHERE creator_id = ? AND status = 'pending'
		ORDER BY id DESC
		LIMIT 1
	`, []any{creatorID}, &id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to find pending session: %w", err)
	}
	return id, true, nil
}

func (r *SessionRepo) CreateSession(ctx context.Context, creatorID, createdAtMs int64) (int64, error) {
	res, err := r.db.exec(ctx, `
		INSERT INTO sessions (creator_id, status, created_at_ms)
		VALUES (?, 'pending', ?)
	`, creatorID, createdAtMs)
	if err != nil {
		return 0, fmt.Errorf("failed to insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read session id: %w", err)
	}
	return id, nil
}

func (r *SessionRepo) GetSession(ctx context.Context, sessionID int64) (*domain.Session, error) {
	var (
		s         domain.Session
		status    string
		startedAt sql.NullInt64
	)
	err := r.db.queryRow(ctx, `
		SELECT id, creator_id, status, created_at_ms, started_at_ms
		FROM sessions
		WHERE id = ?
	`, []any{sessionID}, &s.ID, &s.CreatorID, &status, &s.CreatedAtMs, &startedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	s.Status = domain.ParseSessionStatus(status)
	if startedAt.Valid {
		s.StartedAtMs = &startedAt.Int64
	}
	return &s, nil
}

func (r *SessionRepo) MarkRunning(ctx context.Context, sessionID, startedAtMs int64) (bool, error) {
	res, err := r.db.exec(ctx, `
		UPDATE sessions
		SET status = 'running', started_at_ms = ?
		WHERE id = ? AND status = 'pending'
	`, startedAtMs, sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to mark session running: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

func (r *SessionRepo) DeleteSession(ctx context.Context, sessionID int64) (int64, error) {
	res, err := r.db.exec(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete session: %w", err)
	}
	return res.RowsAffected()
}

func (r *SessionRepo) ListItems(ctx context.Context, sessionID int64) ([]domain.Item, error) {
	rows, err := r.db.query(ctx, `
		SELECT id, session_id, title, travel_ms, priority, created_at_ms
		FROM items
		WHERE session_id = ?
		ORDER BY priority ASC, id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []domain.Item
	for rows.Next() {
		var (
			it    domain.Item
			title sql.NullString
		)
		if err := rows.Scan(&it.ID, &it.SessionID, &title, &it.TravelMs, &it.Priority, &it.CreatedAtMs); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		if title.Valid {
			it.Title = &title.String
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

func (r *SessionRepo) CountItems(ctx context.Context, sessionID int64) (int, error) {
	var count int
	err := r.db.queryRow(ctx, `SELECT COUNT(*) FROM items WHERE session_id = ?`, []any{sessionID}, &count)
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

func (r *SessionRepo) InsertItem(ctx context.Context, item domain.Item) (int64, error) {
	res, err := r.db.exec(ctx, `
		INSERT INTO items (session_id, title, travel_ms, priority, created_at_ms)
		VALUES (?, ?, ?, ?, ?)
	`, item.SessionID, item.Title, item.TravelMs, item.Priority, item.CreatedAtMs)
	if err != nil {
		return 0, fmt.Errorf("failed to insert item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read item id: %w", err)
	}
	return id, nil
}

func (r *SessionRepo) DeleteItem(ctx context.Context, sessionID, itemID int64) (int64, error) {
	res, err := r.db.exec(ctx, `DELETE FROM items WHERE id = ? AND session_id = ?`, itemID, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete item: %w", err)
	}
	return res.RowsAffected()
}

func (r *SessionRepo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
