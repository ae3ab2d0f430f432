package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the durable append-only message log, backed by PostgreSQL.
//
// Store is safe for concurrent use by multiple goroutines; all state lives
// in the database.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a message Store.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Append writes one message row. The timestamp is assigned by the database,
// and the insert is atomic: either the full row is visible or nothing is.
func (s *Store) Append(ctx context.Context, sessionID, userID string, kind Kind, content string) error {
	if !kind.Valid() {
		return fmt.Errorf("invalid message kind %q", kind)
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO messages (session_id, user_id, message_type, content)
		 VALUES ($1, $2, $3, $4)`,
		sessionID, userID, string(kind), content)
	if err != nil {
		return fmt.Errorf("%w: appending message for session %s: %v", ErrStorage, sessionID, err)
	}

	s.logger.Debug("appended message",
		"session_id", sessionID, "user_id", userID, "message_type", kind)
	return nil
}

// List returns all messages for the pair, oldest first. Ordering is by
// creation time with insertion order breaking ties. An unknown pair yields
// an empty slice, not an error.
func (s *Store) List(ctx context.Context, sessionID, userID string) ([]Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, user_id, message_type, content, created_at
		 FROM messages
		 WHERE session_id = $1 AND user_id = $2
		 ORDER BY created_at, id`,
		sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing messages for session %s: %v", ErrStorage, sessionID, err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		var kind string
		if err := rows.Scan(&m.ID, &m.SessionID, &m.UserID, &kind, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning message row: %v", ErrStorage, err)
		}
		m.Kind = Kind(kind)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading message rows: %v", ErrStorage, err)
	}
	return msgs, nil
}

// CountSince counts the pair's messages created at or after since. The
// boundary is inclusive.
func (s *Store) CountSince(ctx context.Context, sessionID, userID string, since time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM messages
		 WHERE session_id = $1 AND user_id = $2 AND created_at >= $3`,
		sessionID, userID, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: counting messages for session %s: %v", ErrStorage, sessionID, err)
	}
	return n, nil
}

// Clear deletes all messages for the pair. Clearing an empty session is a
// no-op, not an error.
func (s *Store) Clear(ctx context.Context, sessionID, userID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM messages WHERE session_id = $1 AND user_id = $2`,
		sessionID, userID)
	if err != nil {
		return fmt.Errorf("%w: clearing session %s: %v", ErrStorage, sessionID, err)
	}

	s.logger.Debug("cleared session",
		"session_id", sessionID, "user_id", userID, "deleted", tag.RowsAffected())
	return nil
}

// Sessions returns the distinct session IDs the user has ever written to.
func (s *Store) Sessions(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT session_id FROM messages WHERE user_id = $1 ORDER BY session_id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing sessions for user %s: %v", ErrStorage, userID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scanning session id: %v", ErrStorage, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading session ids: %v", ErrStorage, err)
	}
	return ids, nil
}
