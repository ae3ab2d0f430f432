package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// MessageStore is the persistence surface the session layer depends on.
// *Store implements it; tests substitute an in-memory fake.
type MessageStore interface {
	Append(ctx context.Context, sessionID, userID string, kind Kind, content string) error
	List(ctx context.Context, sessionID, userID string) ([]Message, error)
	CountSince(ctx context.Context, sessionID, userID string, since time.Time) (int, error)
	Clear(ctx context.Context, sessionID, userID string) error
	Sessions(ctx context.Context, userID string) ([]string, error)
}

// Manager is the per-(session_id, user_id) facade over the message log. Open
// guarantees the session is ready before any chat turn is processed: a brand
// new session is seeded with the fixed setup sequence, an existing one is
// loaded into a session-local cache.
//
// A Manager is built per request and is not safe for concurrent use. It
// never talks to the completion or retrieval services.
type Manager struct {
	store     MessageStore
	guard     *Guard
	locks     *Locks
	sessionID string
	userID    string
	logger    *slog.Logger

	messages []Message
}

// Open loads or seeds the session for the pair and returns a ready Manager.
//
// The existence check and any seeding writes happen under the pair's lock,
// so two concurrent first-requests cannot both see an empty session. Each
// seeding write is guard-checked: seeding a fresh session consumes four
// units of the pair's rate budget.
func Open(ctx context.Context, store MessageStore, guard *Guard, locks *Locks,
	sessionID, userID string, logger *slog.Logger) (*Manager, error) {
	if store == nil || guard == nil || locks == nil {
		return nil, fmt.Errorf("store, guard and locks are required")
	}
	if sessionID == "" || userID == "" {
		return nil, fmt.Errorf("session id and user id are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		store:     store,
		guard:     guard,
		locks:     locks,
		sessionID: sessionID,
		userID:    userID,
		logger:    logger,
	}

	release := locks.Acquire(sessionID, userID)
	defer release()

	msgs, err := store.List(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	if len(msgs) == 0 {
		if err := m.seedLocked(ctx, SeedTurns()); err != nil {
			return nil, err
		}
		return m, nil
	}

	if err := m.adoptLocked(ctx, msgs); err != nil {
		return nil, err
	}
	return m, nil
}

// seedLocked writes the given setup turns and reloads the cache from
// storage so cached rows carry the database-assigned timestamps. Caller
// must hold the pair's lock.
func (m *Manager) seedLocked(ctx context.Context, turns []Turn) error {
	for _, turn := range turns {
		if err := m.guard.Check(ctx, m.sessionID, m.userID); err != nil {
			return err
		}
		if err := m.store.Append(ctx, m.sessionID, m.userID, turn.Kind, turn.Content); err != nil {
			return err
		}
	}

	msgs, err := m.store.List(ctx, m.sessionID, m.userID)
	if err != nil {
		return err
	}
	m.messages = msgs

	m.logger.Debug("seeded session",
		"session_id", m.sessionID, "user_id", m.userID, "messages", len(turns))
	return nil
}

// adoptLocked takes over an existing session. The stored leading rows must
// match the expected seed sequence: a strict prefix means seeding was
// interrupted and only the missing tail is rewritten; any kind or content
// mismatch is reported as ErrMalformedSession rather than papered over.
func (m *Manager) adoptLocked(ctx context.Context, msgs []Message) error {
	seeds := SeedTurns()

	n := len(msgs)
	if n > len(seeds) {
		n = len(seeds)
	}
	for i := 0; i < n; i++ {
		if msgs[i].Kind != seeds[i].Kind || msgs[i].Content != seeds[i].Content {
			return fmt.Errorf("%w: setup row %d has type %q, expected %q",
				ErrMalformedSession, i, msgs[i].Kind, seeds[i].Kind)
		}
	}

	if len(msgs) < len(seeds) {
		m.logger.Warn("incomplete setup sequence, re-seeding tail",
			"session_id", m.sessionID, "user_id", m.userID,
			"have", len(msgs), "want", len(seeds))
		return m.seedLocked(ctx, seeds[len(msgs):])
	}

	m.messages = msgs
	return nil
}

// Add guard-checks, durably appends, and caches one turn. On ErrRateLimited
// nothing is persisted.
func (m *Manager) Add(ctx context.Context, turn Turn) error {
	if !turn.Kind.Valid() {
		return fmt.Errorf("invalid message kind %q", turn.Kind)
	}

	release := m.locks.Acquire(m.sessionID, m.userID)
	defer release()

	if err := m.guard.Check(ctx, m.sessionID, m.userID); err != nil {
		return err
	}
	if err := m.store.Append(ctx, m.sessionID, m.userID, turn.Kind, turn.Content); err != nil {
		return err
	}

	m.messages = append(m.messages, Message{
		SessionID: m.sessionID,
		UserID:    m.userID,
		Kind:      turn.Kind,
		Content:   turn.Content,
		CreatedAt: time.Now(),
	})
	return nil
}

// Messages returns a copy of the session-local message cache. The cache is
// populated at Open and extended by Add; it is not re-queried from storage.
func (m *Manager) Messages() []Message {
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Clear empties the cache and deletes the pair's rows. The next Open for
// the pair will seed it again as a brand new session.
func (m *Manager) Clear(ctx context.Context) error {
	release := m.locks.Acquire(m.sessionID, m.userID)
	defer release()

	if err := m.store.Clear(ctx, m.sessionID, m.userID); err != nil {
		return err
	}
	m.messages = m.messages[:0]
	return nil
}

// Sessions returns all session IDs owned by this Manager's user.
func (m *Manager) Sessions(ctx context.Context) ([]string, error) {
	return m.store.Sessions(ctx, m.userID)
}

// Transcript re-reads the pair's rows and projects the user-facing
// transcript. It is recomputed from storage on every call so it always
// reflects the latest persisted state, including a cleared-and-reused
// session id.
func (m *Manager) Transcript(ctx context.Context) ([]Entry, error) {
	msgs, err := m.store.List(ctx, m.sessionID, m.userID)
	if err != nil {
		return nil, err
	}
	return BuildTranscript(msgs), nil
}
