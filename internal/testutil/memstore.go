// Package testutil provides shared testing infrastructure for the munch
// project: an in-memory message store, canned LLM fakes, and a PostgreSQL
// test container harness.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/munch-labs/munch/internal/history"
)

// MemStore is an in-memory history.MessageStore for unit tests. It assigns
// timestamps from an injectable clock and can be forced to fail.
type MemStore struct {
	mu     sync.Mutex
	rows   []history.Message
	nextID int64

	// Now supplies timestamps for appended rows. Defaults to time.Now.
	Now func() time.Time

	// Err, when non-nil, is returned by every operation.
	Err error
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{Now: time.Now, nextID: 1}
}

// Append implements history.MessageStore.
func (s *MemStore) Append(_ context.Context, sessionID, userID string, kind history.Kind, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}

	s.rows = append(s.rows, history.Message{
		ID:        s.nextID,
		SessionID: sessionID,
		UserID:    userID,
		Kind:      kind,
		Content:   content,
		CreatedAt: s.Now(),
	})
	s.nextID++
	return nil
}

// List implements history.MessageStore. Rows come back ordered by timestamp
// with insertion order breaking ties, matching the SQL store.
func (s *MemStore) List(_ context.Context, sessionID, userID string) ([]history.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	var out []history.Message
	for _, m := range s.rows {
		if m.SessionID == sessionID && m.UserID == userID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// CountSince implements history.MessageStore with an inclusive boundary.
func (s *MemStore) CountSince(_ context.Context, sessionID, userID string, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}

	n := 0
	for _, m := range s.rows {
		if m.SessionID == sessionID && m.UserID == userID && !m.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// Clear implements history.MessageStore.
func (s *MemStore) Clear(_ context.Context, sessionID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}

	kept := s.rows[:0]
	for _, m := range s.rows {
		if m.SessionID != sessionID || m.UserID != userID {
			kept = append(kept, m)
		}
	}
	s.rows = kept
	return nil
}

// Sessions implements history.MessageStore.
func (s *MemStore) Sessions(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	seen := make(map[string]bool)
	var ids []string
	for _, m := range s.rows {
		if m.UserID == userID && !seen[m.SessionID] {
			seen[m.SessionID] = true
			ids = append(ids, m.SessionID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Len returns the total number of stored rows across all pairs.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
