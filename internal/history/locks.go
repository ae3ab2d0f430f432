package history

import (
	"sync"
	"time"
)

const (
	lockCleanupInterval = 5 * time.Minute
	lockStaleThreshold  = 10 * time.Minute
)

// Locks serializes writes per (session_id, user_id) pair. It closes the two
// check-then-act races in the conversation flow: two first-requests both
// seeing an empty session and double-seeding, and concurrent requests racing
// the rate-limit count against the append.
//
// Entries for idle pairs are dropped inline during Acquire, mirroring the
// cleanup strategy of the HTTP rate limiter.
type Locks struct {
	mu          sync.Mutex
	entries     map[string]*lockEntry
	lastCleanup time.Time
}

type lockEntry struct {
	mu sync.Mutex

	// refs and lastUsed are guarded by Locks.mu.
	refs     int
	lastUsed time.Time
}

// NewLocks creates an empty lock registry.
func NewLocks() *Locks {
	return &Locks{
		entries:     make(map[string]*lockEntry),
		lastCleanup: time.Now(),
	}
}

// Acquire blocks until the pair's lock is held and returns the release
// function. Acquire is not reentrant.
func (l *Locks) Acquire(sessionID, userID string) (release func()) {
	key := sessionID + "\x00" + userID

	l.mu.Lock()
	now := time.Now()
	if now.Sub(l.lastCleanup) > lockCleanupInterval {
		for k, e := range l.entries {
			if e.refs == 0 && now.Sub(e.lastUsed) > lockStaleThreshold {
				delete(l.entries, k)
			}
		}
		l.lastCleanup = now
	}

	e, ok := l.entries[key]
	if !ok {
		e = &lockEntry{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		l.mu.Lock()
		e.refs--
		e.lastUsed = time.Now()
		l.mu.Unlock()
	}
}
