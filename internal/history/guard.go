package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Reference tuning values. Both are configurable; see config.SpamWindow and
// config.SpamLimit.
const (
	// DefaultWindow is the trailing interval over which message counts are
	// evaluated.
	DefaultWindow = 2 * time.Minute

	// DefaultLimit is the maximum number of messages allowed inside the
	// window before further writes are rejected.
	DefaultLimit = 45
)

// counter is the store surface the guard needs.
type counter interface {
	CountSince(ctx context.Context, sessionID, userID string, since time.Time) (int, error)
}

// Guard bounds the rate of message ingestion per (session_id, user_id) pair
// with a sliding window over the persisted log. It holds no state of its
// own, so a restart cannot reset a user's budget.
type Guard struct {
	store  counter
	window time.Duration
	limit  int
	now    func() time.Time
	logger *slog.Logger
}

// NewGuard creates a Guard. Non-positive window or limit fall back to the
// defaults.
func NewGuard(store counter, window time.Duration, limit int, logger *slog.Logger) *Guard {
	if window <= 0 {
		window = DefaultWindow
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		store:  store,
		window: window,
		limit:  limit,
		now:    time.Now,
		logger: logger,
	}
}

// Check returns ErrRateLimited when the pair already has limit or more
// messages inside the window, counting the inclusive boundary timestamp.
// The comparison runs before the write, so the (limit+1)-th message in a
// window is the first one rejected.
//
// Check runs before every persisted write, including the setup rows written
// while seeding a new session, so seeding consumes part of the same budget.
func (g *Guard) Check(ctx context.Context, sessionID, userID string) error {
	since := g.now().Add(-g.window)

	n, err := g.store.CountSince(ctx, sessionID, userID, since)
	if err != nil {
		return fmt.Errorf("counting recent messages: %w", err)
	}

	if n >= g.limit {
		g.logger.Warn("message rate limit exceeded",
			"session_id", sessionID, "user_id", userID, "count", n, "limit", g.limit)
		return fmt.Errorf("%w: %d messages in the last %s", ErrRateLimited, n, g.window)
	}
	return nil
}
