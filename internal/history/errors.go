package history

import "errors"

// Sentinel errors for conversation operations. Callers check them with
// errors.Is; the HTTP layer maps them to status codes.
var (
	// ErrRateLimited indicates the sliding-window message budget for a
	// (session_id, user_id) pair is exhausted. The triggering message is
	// never persisted.
	ErrRateLimited = errors.New("message rate limit exceeded")

	// ErrStorage indicates the message store is unreachable or rejected an
	// operation. Fatal for the current request; single-row appends are
	// atomic, so no partial writes are visible.
	ErrStorage = errors.New("message store unavailable")

	// ErrMalformedSession indicates a session's stored setup rows do not
	// match the expected seed sequence. History is never silently
	// fabricated over a corrupt prefix.
	ErrMalformedSession = errors.New("malformed session history")
)
