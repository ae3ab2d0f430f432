// Package history provides session-scoped conversation persistence for the
// munch chat service.
//
// A conversation is the ordered message log for one (session_id, user_id)
// pair. The package has four cooperating pieces:
//
//   - [Store]: durable append-only message log backed by PostgreSQL
//   - [Manager]: per-pair facade that seeds new sessions with the fixed
//     setup sequence and caches the loaded log for one request
//   - [Guard]: sliding-window rate limit checked before every persisted write
//   - [BuildTranscript]: derives the user-facing transcript from raw rows,
//     hiding setup scaffolding
//
// # Concurrency
//
// Store is safe for concurrent use; all state lives in PostgreSQL. A Manager
// is built per request and is not safe for concurrent use. The
// existence-check-then-seed sequence and each check-then-append are
// serialized per (session_id, user_id) through [Locks], closing the races a
// naive count-then-insert would have.
package history
