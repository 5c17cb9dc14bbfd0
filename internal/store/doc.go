// Package store persists chat sessions and their ordered messages in
// PostgreSQL.
//
// Two types own the lifecycle rules: SessionStore for sessions and
// MessageStore for the messages bound to them. Writes that must appear atomic
// (message append's existence-check-then-insert, session delete's
// check-then-cascade) run inside a single pgx transaction with a row lock on
// the session, so a commit can never leave a message referencing a session
// that no longer exists.
//
// Validation and not-found conditions surface as typed errors
// (*ValidationError, ErrSessionNotFound) checked with errors.Is/As at the API
// boundary; they are never swallowed here.
//
// Both stores are safe for concurrent use by multiple goroutines.
package store
