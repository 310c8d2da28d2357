package repository

import "context"

// SessionStore is the persistence bridge: a scoped key -> session-id mapping
// that survives process restarts so a prior session can be restored.
//
// The bridge is best-effort. Implementations must degrade to no-ops instead of
// failing when no durable store is reachable; callers check Available and
// treat "unavailable" as a normal branch, never as an error.
type SessionStore interface {
	// Available reports whether the underlying store is usable right now.
	Available(ctx context.Context) bool
	// Save persists the active session id. A no-op when unavailable.
	Save(ctx context.Context, sessionID string) error
	// Read returns the persisted session id, or "" when none is stored or the
	// store is unavailable.
	Read(ctx context.Context) (string, error)
	// Clear removes the persisted session id. A no-op when unavailable.
	Clear(ctx context.Context) error
}
