package adapter

import "context"

// InsightTracker is the analytics collaborator. All calls are fire-and-forget
// from the caller's point of view: the use case layer submits them to a
// detached task queue and never lets a failure reach the user-visible flow.
type InsightTracker interface {
	// TrackSession records that a session was started at the given depth.
	TrackSession(ctx context.Context, sessionID, depth string) error
	// TrackCompletion triggers insight extraction for a finished session.
	TrackCompletion(ctx context.Context, sessionID, mbtiType, depth string) error
}
