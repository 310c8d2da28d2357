package domain

import "errors"

var (
	// Remote failure taxonomy, classified from transport status by the
	// assessment adapter. Everything except ErrNotFound is retryable at the
	// same session identity.
	ErrRateLimited        = errors.New("rate limited by remote service")
	ErrServiceUnavailable = errors.New("remote service temporarily unavailable")
	ErrServerFault        = errors.New("remote service fault")
	ErrNotFound           = errors.New("session not found on remote service")
	ErrNetworkFailure     = errors.New("network failure")

	// Local guard errors.
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNoActiveSession = errors.New("no active session")
	ErrSessionExists   = errors.New("a session is already in progress")
	ErrBusy            = errors.New("another action is in flight")
	ErrNotUpgradable   = errors.New("session depth cannot be upgraded further")
	ErrNoResult        = errors.New("no assessment result available yet")
)

// Retryable reports whether err may succeed on a plain re-send. NotFound means
// the remote session is gone, so the only recovery is a clear-and-restart.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, ErrRateLimited),
		errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, ErrServerFault),
		errors.Is(err, ErrNetworkFailure):
		return true
	}
	return false
}
