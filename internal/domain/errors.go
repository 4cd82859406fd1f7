package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every failure a caller sees maps to exactly one of these
// buckets; an empty result list with no error never happens.
var (
	// ErrNotConfigured means the provider credential is missing or a
	// placeholder. Fatal for the request, never retried.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrUnknownTool means the requested tool id is not registered.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrToolUnavailable means the tool is catalogued but not yet invocable.
	ErrToolUnavailable = errors.New("tool not yet available")

	// ErrJobTimedOut means the poller exhausted its tick budget. Distinct
	// from upstream failure: the remote job may still finish, we gave up.
	ErrJobTimedOut = errors.New("generation job timed out")

	// ErrNoMediaFound means a nominally successful output contained no
	// extractable media URL.
	ErrNoMediaFound = errors.New("no media URL in tool output")

	// ErrCancelled means the caller cancelled the request.
	ErrCancelled = errors.New("generation cancelled")
)

// UpstreamError carries an explicit failure reported by a backend: an HTTP
// error status, a malformed response, or an upstream-reported generation
// failure. Not retried by the core.
type UpstreamError struct {
	Provider string
	Status   int
	Message  string
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: upstream error %d: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// PlacementError records a canvas persistence or broadcast failure that
// happened after an artifact was already produced. The artifact is still
// returned to the caller; the error is logged, not retried.
type PlacementError struct {
	CanvasID string
	Err      error
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("canvas %s: placement failed: %v", e.CanvasID, e.Err)
}

func (e *PlacementError) Unwrap() error { return e.Err }
