package availability

import "errors"

var (
	// ErrInvalidQuery is fatal to a resolution and is returned before any registrar is evaluated.
	ErrInvalidQuery = errors.New("invalid availability query")

	// ErrInvalidConfiguration marks a single registrar's persisted data as unusable.
	// It never aborts a resolution; the registrar is excluded instead.
	ErrInvalidConfiguration = errors.New("invalid registrar configuration")

	// ErrCollaboratorUnavailable means the snapshot could not be fetched. Retryable.
	ErrCollaboratorUnavailable = errors.New("availability snapshot unavailable")

	ErrInvalidTimeFormat       = errors.New("invalid time format (expected HH:MM)")
	ErrInvalidDuration         = errors.New("duration must be positive")
	ErrMalformedLegacySchedule = errors.New("legacy schedule is not an object")
)
