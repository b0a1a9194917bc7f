package session

import "errors"

// Failures intrinsic to session identity abort the requested operation and
// surface to the caller. Oracle failures never do: they degrade to the
// fallback action and are only visible as annotations on the step result.
var (
	ErrUnknownGame        = errors.New("unknown game")
	ErrEmulatorInitFailed = errors.New("emulator init failed")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionTerminated  = errors.New("session terminated")
	ErrMissingHumanAction = errors.New("missing human action")
	ErrPersistenceFailed  = errors.New("persistence failed")

	// ErrOracleUnavailable is surfaced by Chat only; Step recovers from
	// oracle failures internally.
	ErrOracleUnavailable = errors.New("oracle unavailable")
)
