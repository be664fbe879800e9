package focus

import "errors"

// Common errors returned by the focus engine.
var (
	// ErrInvalidDuration is returned when a session is started with a
	// non-positive duration.
	ErrInvalidDuration = errors.New("session duration must be > 0")

	// ErrInvalidConfig is returned when an interval is negative.
	ErrInvalidConfig = errors.New("invalid focus engine configuration")

	// ErrEngineClosed is returned when the engine has been closed.
	ErrEngineClosed = errors.New("focus engine closed")
)
