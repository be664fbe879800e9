package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrNoDBPath is returned when no settings database path is configured.
	ErrNoDBPath = errors.New("no settings database path specified")

	// ErrNoIconCacheDir is returned when no icon cache directory is configured.
	ErrNoIconCacheDir = errors.New("no icon cache directory specified")

	// ErrInvalidTickInterval is returned when the tick interval is not in (0, 1s].
	ErrInvalidTickInterval = errors.New("invalid tick interval: must be > 0 and <= 1s")

	// ErrInvalidHeartbeatInterval is returned when the heartbeat interval is <= 0.
	ErrInvalidHeartbeatInterval = errors.New("invalid heartbeat interval: must be > 0")

	// ErrInvalidMemoryBudget is returned when the memory budget is negative.
	ErrInvalidMemoryBudget = errors.New("invalid icon memory budget: must be >= 0")

	// ErrInvalidIconSize is returned when the default icon size is <= 0.
	ErrInvalidIconSize = errors.New("invalid default icon size: must be > 0")

	// ErrInvalidConcurrency is returned when prewarm concurrency is <= 0.
	ErrInvalidConcurrency = errors.New("invalid prewarm concurrency: must be > 0")

	// ErrInvalidTintThreshold is returned when the tint threshold is not in (0, 1].
	ErrInvalidTintThreshold = errors.New("invalid tint uniform threshold: must be in (0, 1]")

	// ErrInvalidDebounce is returned when the debounce interval is negative.
	ErrInvalidDebounce = errors.New("invalid debounce interval: must be >= 0")

	// ErrInvalidLogLevel is returned when log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level: must be debug, info, warn, or error")

	// ErrInvalidLogFormat is returned when log format is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrConfigNotFound is returned when config file is not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when config file has invalid YAML syntax.
	ErrInvalidYAML = errors.New("invalid YAML syntax in config file")

	// ErrInvalidEnv is returned when an environment override cannot be parsed.
	ErrInvalidEnv = errors.New("invalid environment override")
)
