// Package watcher provides debounced file system notifications.
//
// It wraps fsnotify and is used by the store to notice writes made to the
// settings file by other processes, and by the icon provider to drop cached
// icon-pack mapping tables when a pack changes on disk.
//
// Example usage:
//
//	w, err := watcher.New(watcher.Config{
//	    DebounceInterval: 50 * time.Millisecond,
//	    Filter: func(path string) bool {
//	        return filepath.Base(path) == "launcher.db"
//	    },
//	}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	if err := w.Start(ctx, []string{"~/.config/launcher"}); err != nil {
//	    log.Fatal(err)
//	}
//
//	for event := range w.Events() {
//	    fmt.Printf("File %s: %s\n", event.Path, event.Op)
//	}
package watcher

import (
	"context"
	"time"
)

// Op describes a file operation type.
type Op uint32

// File operation types.
const (
	OpCreate Op = 1 << iota // File created
	OpWrite                 // File modified
	OpRemove                // File deleted
	OpRename                // File renamed/moved
	OpChmod                 // File permissions changed
)

// String returns a human-readable operation name.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpWrite:
		return "WRITE"
	case OpRemove:
		return "REMOVE"
	case OpRename:
		return "RENAME"
	case OpChmod:
		return "CHMOD"
	default:
		return "UNKNOWN"
	}
}

// Event represents a file system event.
type Event struct {
	// Path is the path of the file that triggered the event.
	Path string

	// Op is the operation that triggered the event.
	Op Op

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// Watcher provides file system monitoring.
type Watcher interface {
	// Start begins watching the specified directories.
	//
	// Paths that do not exist are skipped; ErrInvalidPath is returned when
	// none remain. Event processing runs in the background until ctx is
	// cancelled or Stop/Close is called.
	Start(ctx context.Context, paths []string) error

	// Stop halts event processing. The watcher cannot be restarted.
	Stop() error

	// Events returns the channel of debounced events.
	// The channel is closed when the watcher is closed.
	Events() <-chan Event

	// Errors returns the channel of non-fatal watcher errors.
	// The channel is closed when the watcher is closed.
	Errors() <-chan error

	// Close stops the watcher and releases resources.
	Close() error
}

// Filter reports whether events for path should be delivered.
type Filter func(path string) bool

// Config contains watcher configuration.
type Config struct {
	// DebounceInterval is the time to wait before emitting an event.
	// Multiple events for the same file within this interval are coalesced.
	// Default: 100ms.
	DebounceInterval time.Duration

	// Filter selects the paths whose events are delivered.
	// Default: every path.
	Filter Filter

	// Recursive adds every subdirectory of the watched paths.
	Recursive bool

	// CircuitBreakerThreshold is the number of consecutive failures
	// before the watcher stops forwarding errors and reports
	// ErrCircuitBreakerOpen instead.
	// Default: 5.
	CircuitBreakerThreshold int
}
