package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/0xmhha/launcher-core/pkg/logger"
)

// watcher implements the Watcher interface using fsnotify.
type watcher struct {
	fsw    *fsnotify.Watcher
	logger logger.Logger
	config Config

	events chan Event
	errors chan error

	mu       sync.RWMutex
	running  bool
	stopped  bool
	closed   bool
	stopChan chan struct{}

	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	failureCount int
}

// New creates a new file system watcher.
//
// Parameters:
//   - cfg: Watcher configuration
//   - log: Logger instance
//
// Returns:
//   - Configured Watcher
//   - Error if watcher cannot be created
func New(cfg Config, log logger.Logger) (Watcher, error) {
	// Set defaults.
	if cfg.DebounceInterval == 0 {
		cfg.DebounceInterval = 100 * time.Millisecond
	}
	if cfg.CircuitBreakerThreshold == 0 {
		cfg.CircuitBreakerThreshold = 5
	}
	if cfg.Filter == nil {
		cfg.Filter = func(string) bool { return true }
	}

	// Create fsnotify watcher.
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &watcher{
		fsw:            fsw,
		logger:         log,
		config:         cfg,
		events:         make(chan Event, 100),
		errors:         make(chan error, 10),
		stopChan:       make(chan struct{}),
		debounceTimers: make(map[string]*time.Timer),
	}

	log.Debug("file watcher created",
		"debounce_interval", cfg.DebounceInterval,
		"recursive", cfg.Recursive)

	return w, nil
}

// Start implements Watcher.Start.
func (w *watcher) Start(ctx context.Context, paths []string) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	if w.running || w.stopped {
		w.mu.Unlock()
		return ErrAlreadyStarted
	}
	w.running = true
	w.mu.Unlock()

	expandedPaths := make([]string, 0, len(paths))
	for _, path := range paths {
		expanded := ExpandHome(path)

		if _, err := os.Stat(expanded); err != nil {
			if os.IsNotExist(err) {
				w.logger.Warn("watch path does not exist, skipping",
					"path", expanded)
				continue
			}
			return fmt.Errorf("failed to stat path %s: %w", expanded, err)
		}

		expandedPaths = append(expandedPaths, expanded)
	}

	if len(expandedPaths) == 0 {
		return ErrInvalidPath
	}

	for _, path := range expandedPaths {
		if err := w.addPath(path); err != nil {
			return fmt.Errorf("failed to add path %s: %w", path, err)
		}
	}

	w.logger.Debug("watcher started", "paths", expandedPaths)

	go w.processEvents(ctx)

	return nil
}

// Stop implements Watcher.Stop.
func (w *watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if !w.running {
		return ErrNotStarted
	}

	close(w.stopChan)
	w.running = false
	w.stopped = true

	w.logger.Debug("watcher stopped")
	return nil
}

// Events implements Watcher.Events.
func (w *watcher) Events() <-chan Event {
	return w.events
}

// Errors implements Watcher.Errors.
func (w *watcher) Errors() <-chan error {
	return w.errors
}

// Close implements Watcher.Close.
func (w *watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	w.closed = true

	if w.running {
		close(w.stopChan)
		w.running = false
	}

	w.debounceMu.Lock()
	for _, timer := range w.debounceTimers {
		timer.Stop()
	}
	w.debounceTimers = nil
	w.debounceMu.Unlock()

	close(w.events)
	close(w.errors)

	if err := w.fsw.Close(); err != nil {
		w.logger.Error("failed to close fsnotify watcher", "error", err)
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	w.logger.Debug("watcher closed")
	return nil
}

// processEvents handles events from fsnotify.
func (w *watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopChan:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}

			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}

			w.handleError(err)
		}
	}
}

// handleEvent converts a single fsnotify event and debounces it.
func (w *watcher) handleEvent(event fsnotify.Event) {
	if !w.config.Filter(event.Name) {
		return
	}

	var op Op
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		op = OpCreate
	case event.Op&fsnotify.Write == fsnotify.Write:
		op = OpWrite
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		op = OpRemove
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		op = OpRename
	case event.Op&fsnotify.Chmod == fsnotify.Chmod:
		op = OpChmod
	default:
		return
	}

	if op == OpCreate && w.config.Recursive {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if addErr := w.fsw.Add(event.Name); addErr != nil {
				w.logger.Warn("failed to watch new directory",
					"path", event.Name,
					"error", addErr)
			}
		}
	}

	w.debounceEvent(Event{
		Path:      event.Name,
		Op:        op,
		Timestamp: time.Now(),
	})
}

// debounceEvent delivers the last event per path once the path has been
// quiet for the debounce interval.
func (w *watcher) debounceEvent(event Event) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimers == nil {
		return
	}

	if timer, exists := w.debounceTimers[event.Path]; exists {
		timer.Stop()
	}

	w.debounceTimers[event.Path] = time.AfterFunc(w.config.DebounceInterval, func() {
		w.mu.RLock()
		if !w.closed {
			select {
			case w.events <- event:
			default:
				w.logger.Warn("event channel full, dropping event", "path", event.Path)
			}
		}
		w.mu.RUnlock()

		w.debounceMu.Lock()
		if w.debounceTimers != nil {
			delete(w.debounceTimers, event.Path)
		}
		w.debounceMu.Unlock()
	})
}

// handleError forwards fsnotify errors until the circuit breaker opens.
func (w *watcher) handleError(err error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return
	}

	w.failureCount++

	w.logger.Error("fsnotify error",
		"error", err,
		"failure_count", w.failureCount)

	out := err
	if w.failureCount >= w.config.CircuitBreakerThreshold {
		out = ErrCircuitBreakerOpen
	}

	select {
	case w.errors <- out:
	default:
		w.logger.Warn("error channel full, dropping error")
	}
}

// addPath adds a directory and, when configured, its subdirectories.
func (w *watcher) addPath(path string) error {
	if err := w.fsw.Add(path); err != nil {
		return fmt.Errorf("failed to add path: %w", err)
	}

	if !w.config.Recursive {
		return nil
	}

	return filepath.Walk(path, func(subPath string, info os.FileInfo, err error) error {
		if err != nil {
			w.logger.Warn("error walking path",
				"path", subPath,
				"error", err)
			return nil
		}

		if !info.IsDir() || subPath == path {
			return nil
		}

		if addErr := w.fsw.Add(subPath); addErr != nil {
			w.logger.Warn("failed to add subdirectory",
				"path", subPath,
				"error", addErr)
		}
		return nil
	})
}

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	return filepath.Join(homeDir, path[2:])
}
