package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/0xmhha/launcher-core/pkg/logger"
	"github.com/0xmhha/launcher-core/pkg/metrics"
	"github.com/0xmhha/launcher-core/pkg/watcher"
)

// Store is the persistent settings record.
type Store struct {
	backend backend
	logger  logger.Logger
	metrics *metrics.Metrics

	// editMu serializes edits and reloads made through this handle.
	editMu sync.Mutex

	mu      sync.Mutex
	current Record
	subs    map[*subscriber]struct{}
	closed  bool
	done    chan struct{}

	watcher watcher.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type subscriber struct {
	ch chan Record
}

// Open opens the store described by cfg.
//
// The settings file and its directory are created on the first write.
// Unless DisableWatch is set, the directory is watched so that writes made
// by other handles are delivered to this handle's observers.
//
// Parameters:
//   - cfg: Store configuration (an empty Path selects an in-memory record)
//   - log: Logger instance
//
// Returns:
//   - Store loaded with the current record
//   - Error if the file cannot be read or watched
func Open(cfg Config, log logger.Logger) (*Store, error) {
	// Set defaults.
	if cfg.LockTimeout == 0 {
		cfg.LockTimeout = 5 * time.Second
	}
	if cfg.DebounceInterval == 0 {
		cfg.DebounceInterval = 50 * time.Millisecond
	}

	log = log.Named("store")

	// Select backend.
	var b backend
	if cfg.Path == "" {
		b = newMemoryBackend()
	} else {
		b = newBoltBackend(watcher.ExpandHome(cfg.Path), cfg.LockTimeout)
	}

	s, err := newStore(b, cfg.Metrics, log)
	if err != nil {
		return nil, err
	}

	// Watch for writes made by other handles.
	if b.path() != "" && !cfg.DisableWatch {
		if err := s.startWatch(cfg.DebounceInterval); err != nil {
			if closeErr := s.Close(); closeErr != nil {
				log.Error("failed to close store after watch error", "error", closeErr)
			}
			return nil, err
		}
	}

	log.Info("store opened",
		"path", b.path(),
		"keys", s.current.Len(),
		"watch", b.path() != "" && !cfg.DisableWatch)

	return s, nil
}

// NewMemory returns a store that keeps its record in memory.
func NewMemory(log logger.Logger) *Store {
	s, _ := newStore(newMemoryBackend(), nil, log.Named("store"))
	return s
}

func newStore(b backend, m *metrics.Metrics, log logger.Logger) (*Store, error) {
	raw, err := b.read()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	return &Store{
		backend: b,
		logger:  log,
		metrics: m,
		current: decodeRecord(raw),
		subs:    make(map[*subscriber]struct{}),
		done:    make(chan struct{}),
		cancel:  func() {},
	}, nil
}

// Path returns the settings file path, or "" for an in-memory store.
func (s *Store) Path() string {
	return s.backend.path()
}

// Data reads the whole record from the backend.
func (s *Store) Data(ctx context.Context) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if s.isClosed() {
		return Record{}, ErrClosed
	}

	raw, err := s.backend.read()
	if err != nil {
		return Record{}, fmt.Errorf("failed to read settings: %w", err)
	}

	return decodeRecord(raw), nil
}

// Edit applies fn atomically. fn sees the latest record; the staged puts and
// removes are written in one durable transaction. If fn or the write fails
// nothing is applied and the error is returned.
func (s *Store) Edit(ctx context.Context, fn func(*Editor) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.editMu.Lock()
	defer s.editMu.Unlock()

	if s.isClosed() {
		return ErrClosed
	}

	var next Record
	err := s.backend.update(func(tx txn) error {
		raw, err := tx.all()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrWriteFailed, err)
		}

		e := newEditor(decodeRecord(raw))
		if err := fn(e); err != nil {
			return err
		}
		if e.err != nil {
			return e.err
		}

		for name := range e.removes {
			if err := tx.del(name); err != nil {
				return fmt.Errorf("%w: %v", ErrWriteFailed, err)
			}
		}
		for name, v := range e.puts {
			data, err := encodeValue(v)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrWriteFailed, err)
			}
			if err := tx.put(name, data); err != nil {
				return fmt.Errorf("%w: %v", ErrWriteFailed, err)
			}
		}

		next = e.Record()
		return nil
	})

	s.metrics.StoreEdit(err)
	if err != nil {
		s.logger.Warn("store edit failed", "error", err)
		return err
	}

	s.publish(next)
	return nil
}

// Subscribe streams whole-record snapshots: first the current record, then
// every committed change. A slow receiver only sees the latest record. The
// channel is closed when ctx is done or the store is closed.
func (s *Store) Subscribe(ctx context.Context) <-chan Record {
	sub := &subscriber{ch: make(chan Record, 1)}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(sub.ch)
		return sub.ch
	}
	s.subs[sub] = struct{}{}
	sub.ch <- s.current
	s.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-s.done:
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[sub]; ok {
			delete(s.subs, sub)
			close(sub.ch)
		}
	}()

	return sub.ch
}

// Close stops watching for external changes and closes every subscription.
// Close is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for sub := range s.subs {
		close(sub.ch)
	}
	s.subs = nil
	close(s.done)
	s.mu.Unlock()

	s.cancel()

	var errs []error
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.wg.Wait()

	if err := s.backend.close(); err != nil {
		errs = append(errs, err)
	}

	s.logger.Debug("store closed")
	return errors.Join(errs...)
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// publish makes next the current record and delivers it to every
// subscriber when it differs from the previous one.
func (s *Store) publish(next Record) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	changed := diffKeys(s.current, next)
	if len(changed) == 0 {
		return nil
	}

	s.current = next
	for sub := range s.subs {
		offer(sub.ch, next)
	}
	return changed
}

// startWatch watches the settings directory for writes made by other
// handles.
func (s *Store) startWatch(debounce time.Duration) error {
	file := s.backend.path()
	dir := filepath.Dir(file)
	base := filepath.Base(file)

	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	w, err := watcher.New(watcher.Config{
		DebounceInterval: debounce,
		Filter: func(path string) bool {
			return filepath.Base(path) == base
		},
	}, s.logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx, []string{dir}); err != nil {
		cancel()
		if closeErr := w.Close(); closeErr != nil {
			s.logger.Error("failed to close watcher", "error", closeErr)
		}
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	s.watcher = w
	s.cancel = cancel

	s.wg.Add(1)
	go s.watchLoop(ctx, w)

	return nil
}

func (s *Store) watchLoop(ctx context.Context, w watcher.Watcher) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events():
			if !ok {
				return
			}
			s.reload(ev)

		case err, ok := <-w.Errors():
			if !ok {
				return
			}
			s.logger.Warn("settings watch error", "error", err)
		}
	}
}

// reload re-reads the file after a change event and notifies observers of
// the keys that changed. Writes made through this handle have already been
// published and produce no second notification.
func (s *Store) reload(ev watcher.Event) {
	s.editMu.Lock()
	defer s.editMu.Unlock()

	raw, err := s.backend.read()
	if err != nil {
		s.logger.Warn("failed to reload settings",
			"op", ev.Op.String(),
			"error", err)
		return
	}

	if changed := s.publish(decodeRecord(raw)); len(changed) > 0 {
		s.metrics.StoreExternalChange()
		s.logger.Debug("settings changed externally", "keys", changed)
	}
}
