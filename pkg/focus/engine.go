package focus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/0xmhha/launcher-core/pkg/logger"
	"github.com/0xmhha/launcher-core/pkg/metrics"
	"github.com/0xmhha/launcher-core/pkg/prefs"
	"github.com/0xmhha/launcher-core/pkg/store"
)

// Engine owns the focus session. Use one engine per process.
type Engine struct {
	store   *store.Store
	clock   Clock
	config  Config
	logger  logger.Logger
	metrics *metrics.Metrics

	// opMu serializes the public operations.
	opMu sync.Mutex

	// mu guards everything below.
	mu           sync.Mutex
	state        State
	durationSec  int
	remainingSec int
	endMono      time.Duration
	sessionType  string
	sound        string
	sessionID    string
	closed       bool
	done         chan struct{}

	tick      *task
	heartbeat *task

	subs map[*subscriber]struct{}
}

// task is a cancellable goroutine that can be joined.
type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func startTask(fn func(ctx context.Context)) *task {
	ctx, cancel := context.WithCancel(context.Background())
	t := &task{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(t.done)
		fn(ctx)
	}()
	return t
}

// halt cancels the task and waits for it to return.
func (t *task) halt() {
	if t == nil {
		return
	}
	t.cancel()
	<-t.done
}

type subscriber struct {
	ch chan Snapshot
}

// New creates the engine and recovers any session persisted in s.
//
// Parameters:
//   - ctx: Context for reading the persisted session
//   - s: Settings store holding the session keys
//   - cfg: Engine configuration
//   - log: Logger instance
//
// Returns:
//   - Engine in the recovered state (Idle when nothing was persisted)
//   - ErrInvalidConfig if an interval is negative
func New(ctx context.Context, s *store.Store, cfg Config, log logger.Logger) (*Engine, error) {
	// Validate and set defaults.
	if cfg.TickInterval < 0 || cfg.HeartbeatInterval < 0 {
		return nil, ErrInvalidConfig
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}

	e := &Engine{
		store:   s,
		clock:   cfg.Clock,
		config:  cfg,
		logger:  log.Named("focus"),
		metrics: cfg.Metrics,
		subs:    make(map[*subscriber]struct{}),
		done:    make(chan struct{}),
	}

	// Restore the persisted session and restart its countdown.
	e.recover(ctx)

	snap := e.Snapshot()
	e.logger.Info("focus engine created",
		"state", snap.State.String(),
		"remaining_sec", snap.RemainingSec,
		"tick_interval", cfg.TickInterval,
		"heartbeat_interval", cfg.HeartbeatInterval)

	return e, nil
}

// Start begins a new session of durationSec seconds, replacing any
// existing session.
func (e *Engine) Start(ctx context.Context, durationSec int, sessionType string, opts ...StartOption) error {
	if durationSec <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidDuration, durationSec)
	}

	var o startOptions
	for _, opt := range opts {
		opt(&o)
	}

	e.opMu.Lock()
	defer e.opMu.Unlock()

	if e.isClosed() {
		return ErrEngineClosed
	}
	e.haltTasks()

	nowMono := e.clock.NowMonotonic()
	nowWall := e.clock.NowWall()

	e.mu.Lock()
	e.durationSec = durationSec
	e.remainingSec = durationSec
	e.endMono = nowMono + time.Duration(durationSec)*time.Second
	e.sessionType = sessionType
	e.sound = o.backgroundSound
	e.sessionID = uuid.NewString()
	e.setStateLocked(Running)
	snap := e.snapshotLocked()
	end := e.endMono
	e.mu.Unlock()

	e.persist(ctx, "start", func(ed *store.Editor) {
		store.Put(ed, prefs.FocusActive, true)
		store.Put(ed, prefs.FocusStartMs, nowWall.UnixMilli())
		store.Put(ed, prefs.FocusDurationSec, durationSec)
		store.Put(ed, prefs.FocusType, sessionType)
		if o.backgroundSound != "" {
			store.Put(ed, prefs.FocusBgSound, o.backgroundSound)
		} else {
			ed.Remove(prefs.FocusBgSound)
		}
		store.Put(ed, prefs.FocusSessionID, snap.SessionID)
		store.Put(ed, prefs.FocusEndElapsedMs, end.Milliseconds())
		ed.RemoveAll(prefs.FocusPaused, prefs.FocusRemainingSec)
	})

	e.startTasks()

	e.logger.Info("focus session started",
		"session_id", snap.SessionID,
		"duration_sec", durationSec,
		"type", sessionType)

	return nil
}

// Pause freezes the countdown. It is a no-op unless a session is running.
func (e *Engine) Pause(ctx context.Context) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	if e.isClosed() || e.State() != Running {
		return
	}

	// The tick must be stopped before remaining is read.
	e.haltTasks()

	e.mu.Lock()
	if e.state != Running {
		// Completed while the tick was being halted.
		e.mu.Unlock()
		return
	}
	rem := e.remainingSec
	if rem <= 0 {
		e.clearLocked()
		e.mu.Unlock()
		e.clearPersisted(ctx)
		return
	}
	e.endMono = 0
	e.setStateLocked(Paused)
	id := e.sessionID
	e.mu.Unlock()

	e.persist(ctx, "pause", func(ed *store.Editor) {
		store.Put(ed, prefs.FocusPaused, true)
		store.Put(ed, prefs.FocusRemainingSec, rem)
		ed.Remove(prefs.FocusEndElapsedMs)
	})

	e.logger.Info("focus session paused", "session_id", id, "remaining_sec", rem)
}

// Resume continues a paused session. It is a no-op unless a session is
// paused.
func (e *Engine) Resume(ctx context.Context) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	if e.isClosed() || e.State() != Paused {
		return
	}

	e.mu.Lock()
	rem := e.remainingSec
	e.mu.Unlock()

	if rem <= 0 {
		rem = e.persistedRemaining(ctx)
	}

	if rem <= 0 {
		e.mu.Lock()
		e.clearLocked()
		e.mu.Unlock()
		e.clearPersisted(ctx)
		e.logger.Info("focus session had no time left on resume")
		return
	}

	e.mu.Lock()
	e.remainingSec = rem
	e.endMono = e.clock.NowMonotonic() + time.Duration(rem)*time.Second
	e.setStateLocked(Running)
	end := e.endMono
	id := e.sessionID
	e.mu.Unlock()

	e.persist(ctx, "resume", func(ed *store.Editor) {
		store.Put(ed, prefs.FocusActive, true)
		store.Put(ed, prefs.FocusEndElapsedMs, end.Milliseconds())
		ed.RemoveAll(prefs.FocusPaused, prefs.FocusRemainingSec)
	})

	e.startTasks()

	e.logger.Info("focus session resumed", "session_id", id, "remaining_sec", rem)
}

// Stop ends the session and clears its persisted state.
func (e *Engine) Stop(ctx context.Context) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	if e.isClosed() {
		return
	}
	e.haltTasks()

	e.mu.Lock()
	wasActive := e.state != Idle
	id := e.sessionID
	e.clearLocked()
	e.mu.Unlock()

	e.clearPersisted(ctx)

	if wasActive {
		e.logger.Info("focus session stopped", "session_id", id)
	}
}

// Close halts the tick and heartbeat and closes every subscription. The
// persisted session is left in place so a new engine recovers it.
func (e *Engine) Close() error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.haltTasks()

	e.mu.Lock()
	for sub := range e.subs {
		close(sub.ch)
	}
	e.subs = nil
	close(e.done)
	e.mu.Unlock()

	e.logger.Debug("focus engine closed")
	return nil
}

// Snapshot returns the current session.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// IsActive reports whether a session exists.
func (e *Engine) IsActive() bool { return e.Snapshot().Active }

// IsRunning reports whether the countdown is advancing.
func (e *Engine) IsRunning() bool { return e.Snapshot().Running }

// DurationSec returns the configured session length.
func (e *Engine) DurationSec() int { return e.Snapshot().DurationSec }

// RemainingSec returns the seconds left.
func (e *Engine) RemainingSec() int { return e.Snapshot().RemainingSec }

// Subscribe streams snapshots: first the current one, then every change.
// A slow receiver only sees the latest snapshot. The channel is closed when
// ctx is done or the engine is closed.
func (e *Engine) Subscribe(ctx context.Context) <-chan Snapshot {
	sub := &subscriber{ch: make(chan Snapshot, 1)}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		close(sub.ch)
		return sub.ch
	}
	e.subs[sub] = struct{}{}
	sub.ch <- e.snapshotLocked()
	e.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-e.done:
			return
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		if _, ok := e.subs[sub]; ok {
			delete(e.subs, sub)
			close(sub.ch)
		}
	}()

	return sub.ch
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		State:           e.state,
		Active:          e.state != Idle,
		Running:         e.state == Running,
		DurationSec:     e.durationSec,
		RemainingSec:    e.remainingSec,
		Type:            e.sessionType,
		BackgroundSound: e.sound,
		SessionID:       e.sessionID,
	}
}

// setStateLocked records a transition and notifies subscribers.
func (e *Engine) setStateLocked(s State) {
	if e.state != s {
		e.metrics.FocusTransition(s.String(), stateNames())
	}
	e.state = s
	e.publishLocked()
}

// clearLocked resets the in-memory session to Idle.
func (e *Engine) clearLocked() {
	e.durationSec = 0
	e.remainingSec = 0
	e.endMono = 0
	e.sessionType = ""
	e.sound = ""
	e.sessionID = ""
	e.setStateLocked(Idle)
}

func (e *Engine) publishLocked() {
	snap := e.snapshotLocked()
	for sub := range e.subs {
		offerSnapshot(sub.ch, snap)
	}
}

// offerSnapshot delivers snap, replacing an unconsumed snapshot.
func offerSnapshot(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}

func stateNames() []string {
	names := make([]string, len(States))
	for i, s := range States {
		names[i] = s.String()
	}
	return names
}

// startTasks launches the tick and heartbeat for a running session.
func (e *Engine) startTasks() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Running || e.closed {
		return
	}
	e.tick = startTask(e.runTick)
	e.heartbeat = startTask(e.runHeartbeat)
}

// haltTasks cancels and joins the tick and heartbeat. It must be called
// without holding mu.
func (e *Engine) haltTasks() {
	e.mu.Lock()
	tick, hb := e.tick, e.heartbeat
	e.tick, e.heartbeat = nil, nil
	e.mu.Unlock()

	tick.halt()
	hb.halt()
}

// remainingFor returns the whole seconds left until end, rounded up.
func remainingFor(end, now time.Duration) int {
	left := end - now
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

// runTick updates the remaining time on every whole second of the
// countdown and completes the session when it reaches zero.
func (e *Engine) runTick(ctx context.Context) {
	interval := e.config.TickInterval
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		e.mu.Lock()
		if e.state != Running {
			e.mu.Unlock()
			return
		}

		now := e.clock.NowMonotonic()
		left := e.endMono - now
		rem := remainingFor(e.endMono, now)
		if rem != e.remainingSec {
			e.remainingSec = rem
			e.publishLocked()
		}

		if rem == 0 {
			id := e.sessionID
			hb := e.heartbeat
			e.heartbeat = nil
			e.clearLocked()
			e.mu.Unlock()

			hb.halt()
			e.clearPersisted(context.Background())
			e.logger.Info("focus session completed", "session_id", id)
			return
		}
		e.mu.Unlock()

		delay := left % interval
		if delay <= 0 {
			delay = interval
		}
		timer.Reset(delay)
	}
}

// runHeartbeat re-persists the running session's end periodically.
func (e *Engine) runHeartbeat(ctx context.Context) {
	ticker := time.NewTicker(e.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		e.mu.Lock()
		if e.state != Running {
			e.mu.Unlock()
			return
		}
		end := e.endMono
		e.mu.Unlock()

		e.persist(ctx, "heartbeat", func(ed *store.Editor) {
			store.Put(ed, prefs.FocusEndElapsedMs, end.Milliseconds())
		})
	}
}
