package focus

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/0xmhha/launcher-core/pkg/prefs"
	"github.com/0xmhha/launcher-core/pkg/store"
)

// recovery is the session reconstructed from a persisted record.
type recovery struct {
	state        State
	durationSec  int
	remainingSec int
	endMono      time.Duration
	sessionType  string
	sound        string
	sessionID    string

	// source names the rule that produced the result, for logging.
	source string

	// persistEnd is set when endMono was reconstructed and must be saved.
	persistEnd bool

	// clear is set when leftover focus keys must be removed.
	clear bool
}

// planRecovery decides, from the persisted record alone, which session
// to restore. Rules, in order:
//
//  1. paused with remaining and duration: Paused with exactly that
//     remaining time;
//  2. active with a monotonic end and duration: Running until that end.
//     An end further away than the whole duration means the monotonic
//     clock was reset by a reboot, so rule 3 applies instead;
//  3. active with a wall clock start and duration: Running, with the end
//     rebuilt from the wall clock time elapsed since the start;
//  4. anything else: Idle.
//
// A session that has already ended, or fields that contradict each other,
// yield Idle with the persisted keys cleared.
func planRecovery(r store.Record, nowMono time.Duration, nowWall time.Time) recovery {
	hasAny := false
	for _, k := range prefs.FocusKeys {
		if r.Has(k.Name()) {
			hasAny = true
			break
		}
	}
	none := recovery{state: Idle, source: "none", clear: hasAny}

	active, hasActive := prefs.FocusActive.From(r)
	paused := prefs.FocusPaused.Or(r, false)
	durationSec, hasDuration := prefs.FocusDurationSec.From(r)
	remainingSec, hasRemaining := prefs.FocusRemainingSec.From(r)

	base := recovery{
		durationSec: durationSec,
		sessionType: prefs.FocusType.Or(r, ""),
		sound:       prefs.FocusBgSound.Or(r, ""),
		sessionID:   prefs.FocusSessionID.Or(r, ""),
	}
	if base.sessionID == "" {
		base.sessionID = uuid.NewString()
	}

	if paused && hasRemaining && hasDuration && (!hasActive || active) {
		if durationSec <= 0 || remainingSec <= 0 || remainingSec > durationSec {
			return none
		}
		base.state = Paused
		base.remainingSec = remainingSec
		base.source = "paused"
		return base
	}

	if !active || !hasDuration || durationSec <= 0 {
		return none
	}
	total := time.Duration(durationSec) * time.Second

	if endMs, ok := prefs.FocusEndElapsedMs.From(r); ok {
		end := time.Duration(endMs) * time.Millisecond
		left := end - nowMono
		if left <= 0 {
			none.source = "completed"
			return none
		}
		if left <= total {
			base.state = Running
			base.endMono = end
			base.remainingSec = remainingFor(end, nowMono)
			base.source = "monotonic"
			return base
		}
	}

	if startMs, ok := prefs.FocusStartMs.From(r); ok {
		elapsed := nowWall.Sub(time.UnixMilli(startMs))
		if elapsed < 0 {
			elapsed = 0
		}
		left := total - elapsed
		if left <= 0 {
			none.source = "completed"
			return none
		}
		base.state = Running
		base.endMono = nowMono + left
		base.remainingSec = remainingFor(base.endMono, nowMono)
		base.source = "wall_clock"
		base.persistEnd = true
		return base
	}

	return none
}

// recover restores the persisted session, if any. Failures leave the
// engine Idle.
func (e *Engine) recover(ctx context.Context) {
	r, err := e.store.Data(ctx)
	if err != nil {
		e.logger.Warn("failed to read persisted focus session", "error", err)
		return
	}

	plan := planRecovery(r, e.clock.NowMonotonic(), e.clock.NowWall())

	if plan.clear {
		e.clearPersisted(ctx)
	}
	if plan.state == Idle {
		if plan.clear {
			e.logger.Info("discarded persisted focus session", "reason", plan.source)
		}
		return
	}

	e.mu.Lock()
	e.durationSec = plan.durationSec
	e.remainingSec = plan.remainingSec
	e.endMono = plan.endMono
	e.sessionType = plan.sessionType
	e.sound = plan.sound
	e.sessionID = plan.sessionID
	e.setStateLocked(plan.state)
	e.mu.Unlock()

	if plan.persistEnd {
		end := plan.endMono
		e.persist(ctx, "migrate", func(ed *store.Editor) {
			store.Put(ed, prefs.FocusEndElapsedMs, end.Milliseconds())
		})
	}

	e.startTasks()

	e.logger.Info("focus session recovered",
		"session_id", plan.sessionID,
		"state", plan.state.String(),
		"remaining_sec", plan.remainingSec,
		"source", plan.source)
}
