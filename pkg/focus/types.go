// Package focus implements the focus session engine: a single countdown
// that can be started, paused, resumed and stopped, survives process
// restarts through the settings store, and can be observed.
//
// Example usage:
//
//	eng, err := focus.New(ctx, st, focus.Config{}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	if err := eng.Start(ctx, 25*60, "pomodoro"); err != nil {
//	    log.Fatal(err)
//	}
//
//	for snap := range eng.Subscribe(ctx) {
//	    fmt.Printf("%s %ds left\n", snap.State, snap.RemainingSec)
//	}
package focus

import (
	"time"

	"github.com/0xmhha/launcher-core/pkg/metrics"
)

// State is the engine state.
type State int

// Engine states.
const (
	Idle State = iota
	Running
	Paused
)

// States lists every state.
var States = []State{Idle, Running, Paused}

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot is a consistent view of the session.
type Snapshot struct {
	State State `json:"state"`

	// Active is true while a session exists (running or paused).
	Active bool `json:"active"`

	// Running is true while the countdown advances.
	Running bool `json:"running"`

	DurationSec  int    `json:"duration_sec"`
	RemainingSec int    `json:"remaining_sec"`
	Type         string `json:"type,omitempty"`

	// BackgroundSound is the optional sound asset chosen at start.
	BackgroundSound string `json:"background_sound,omitempty"`

	// SessionID identifies one session across pauses and restarts.
	SessionID string `json:"session_id,omitempty"`
}

// Config configures an Engine.
type Config struct {
	// TickInterval is the longest gap between two countdown updates
	// (default: 1s).
	TickInterval time.Duration

	// HeartbeatInterval is the period at which the running session's end is
	// persisted again (default: 30s).
	HeartbeatInterval time.Duration

	// Clock defaults to SystemClock().
	Clock Clock

	// Metrics records transitions and persistence failures. Optional.
	Metrics *metrics.Metrics
}

// StartOption customizes Start.
type StartOption func(*startOptions)

type startOptions struct {
	backgroundSound string
}

// WithBackgroundSound records the sound asset played during the session.
func WithBackgroundSound(name string) StartOption {
	return func(o *startOptions) {
		o.backgroundSound = name
	}
}
