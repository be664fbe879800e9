package focus

import "time"

// Clock supplies the two time sources the engine uses.
type Clock interface {
	// NowMonotonic returns a reading of a clock that only moves forward,
	// unaffected by wall clock changes.
	NowMonotonic() time.Duration

	// NowWall returns the wall clock time. It is only used to migrate
	// sessions persisted with a wall clock start.
	NowWall() time.Time
}

type systemClock struct{}

// SystemClock returns the host clock. On Linux the monotonic reading is
// CLOCK_BOOTTIME, which keeps counting across process restarts and
// suspend, so a persisted end stays meaningful after process death.
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) NowMonotonic() time.Duration {
	return monotonicNow()
}

func (systemClock) NowWall() time.Time {
	return time.Now()
}

// processStart anchors the fallback monotonic clock.
var processStart = time.Now()

// processMonotonic is monotonic within this process only.
func processMonotonic() time.Duration {
	return time.Since(processStart)
}
