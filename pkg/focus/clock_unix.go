//go:build unix && !linux

package focus

import (
	"time"

	"golang.org/x/sys/unix"
)

func monotonicNow() time.Duration {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return processMonotonic()
	}
	return time.Duration(ts.Nano())
}
