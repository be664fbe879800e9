//go:build !unix

package focus

import "time"

// Sessions persisted on these platforms are recovered through the wall
// clock path after a restart.
func monotonicNow() time.Duration {
	return processMonotonic()
}
