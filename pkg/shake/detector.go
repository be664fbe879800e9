// Package shake turns accelerometer samples into flashlight toggles.
package shake

import (
	"math"
	"time"
)

const (
	// StandardGravity is one g in m/s².
	StandardGravity = 9.80665

	// DefaultThreshold is the g-force above which a sample counts as a shake.
	DefaultThreshold = 2.8

	// DefaultDebounce is the quiet period after a shake.
	DefaultDebounce = 900 * time.Millisecond
)

// Sample is one accelerometer reading in m/s².
type Sample struct {
	X, Y, Z float64
	At      time.Time
}

// GForce returns the magnitude of the sample in g.
func (s Sample) GForce() float64 {
	gx, gy, gz := s.X/StandardGravity, s.Y/StandardGravity, s.Z/StandardGravity
	return math.Sqrt(gx*gx + gy*gy + gz*gz)
}

// Detector reports shakes: samples stronger than Threshold that arrive at
// least Debounce after the previous shake.
//
// A Detector is not safe for concurrent use.
type Detector struct {
	Threshold float64
	Debounce  time.Duration

	last time.Time
}

// NewDetector returns a Detector with the default tuning.
func NewDetector() *Detector {
	return &Detector{
		Threshold: DefaultThreshold,
		Debounce:  DefaultDebounce,
	}
}

// Observe feeds one sample and reports whether it is a shake.
func (d *Detector) Observe(s Sample) bool {
	if !d.last.IsZero() && s.At.Sub(d.last) < d.Debounce {
		return false
	}
	if s.GForce() <= d.Threshold {
		return false
	}

	d.last = s.At
	return true
}

// Reset forgets the previous shake.
func (d *Detector) Reset() {
	d.last = time.Time{}
}
