// Package trajectory generates time-parameterized straight-line motion
// between two Cartesian points.
package trajectory

import (
	"math"

	"github.com/golang/geo/r3"
)

const (
	// MinDuration is the smallest duration a leg can be given
	MinDuration = 1e-6

	// MinSegmentDuration and MaxSegmentDuration bound speed-derived legs
	MinSegmentDuration = 0.35
	MaxSegmentDuration = 8.0

	minSpeed = 1e-3
)

// Linear interpolates from one point to another over a fixed duration.
// The zero value is a finished trajectory at the origin.
type Linear struct {
	from     r3.Vector
	to       r3.Vector
	duration float64
	elapsed  float64
	progress float64
	active   bool
}

// Reset binds the trajectory to a new leg and rewinds it
func (l *Linear) Reset(from, to r3.Vector, duration float64) {
	l.from = from
	l.to = to
	if !(duration >= MinDuration) {
		duration = MinDuration
	}
	l.duration = duration
	l.elapsed = 0
	l.progress = 0
	l.active = true
}

// Advance moves the trajectory forward by dt seconds.
// Finished trajectories and non-positive or NaN steps are ignored.
func (l *Linear) Advance(dt float64) {
	if l.Finished() || !(dt > 0) {
		return
	}
	l.elapsed += dt
	l.progress = clamp(l.elapsed/l.duration, 0, 1)
	if l.progress >= 1 {
		l.active = false
	}
}

// Position returns the interpolated point for the current progress
func (l *Linear) Position() r3.Vector {
	return l.from.Add(l.to.Sub(l.from).Mul(l.progress))
}

// Finished reports whether the leg has reached its end point
func (l *Linear) Finished() bool {
	return !l.active
}

// Progress returns the normalized leg progress in [0, 1]
func (l *Linear) Progress() float64 {
	return l.progress
}

// Elapsed returns the time accumulated since the last reset
func (l *Linear) Elapsed() float64 {
	return l.elapsed
}

// Duration returns the leg duration
func (l *Linear) Duration() float64 {
	return l.duration
}

// From returns the leg start point
func (l *Linear) From() r3.Vector {
	return l.from
}

// To returns the leg end point
func (l *Linear) To() r3.Vector {
	return l.to
}

// SegmentDuration derives a leg duration from a constant end-effector
// speed, bounded to [MinSegmentDuration, MaxSegmentDuration].
func SegmentDuration(from, to r3.Vector, speed float64) float64 {
	dist := to.Sub(from).Norm()
	if !(speed >= minSpeed) {
		speed = minSpeed
	}
	d := dist / speed
	if math.IsNaN(d) {
		return MinSegmentDuration
	}
	return clamp(d, MinSegmentDuration, MaxSegmentDuration)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
