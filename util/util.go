// Package util holds small helpers shared by the solvers and the driver.
package util

import "time"

// SkipThrottler lets an event through at most once every d, and skips the rest.
// It is not safe for concurrent use.
type SkipThrottler struct {
	d    time.Duration
	last time.Time
}

func NewSkipThrottler(d time.Duration) *SkipThrottler {
	tt := &SkipThrottler{d: d, last: time.Date(0, 0, 0, 0, 0, 0, 0, time.UTC)}
	return tt
}

// Ok reports whether the event should go through.
func (tt *SkipThrottler) Ok() bool {
	now := time.Now()
	if now.Before(tt.last.Add(tt.d)) {
		return false
	}

	tt.last = now
	return true
}
