// Package throttle rate-limits periodic work, such as progress logging
// during a long Run, to at most once per configured interval.
package throttle

import "time"

// Throttle reports Ok at most once per d.
type Throttle struct {
	d    time.Duration
	last time.Time
}

// New returns a Throttle that allows its first Ok immediately and every d
// thereafter.
func New(d time.Duration) *Throttle {
	return &Throttle{d: d, last: time.Time{}}
}

// Ok reports whether d has elapsed since the last Ok that returned true.
func (t *Throttle) Ok() bool {
	now := time.Now()
	if now.Before(t.last.Add(t.d)) {
		return false
	}
	t.last = now
	return true
}
