package audio

import "time"

// Clock abstracts time for fade frames and the position ticker so tests can
// drive both deterministically with simulated time.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock returns the wall-clock implementation used in production.
func SystemClock() Clock { return systemClock{} }
