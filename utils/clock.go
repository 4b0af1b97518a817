package utils

import "time"

// Clock is the time source used for timestamps and deadlines.
type Clock interface {
	Now() time.Time
	// NewTimer returns a channel that fires once after d and a stop function
	// reporting whether it stopped the timer before it fired.
	NewTimer(d time.Duration) (<-chan time.Time, func() bool)
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

func (RealClock) NewTimer(d time.Duration) (<-chan time.Time, func() bool) {
	t := time.NewTimer(d)
	return t.C, t.Stop
}
