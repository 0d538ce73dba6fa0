package latency

import "time"

// Clock is the reference epoch of a measurement run. Every timestamp in a run
// is a duration since this epoch, read from the monotonic clock.
type Clock struct {
	start time.Time
}

// NewClock captures the epoch.
func NewClock() Clock {
	return Clock{start: time.Now()}
}

// Since returns the time elapsed since the epoch
func (c Clock) Since() time.Duration {
	return time.Since(c.start)
}

// Start returns the wall-clock time at which the epoch was captured
func (c Clock) Start() time.Time {
	return c.start
}
