package engine

import "time"

// Clock is the wall-clock source of the physics loop
// Tests substitute MockTimeProvider to drive ticks deterministically
type Clock interface {
	Now() time.Time
}

// TimeProvider is the real monotonic clock
type TimeProvider struct{}

// NewTimeProvider creates a monotonic time provider
func NewTimeProvider() *TimeProvider {
	return &TimeProvider{}
}

// Now returns the current time with monotonic clock reading
func (p *TimeProvider) Now() time.Time {
	return time.Now()
}
