package engine

import (
	"errors"
	"fmt"
	"time"
)

// Defaults match a 120 Hz simulation capped at 30 Hz worth of catch-up per tick
const (
	DefaultTargetRate   = 120.0
	DefaultMaxDeltaTime = 1.0 / 30.0
	DefaultMaxSubSteps  = 4
	DefaultYield        = time.Millisecond
)

var (
	ErrInvalidRate     = errors.New("target rate must be > 0")
	ErrInvalidMaxDelta = errors.New("max delta time must be > 0")
	ErrInvalidSubSteps = errors.New("max sub-steps must be >= 1")
)

// Config holds the physics loop timing parameters
// FixedDeltaTime is derived from TargetRate
type Config struct {
	TargetRate       float64 // Hz
	UseFixedTimeStep bool
	MaxDeltaTime     float64 // seconds, per-tick clamp
	MaxSubSteps      int
}

// DefaultConfig returns the standard fixed-step configuration
func DefaultConfig() Config {
	return Config{
		TargetRate:       DefaultTargetRate,
		UseFixedTimeStep: true,
		MaxDeltaTime:     DefaultMaxDeltaTime,
		MaxSubSteps:      DefaultMaxSubSteps,
	}
}

// FixedDeltaTime returns the step size in seconds
func (c Config) FixedDeltaTime() float64 {
	return 1.0 / c.TargetRate
}

// Validate reports the first invalid field
func (c Config) Validate() error {
	if !(c.TargetRate > 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidRate, c.TargetRate)
	}
	if !(c.MaxDeltaTime > 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidMaxDelta, c.MaxDeltaTime)
	}
	if c.MaxSubSteps < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidSubSteps, c.MaxSubSteps)
	}
	return nil
}

// withDefaults replaces invalid fields with defaults
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if !(c.TargetRate > 0) {
		c.TargetRate = d.TargetRate
	}
	if !(c.MaxDeltaTime > 0) {
		c.MaxDeltaTime = d.MaxDeltaTime
	}
	if c.MaxSubSteps < 1 {
		c.MaxSubSteps = d.MaxSubSteps
	}
	return c
}
