package engine

// Accumulator carries leftover simulated time between ticks for fixed-step updates
// Owned by a single goroutine
type Accumulator struct {
	leftover float64
}

// Advance adds frameTime and runs step(fixedDelta) while a full step is banked and
// fewer than maxSubSteps have run; returns the number of steps run
// Leftover is clamped to one fixedDelta, not reset, to keep phase for interpolation
func (a *Accumulator) Advance(frameTime, fixedDelta float64, maxSubSteps int, step func(dt float64)) int {
	if fixedDelta <= 0 {
		return 0
	}
	a.leftover += frameTime

	subSteps := 0
	for a.leftover >= fixedDelta && subSteps < maxSubSteps {
		step(fixedDelta)
		a.leftover -= fixedDelta
		subSteps++
	}

	if a.leftover > fixedDelta {
		a.leftover = fixedDelta
	}
	return subSteps
}

// Leftover returns banked time in seconds
func (a *Accumulator) Leftover() float64 {
	return a.leftover
}

// Alpha returns the leftover as a fraction of fixedDelta for render interpolation
func (a *Accumulator) Alpha(fixedDelta float64) float64 {
	if fixedDelta <= 0 {
		return 0
	}
	return a.leftover / fixedDelta
}

// Reset drops banked time
func (a *Accumulator) Reset() {
	a.leftover = 0
}
