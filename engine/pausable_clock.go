package engine

import (
	"sync"
	"time"
)

// PausableClock measures active simulation time, excluding spans spent paused
type PausableClock struct {
	mu sync.Mutex

	source    Clock
	startTime time.Time
	pausedAt  time.Time
	pausedSum time.Duration
	paused    bool
	started   bool
}

// NewPausableClock creates a stopped clock reading from source
func NewPausableClock(source Clock) *PausableClock {
	return &PausableClock{source: source}
}

// Start (re)arms the clock at zero active time
func (pc *PausableClock) Start() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.startTime = pc.source.Now()
	pc.pausedSum = 0
	pc.paused = false
	pc.started = true
}

// Pause freezes active time
func (pc *PausableClock) Pause() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if !pc.started || pc.paused {
		return
	}
	pc.paused = true
	pc.pausedAt = pc.source.Now()
}

// Resume continues active time, adding the pause span to the excluded total
func (pc *PausableClock) Resume() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if !pc.paused {
		return
	}
	pc.pausedSum += pc.source.Now().Sub(pc.pausedAt)
	pc.paused = false
}

// Active returns elapsed time since Start minus paused time
func (pc *PausableClock) Active() time.Duration {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if !pc.started {
		return 0
	}
	end := pc.source.Now()
	if pc.paused {
		end = pc.pausedAt
	}
	return end.Sub(pc.startTime) - pc.pausedSum
}

// TotalPaused returns cumulative pause duration including an in-progress pause
func (pc *PausableClock) TotalPaused() time.Duration {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	total := pc.pausedSum
	if pc.paused {
		total += pc.source.Now().Sub(pc.pausedAt)
	}
	return total
}
