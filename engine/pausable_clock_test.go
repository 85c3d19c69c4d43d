package engine

import (
	"testing"
	"time"
)

func TestPausableClock(t *testing.T) {
	src := NewMockTimeProvider(time.Unix(0, 0))
	pc := NewPausableClock(src)

	if pc.Active() != 0 {
		t.Error("unstarted clock reports active time")
	}

	pc.Start()
	src.Advance(3 * time.Second)
	pc.Pause()
	src.Advance(10 * time.Second)

	if got := pc.Active(); got != 3*time.Second {
		t.Errorf("Active while paused = %v, want 3s", got)
	}
	if got := pc.TotalPaused(); got != 10*time.Second {
		t.Errorf("TotalPaused = %v, want 10s", got)
	}

	pc.Resume()
	src.Advance(2 * time.Second)
	if got := pc.Active(); got != 5*time.Second {
		t.Errorf("Active = %v, want 5s", got)
	}

	// Restart zeroes active time
	pc.Start()
	if got := pc.Active(); got != 0 {
		t.Errorf("Active after restart = %v", got)
	}
}
