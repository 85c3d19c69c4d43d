package audio

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/simlab/config"
)

const (
	// MinCueInterval rate-limits impact sounds
	MinCueInterval = 40 * time.Millisecond

	cueDuration = 60 * time.Millisecond
	baseFreq    = 220.0
	freqPerUnit = 6.0
	maxFreq     = 1200.0
)

// Cue plays short impact sounds mixed into a single speaker stream
// Without a working speaker every method is a silent no-op
type Cue struct {
	sampleRate beep.SampleRate
	volume     float64
	minSpeed   float64

	mixer *beep.Mixer
	lock  sync.Locker // speaker lock once attached

	ready   atomic.Bool
	muted   atomic.Bool
	lastCue atomic.Int64 // unix nanos
	now     func() time.Time
}

// speakerLock guards the mixer against the speaker's playback goroutine
type speakerLock struct{}

func (speakerLock) Lock()   { speaker.Lock() }
func (speakerLock) Unlock() { speaker.Unlock() }

// NewCue creates an unattached cue; call Init to open the speaker
func NewCue(cfg config.Audio) *Cue {
	c := &Cue{
		sampleRate: beep.SampleRate(cfg.SampleRate),
		volume:     cfg.Volume,
		minSpeed:   cfg.MinSpeed,
		mixer:      &beep.Mixer{},
		now:        time.Now,
	}
	c.muted.Store(!cfg.Enabled)
	return c
}

// Init opens the default output device and starts the mixer
// Failure leaves the cue silent; callers treat it as non-fatal
func (c *Cue) Init() error {
	if c.sampleRate <= 0 {
		return fmt.Errorf("audio: invalid sample rate %d", c.sampleRate)
	}
	if err := speaker.Init(c.sampleRate, c.sampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("audio: speaker init: %w", err)
	}
	c.attach(speakerLock{})
	speaker.Play(c.mixer)
	return nil
}

// attach marks the cue live with lock guarding the mixer
func (c *Cue) attach(lock sync.Locker) {
	c.lock = lock
	c.ready.Store(true)
}

// Close stops playback
func (c *Cue) Close() {
	if !c.ready.Swap(false) {
		return
	}
	if _, ok := c.lock.(speakerLock); ok {
		speaker.Clear()
		speaker.Close()
	}
}

// Name implements service.Service
func (c *Cue) Name() string { return "audio" }

// Dependencies implements service.Service
func (c *Cue) Dependencies() []string { return nil }

// Start implements service.Service
func (c *Cue) Start() error { return c.Init() }

// Stop implements service.Service
func (c *Cue) Stop() error {
	c.Close()
	return nil
}

// Optional reports that a missing output device does not abort startup
func (c *Cue) Optional() bool { return true }

// SetMuted toggles output without closing the device
func (c *Cue) SetMuted(muted bool) {
	c.muted.Store(muted)
}

// Muted reports whether cues are suppressed
func (c *Cue) Muted() bool {
	return c.muted.Load()
}

// Impact enqueues a cue pitched by speed; returns false when suppressed
// Safe to call from the physics goroutine
func (c *Cue) Impact(speed float64) bool {
	if !c.ready.Load() || c.muted.Load() || speed < c.minSpeed {
		return false
	}

	now := c.now().UnixNano()
	last := c.lastCue.Load()
	if now-last < int64(MinCueInterval) || !c.lastCue.CompareAndSwap(last, now) {
		return false
	}

	freq := math.Min(baseFreq+speed*freqPerUnit, maxFreq)
	gain := c.volume * speed / (speed + 4*max(c.minSpeed, 1))
	s, err := NewImpactStreamer(c.sampleRate, freq, cueDuration, gain)
	if err != nil {
		return false
	}

	c.lock.Lock()
	c.mixer.Add(s)
	c.lock.Unlock()
	return true
}

// Pending returns the number of cues still playing
func (c *Cue) Pending() int {
	if !c.ready.Load() {
		return 0
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.mixer.Len()
}

// NewImpactStreamer returns a sine of freq lasting d with an exponential decay from gain
func NewImpactStreamer(sr beep.SampleRate, freq float64, d time.Duration, gain float64) (beep.Streamer, error) {
	sine, err := generators.SineTone(sr, freq)
	if err != nil {
		return nil, fmt.Errorf("audio: sine %vHz: %w", freq, err)
	}
	total := sr.N(d)
	return beep.Take(total, decay(sine, total, gain)), nil
}

func decay(s beep.Streamer, total int, gain float64) beep.Streamer {
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		n, ok := s.Stream(samples)
		for i := range samples[:n] {
			env := gain * math.Exp(-5*float64(pos)/float64(total))
			samples[i][0] *= env
			samples[i][1] *= env
			pos++
		}
		return n, ok
	})
}
