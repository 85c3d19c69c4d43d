package engine

import (
	"log"
	"math"
	"sync"
	"time"
)

// BenchmarkReport summarizes recorded runs
// Durations cover every run; FPS figures come from the interval between consecutive runs
type BenchmarkReport struct {
	Name   string
	Runs   int
	Avg    time.Duration
	Min    time.Duration
	Max    time.Duration
	Total  time.Duration
	AvgFPS float64
	MinFPS float64
	MaxFPS float64
}

// Benchmark times repeated calls and the rate at which they occur
type Benchmark struct {
	mu    sync.Mutex
	name  string
	clock Clock

	runs  int
	total time.Duration
	min   time.Duration
	max   time.Duration

	last   time.Time
	fpsSum float64
	fpsN   int
	fpsMin float64
	fpsMax float64
}

// NewBenchmark creates a named benchmark; nil clock uses the real clock
func NewBenchmark(name string, clock Clock) *Benchmark {
	if clock == nil {
		clock = NewTimeProvider()
	}
	return &Benchmark{name: name, clock: clock}
}

// Scope starts timing and returns the func that stops it
//
//	defer bm.Scope()()
func (b *Benchmark) Scope() func() {
	start := b.clock.Now()
	return func() {
		b.Add(b.clock.Now().Sub(start))
	}
}

// Measure times a single call of fn
func (b *Benchmark) Measure(fn func()) {
	stop := b.Scope()
	defer stop()
	fn()
}

// Add records one run of duration d
func (b *Benchmark) Add(d time.Duration) {
	now := b.clock.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.runs == 0 || d < b.min {
		b.min = d
	}
	if d > b.max {
		b.max = d
	}
	b.runs++
	b.total += d

	if !b.last.IsZero() {
		if gap := now.Sub(b.last); gap > 0 {
			fps := float64(time.Second) / float64(gap)
			if b.fpsN == 0 {
				b.fpsMin, b.fpsMax = fps, fps
			} else {
				b.fpsMin = math.Min(b.fpsMin, fps)
				b.fpsMax = math.Max(b.fpsMax, fps)
			}
			b.fpsSum += fps
			b.fpsN++
		}
	}
	b.last = now
}

// Report returns the current summary
func (b *Benchmark) Report() BenchmarkReport {
	b.mu.Lock()
	defer b.mu.Unlock()

	r := BenchmarkReport{
		Name:  b.name,
		Runs:  b.runs,
		Min:   b.min,
		Max:   b.max,
		Total: b.total,
	}
	if b.runs > 0 {
		r.Avg = b.total / time.Duration(b.runs)
	}
	if b.fpsN > 0 {
		r.AvgFPS = b.fpsSum / float64(b.fpsN)
		r.MinFPS = b.fpsMin
		r.MaxFPS = b.fpsMax
	}
	return r
}

// Log writes the report through the standard logger
func (b *Benchmark) Log() {
	r := b.Report()
	log.Printf("benchmark %q: runs=%d avg=%v min=%v max=%v total=%v fps(avg=%.2f min=%.2f max=%.2f)",
		r.Name, r.Runs, r.Avg, r.Min, r.Max, r.Total, r.AvgFPS, r.MinFPS, r.MaxFPS)
}
