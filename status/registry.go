package status

import "sync/atomic"

// Metric names published by the physics manager
const (
	KeyUpdates     = "physics.updates"
	KeySubSteps    = "physics.substeps"
	KeyFPS         = "physics.fps"
	KeyAccumulator = "physics.accumulator"
	KeyStepMs      = "physics.step_ms"
	KeyStepPeakMs  = "physics.step_peak_ms"
	KeyTasks       = "physics.tasks"
	KeyRunning     = "physics.running"
	KeyPaused      = "physics.paused"
)

// Registry groups metric maps by value type
// Writers cache metric pointers once and update atomics without locking
type Registry struct {
	Bools  *MetricMap[atomic.Bool]
	Ints   *MetricMap[atomic.Int64]
	Floats *MetricMap[AtomicFloat]
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{
		Bools:  NewMetricMap[atomic.Bool](),
		Ints:   NewMetricMap[atomic.Int64](),
		Floats: NewMetricMap[AtomicFloat](),
	}
}

// TotalCount returns the number of metrics across all maps
func (r *Registry) TotalCount() int {
	return r.Bools.Count() + r.Ints.Count() + r.Floats.Count()
}

// Snapshot is a point-in-time copy of every metric
type Snapshot struct {
	Bools  map[string]bool    `json:"bools,omitempty"`
	Ints   map[string]int64   `json:"ints,omitempty"`
	Floats map[string]float64 `json:"floats,omitempty"`
}

// Snapshot copies current values; individual reads are atomic, the set is not
func (r *Registry) Snapshot() Snapshot {
	s := Snapshot{
		Bools:  make(map[string]bool, r.Bools.Count()),
		Ints:   make(map[string]int64, r.Ints.Count()),
		Floats: make(map[string]float64, r.Floats.Count()),
	}
	r.Bools.Range(func(k string, v *atomic.Bool) { s.Bools[k] = v.Load() })
	r.Ints.Range(func(k string, v *atomic.Int64) { s.Ints[k] = v.Load() })
	r.Floats.Range(func(k string, v *AtomicFloat) { s.Floats[k] = v.Get() })
	return s
}
