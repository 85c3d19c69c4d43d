package status

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestMetricMapGetCachesPointer(t *testing.T) {
	m := NewMetricMap[atomic.Int64]()
	a := m.Get("x")
	b := m.Get("x")
	if a != b {
		t.Fatal("Get returned different pointers for same key")
	}
	a.Add(3)
	if b.Load() != 3 {
		t.Errorf("value = %d, want 3", b.Load())
	}
	if !m.Has("x") || m.Has("y") {
		t.Error("Has reported wrong membership")
	}
}

func TestMetricMapConcurrentGet(t *testing.T) {
	m := NewMetricMap[atomic.Int64]()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Get("shared").Add(1)
			}
		}()
	}
	wg.Wait()

	if got := m.Get("shared").Load(); got != 1600 {
		t.Errorf("shared = %d, want 1600", got)
	}
	if m.Count() != 1 {
		t.Errorf("Count = %d, want 1", m.Count())
	}
}

func TestRangeSorted(t *testing.T) {
	m := NewMetricMap[atomic.Bool]()
	for _, k := range []string{"c", "a", "b"} {
		m.Get(k)
	}
	var keys []string
	m.Range(func(k string, _ *atomic.Bool) { keys = append(keys, k) })
	if len(keys) != 3 || keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
		t.Errorf("Range order = %v, want [a b c]", keys)
	}
}

func TestAtomicFloat(t *testing.T) {
	var f AtomicFloat
	if f.Get() != 0 {
		t.Errorf("zero value = %v, want 0", f.Get())
	}
	f.Set(1.5)
	if got := f.Add(0.25); got != 1.75 {
		t.Errorf("Add = %v, want 1.75", got)
	}
	if got := f.Max(1.0); got != 1.75 {
		t.Errorf("Max(lower) = %v, want 1.75", got)
	}
	if got := f.Max(4); got != 4 || f.Get() != 4 {
		t.Errorf("Max(higher) = %v, stored %v, want 4", got, f.Get())
	}
}

func TestRegistrySnapshot(t *testing.T) {
	r := NewRegistry()
	r.Ints.Get(KeyUpdates).Store(42)
	r.Floats.Get(KeyFPS).Set(119.5)
	r.Bools.Get(KeyRunning).Store(true)

	s := r.Snapshot()
	if s.Ints[KeyUpdates] != 42 || s.Floats[KeyFPS] != 119.5 || !s.Bools[KeyRunning] {
		t.Errorf("snapshot = %+v", s)
	}
	if r.TotalCount() != 3 {
		t.Errorf("TotalCount = %d, want 3", r.TotalCount())
	}
}
