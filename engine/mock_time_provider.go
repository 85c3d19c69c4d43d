package engine

import (
	"sync/atomic"
	"time"
)

// MockTimeProvider is a Clock that only moves when a test moves it
// Safe to advance from the test goroutine while the physics loop reads it
type MockTimeProvider struct {
	origin time.Time
	offset atomic.Int64 // nanoseconds since origin
}

// NewMockTimeProvider creates a mock clock reading startTime
func NewMockTimeProvider(startTime time.Time) *MockTimeProvider {
	return &MockTimeProvider{origin: startTime}
}

// Now implements Clock
func (m *MockTimeProvider) Now() time.Time {
	return m.origin.Add(time.Duration(m.offset.Load()))
}

// SetTime jumps to t; earlier times are allowed and produce negative frame deltas
func (m *MockTimeProvider) SetTime(t time.Time) {
	m.offset.Store(int64(t.Sub(m.origin)))
}

// Advance moves the clock forward by d
func (m *MockTimeProvider) Advance(d time.Duration) {
	m.offset.Add(int64(d))
}

// AdvanceSteps moves the clock by n fixed steps of a rate Hz simulation
func (m *MockTimeProvider) AdvanceSteps(n int, rate float64) {
	if rate <= 0 || n <= 0 {
		return
	}
	m.Advance(time.Duration(float64(n) * float64(time.Second) / rate))
}
