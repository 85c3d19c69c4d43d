package engine

import (
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/simlab/core"
	"github.com/lixenwraith/simlab/status"
)

// ErrCallbackPanic wraps a panic recovered from a user callback on the physics goroutine
var ErrCallbackPanic = errors.New("physics callback panicked")

// ThreadState is the lifecycle state of the physics goroutine
type ThreadState uint32

const (
	Stopped ThreadState = iota
	Running
	Paused
)

func (s ThreadState) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name for telemetry payloads
func (s ThreadState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name
func (s *ThreadState) UnmarshalText(text []byte) error {
	for _, st := range []ThreadState{Stopped, Running, Paused} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown thread state %q", text)
}

// PerformanceStats is a point-in-time view of manager telemetry
type PerformanceStats struct {
	ActualFPS     float64       `json:"actual_fps"`
	TargetFPS     float64       `json:"target_fps"`
	TotalUpdates  uint64        `json:"total_updates"`
	State         ThreadState   `json:"state"`
	MaxDeltaTime  float64       `json:"max_delta_time"`
	MaxSubSteps   int           `json:"max_sub_steps"`
	FixedTimeStep bool          `json:"fixed_time_step"`
	PendingTasks  int           `json:"pending_tasks"`
	ActiveTime    time.Duration `json:"active_time_ns"`
}

// Option configures a Manager at construction
type Option func(*Manager)

// WithClock replaces the wall clock driving the loop
func WithClock(c Clock) Option {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithStatus publishes loop metrics into reg
func WithStatus(reg *status.Registry) Option {
	return func(m *Manager) {
		if reg != nil {
			m.statusReg = reg
		}
	}
}

// WithCrashHandler is called with ErrCallbackPanic after a callback panic has stopped the manager
func WithCrashHandler(fn func(err error)) Option {
	return func(m *Manager) {
		m.crashHandler = fn
	}
}

// WithBenchmark times every physics update into bm
func WithBenchmark(bm *Benchmark) Option {
	return func(m *Manager) {
		m.bench = bm
	}
}

// WithYield sets the per-tick pause of the loop; 0 disables it
func WithYield(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.yield = d
		}
	}
}

// hooks is the per-tick snapshot of registered callbacks
type hooks struct {
	physics physicsFunc
	pre     callback
	post    callback
}

// Manager runs a physics function on a dedicated goroutine at a rate decoupled from rendering
//
// Locks:
//   - controlMu guards state transitions, configuration and callback registration;
//     never held while user code runs
//   - dataMu is the shared-data lock around every user callback; consumers take it
//     through WithDataLock before reading simulation state
//   - the task queue has its own lock
type Manager struct {
	controlMu  sync.Mutex
	pauseCond  *sync.Cond
	state      atomic.Uint32 // written with controlMu held
	cfg        Config
	hooks      hooks
	lastUpdate time.Time

	dataMu sync.Mutex
	tasks  TaskQueue

	// Physics goroutine only
	accumulator   Accumulator
	windowUpdates int

	actualFPS    status.AtomicFloat
	totalUpdates atomic.Uint64

	clock        Clock
	activeClock  *PausableClock
	yield        time.Duration
	bench        *Benchmark
	crashHandler func(err error)

	errMu sync.Mutex
	err   error

	wg sync.WaitGroup

	// Cached metric pointers
	statusReg       *status.Registry
	statUpdates     *atomic.Int64
	statSubSteps    *atomic.Int64
	statTasks       *atomic.Int64
	statFPS         *status.AtomicFloat
	statAccumulator *status.AtomicFloat
	statStepMs      *status.AtomicFloat
	statStepPeakMs  *status.AtomicFloat
	statRunning     *atomic.Bool
	statPaused      *atomic.Bool
}

// NewManager creates a stopped manager; invalid config fields fall back to defaults
func NewManager(cfg Config, opts ...Option) *Manager {
	m := &Manager{
		cfg:   cfg.withDefaults(),
		clock: NewTimeProvider(),
		yield: DefaultYield,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.statusReg == nil {
		m.statusReg = status.NewRegistry()
	}
	m.pauseCond = sync.NewCond(&m.controlMu)
	m.activeClock = NewPausableClock(m.clock)

	reg := m.statusReg
	m.statUpdates = reg.Ints.Get(status.KeyUpdates)
	m.statSubSteps = reg.Ints.Get(status.KeySubSteps)
	m.statTasks = reg.Ints.Get(status.KeyTasks)
	m.statFPS = reg.Floats.Get(status.KeyFPS)
	m.statAccumulator = reg.Floats.Get(status.KeyAccumulator)
	m.statStepMs = reg.Floats.Get(status.KeyStepMs)
	m.statStepPeakMs = reg.Floats.Get(status.KeyStepPeakMs)
	m.statRunning = reg.Bools.Get(status.KeyRunning)
	m.statPaused = reg.Bools.Get(status.KeyPaused)

	return m
}

// ========== Callback registration (before Start) ==========

// SetStepper registers the physics strategy
// Optional BeforeStepper/AfterStepper implementations become the pre/post callbacks;
// a LockedStepper manages the data lock itself
func (m *Manager) SetStepper(s Stepper) {
	m.controlMu.Lock()
	defer m.controlMu.Unlock()

	m.hooks.physics = physicsFunc{}
	if ls, ok := s.(LockedStepper); ok {
		m.hooks.physics.locked = ls
	} else {
		m.hooks.physics.plain = s
	}
	if b, ok := s.(BeforeStepper); ok {
		m.hooks.pre = callback{plain: b.BeforeStep}
	}
	if a, ok := s.(AfterStepper); ok {
		m.hooks.post = callback{plain: a.AfterStep}
	}
}

// SetPhysicsFunc registers fn, run with the data lock held
func (m *Manager) SetPhysicsFunc(fn func(dt float64)) {
	m.controlMu.Lock()
	defer m.controlMu.Unlock()
	m.hooks.physics = physicsFunc{}
	if fn != nil {
		m.hooks.physics.plain = StepFunc(fn)
	}
}

// SetLockedPhysicsFunc registers fn, which receives the data lock and takes it as needed
func (m *Manager) SetLockedPhysicsFunc(fn func(dt float64, data sync.Locker)) {
	m.controlMu.Lock()
	defer m.controlMu.Unlock()
	m.hooks.physics = physicsFunc{}
	if fn != nil {
		m.hooks.physics.locked = LockedStepFunc(fn)
	}
}

// SetPreCallback registers fn to run under the data lock before each update
func (m *Manager) SetPreCallback(fn func()) {
	m.controlMu.Lock()
	defer m.controlMu.Unlock()
	m.hooks.pre = callback{plain: fn}
}

// SetLockedPreCallback registers fn to run before each update with the data lock passed in
func (m *Manager) SetLockedPreCallback(fn func(data sync.Locker)) {
	m.controlMu.Lock()
	defer m.controlMu.Unlock()
	m.hooks.pre = callback{locked: fn}
}

// SetPostCallback registers fn to run under the data lock after each update
func (m *Manager) SetPostCallback(fn func()) {
	m.controlMu.Lock()
	defer m.controlMu.Unlock()
	m.hooks.post = callback{plain: fn}
}

// SetLockedPostCallback registers fn to run after each update with the data lock passed in
func (m *Manager) SetLockedPostCallback(fn func(data sync.Locker)) {
	m.controlMu.Lock()
	defer m.controlMu.Unlock()
	m.hooks.post = callback{locked: fn}
}

// ========== Shared data access ==========

// DataLock returns the shared-data lock
func (m *Manager) DataLock() sync.Locker {
	return &m.dataMu
}

// WithDataLock runs fn holding the shared-data lock
func (m *Manager) WithDataLock(fn func()) {
	withLock(&m.dataMu, fn)
}

// WithDataLockResult runs fn holding the shared-data lock and returns its result
func WithDataLockResult[T any](m *Manager, fn func() T) T {
	var out T
	withLock(&m.dataMu, func() { out = fn() })
	return out
}

// ========== Lifecycle ==========

// Start launches the physics goroutine
// Returns false without changing state when no physics function is registered or
// the manager is not Stopped
func (m *Manager) Start() bool {
	// Previous goroutine (after a panic or RequestStop) must be gone before reuse
	if m.IsStopped() {
		m.wg.Wait()
	}

	m.controlMu.Lock()
	defer m.controlMu.Unlock()

	if m.State() != Stopped || !m.hooks.physics.set() {
		return false
	}

	m.setErr(nil)
	m.accumulator.Reset()
	m.windowUpdates = 0
	m.totalUpdates.Store(0)
	m.actualFPS.Set(0)
	m.lastUpdate = m.clock.Now()
	m.activeClock.Start()
	m.setState(Running)

	m.wg.Add(1)
	core.Go(m.physicsLoop)

	log.Printf("physics: started rate=%.1fHz fixed=%t maxDelta=%.4fs maxSubSteps=%d",
		m.cfg.TargetRate, m.cfg.UseFixedTimeStep, m.cfg.MaxDeltaTime, m.cfg.MaxSubSteps)
	return true
}

// Stop transitions to Stopped, wakes a paused loop and joins the physics goroutine
// Idempotent; must not be called from a physics callback (use RequestStop)
func (m *Manager) Stop() {
	if !m.RequestStop() {
		// Already stopped by RequestStop or a callback panic; join the exiting goroutine
		m.wg.Wait()
		return
	}
	m.wg.Wait()
	log.Printf("physics: stopped after %d updates", m.TotalUpdates())
}

// RequestStop transitions to Stopped without joining; safe from inside callbacks
// Returns false if already stopped
func (m *Manager) RequestStop() bool {
	m.controlMu.Lock()
	if m.State() == Stopped {
		m.controlMu.Unlock()
		return false
	}
	m.setState(Stopped)
	m.activeClock.Pause()
	m.controlMu.Unlock()

	m.pauseCond.Broadcast()
	return true
}

// Close stops the manager and returns the recorded callback panic, if any
func (m *Manager) Close() error {
	m.Stop()
	return m.Err()
}

// Pause suspends updates; no-op unless Running
func (m *Manager) Pause() {
	m.controlMu.Lock()
	defer m.controlMu.Unlock()
	if m.State() == Running {
		m.setState(Paused)
		m.activeClock.Pause()
	}
}

// Resume continues updates; no-op unless Paused
// Time spent paused is not fed to the accumulator
func (m *Manager) Resume() {
	m.controlMu.Lock()
	if m.State() == Paused {
		m.setState(Running)
		m.lastUpdate = m.clock.Now()
		m.activeClock.Resume()
	}
	m.controlMu.Unlock()
	m.pauseCond.Broadcast()
}

// Err returns the recorded callback panic of the last run
func (m *Manager) Err() error {
	m.errMu.Lock()
	defer m.errMu.Unlock()
	return m.err
}

func (m *Manager) setErr(err error) {
	m.errMu.Lock()
	m.err = err
	m.errMu.Unlock()
}

// setState requires controlMu
func (m *Manager) setState(s ThreadState) {
	m.state.Store(uint32(s))
	m.statRunning.Store(s == Running)
	m.statPaused.Store(s == Paused)
}

// recoverCallbackPanic runs on the physics goroutine before it is marked done,
// so Stop and Close observe the recorded error and the crash handler has returned
func (m *Manager) recoverCallbackPanic(r any) {
	err := fmt.Errorf("%w: %v", ErrCallbackPanic, r)
	m.setErr(err)
	log.Printf("physics: %v\n%s", err, debug.Stack())

	m.RequestStop()

	if m.crashHandler != nil {
		m.crashHandler(err)
	}
}

// ========== Configuration ==========

// SetTargetRate sets updates per second and the fixed step 1/hz
func (m *Manager) SetTargetRate(hz float64) {
	if !(hz > 0) {
		log.Printf("physics: ignoring invalid target rate %v", hz)
		return
	}
	m.controlMu.Lock()
	defer m.controlMu.Unlock()
	m.cfg.TargetRate = hz
}

// SetFixedTimeStep selects fixed (true) or variable (false) step mode
func (m *Manager) SetFixedTimeStep(enabled bool) {
	m.controlMu.Lock()
	defer m.controlMu.Unlock()
	m.cfg.UseFixedTimeStep = enabled
}

// SetMaxDeltaTime sets the per-tick elapsed time clamp in seconds
func (m *Manager) SetMaxDeltaTime(seconds float64) {
	if !(seconds > 0) {
		log.Printf("physics: ignoring invalid max delta time %v", seconds)
		return
	}
	m.controlMu.Lock()
	defer m.controlMu.Unlock()
	m.cfg.MaxDeltaTime = seconds
}

// SetMaxSubSteps caps fixed steps per tick
func (m *Manager) SetMaxSubSteps(n int) {
	if n < 1 {
		log.Printf("physics: ignoring invalid max sub-steps %d", n)
		return
	}
	m.controlMu.Lock()
	defer m.controlMu.Unlock()
	m.cfg.MaxSubSteps = n
}

// Config returns the current configuration
func (m *Manager) Config() Config {
	m.controlMu.Lock()
	defer m.controlMu.Unlock()
	return m.cfg
}

// ========== Queries ==========

// State returns the lifecycle state without locking
func (m *Manager) State() ThreadState {
	return ThreadState(m.state.Load())
}

func (m *Manager) IsRunning() bool { return m.State() == Running }
func (m *Manager) IsPaused() bool  { return m.State() == Paused }
func (m *Manager) IsStopped() bool { return m.State() == Stopped }

// ActualFPS returns physics updates per second (sub-steps included) measured over
// the last full second; a tick running several fixed steps counts each one
func (m *Manager) ActualFPS() float64 {
	return m.actualFPS.Get()
}

// TargetFPS returns the configured update rate
func (m *Manager) TargetFPS() float64 {
	m.controlMu.Lock()
	defer m.controlMu.Unlock()
	return m.cfg.TargetRate
}

// TotalUpdates returns updates executed since Start
func (m *Manager) TotalUpdates() uint64 {
	return m.totalUpdates.Load()
}

// Status returns the metric registry the manager publishes into
func (m *Manager) Status() *status.Registry {
	return m.statusReg
}

// Stats returns a combined telemetry snapshot
func (m *Manager) Stats() PerformanceStats {
	cfg := m.Config()
	return PerformanceStats{
		ActualFPS:     m.ActualFPS(),
		TargetFPS:     cfg.TargetRate,
		TotalUpdates:  m.TotalUpdates(),
		State:         m.State(),
		MaxDeltaTime:  cfg.MaxDeltaTime,
		MaxSubSteps:   cfg.MaxSubSteps,
		FixedTimeStep: cfg.UseFixedTimeStep,
		PendingTasks:  m.tasks.Len(),
		ActiveTime:    m.activeClock.Active(),
	}
}

// ========== Cross-thread requests ==========

// Submit queues task for the physics goroutine
// One task runs per update, before the pre callback, with the data lock held
// The data lock is not reentrant: a task calling WithDataLock or WithDataLockResult
// deadlocks the physics goroutine
func (m *Manager) Submit(task func()) {
	m.tasks.Push(task)
	m.statTasks.Store(int64(m.tasks.Len()))
}

// ExecuteOnce queues fn on the physics goroutine and returns a channel receiving its result
// The channel is buffered; it never receives if the manager stops first
// fn holds the data lock like any Submit task and must not call WithDataLock
// or WithDataLockResult
func ExecuteOnce[T any](m *Manager, fn func() T) <-chan T {
	ch := make(chan T, 1)
	m.Submit(func() { ch <- fn() })
	return ch
}

// WaitForUpdates blocks until n more updates complete or timeout elapses
// Returns whether the count was reached
func (m *Manager) WaitForUpdates(n int, timeout time.Duration) bool {
	target := m.TotalUpdates() + uint64(max(n, 0))
	deadline := time.Now().Add(timeout)

	for m.TotalUpdates() < target {
		if !time.Now().Before(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
	return true
}

// ========== Physics goroutine ==========

func (m *Manager) physicsLoop() {
	defer func() {
		if r := recover(); r != nil {
			m.recoverCallbackPanic(r)
		}
		m.wg.Done()
	}()

	m.controlMu.Lock()
	fpsWindowStart := m.lastUpdate
	m.controlMu.Unlock()

	for {
		m.controlMu.Lock()
		waited := false
		for m.State() == Paused {
			m.pauseCond.Wait()
			waited = true
		}
		if m.State() == Stopped {
			m.controlMu.Unlock()
			return
		}
		cfg := m.cfg
		h := m.hooks
		now := m.clock.Now()
		frameTime := now.Sub(m.lastUpdate).Seconds()
		m.lastUpdate = now
		m.controlMu.Unlock()

		if waited {
			fpsWindowStart = now
			m.windowUpdates = 0
		}

		// Spiral-of-death guard after stalls
		frameTime = max(0, min(frameTime, cfg.MaxDeltaTime))

		if cfg.UseFixedTimeStep {
			steps := m.accumulator.Advance(frameTime, cfg.FixedDeltaTime(), cfg.MaxSubSteps, func(dt float64) {
				m.executeUpdate(h, dt)
			})
			m.statSubSteps.Store(int64(steps))
			m.statAccumulator.Set(m.accumulator.Leftover())
		} else {
			m.executeUpdate(h, frameTime)
		}

		if elapsed := now.Sub(fpsWindowStart).Seconds(); elapsed >= 1 {
			fps := float64(m.windowUpdates) / elapsed
			m.actualFPS.Set(fps)
			m.statFPS.Set(fps)
			m.windowUpdates = 0
			fpsWindowStart = now
		}

		if m.yield > 0 {
			time.Sleep(m.yield)
		}
	}
}

// executeUpdate runs one task, pre, physics and post, each under its own data lock acquisition
func (m *Manager) executeUpdate(h hooks, dt float64) {
	start := m.clock.Now()

	if task := m.tasks.Pop(); task != nil {
		withLock(&m.dataMu, task)
		m.statTasks.Store(int64(m.tasks.Len()))
	}

	if h.pre.set() {
		h.pre.run(&m.dataMu)
	}
	h.physics.run(dt, &m.dataMu)
	if h.post.set() {
		h.post.run(&m.dataMu)
	}

	m.totalUpdates.Add(1)
	m.statUpdates.Add(1)
	m.windowUpdates++

	elapsed := m.clock.Now().Sub(start)
	ms := float64(elapsed) / float64(time.Millisecond)
	m.statStepMs.Set(ms)
	m.statStepPeakMs.Max(ms)
	if m.bench != nil {
		m.bench.Add(elapsed)
	}
}
