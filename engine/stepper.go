package engine

import "sync"

// Stepper advances simulation state by dt seconds
// The manager holds the shared-data lock for the duration of Step
type Stepper interface {
	Step(dt float64)
}

// BeforeStepper runs under the data lock before each Step
type BeforeStepper interface {
	BeforeStep()
}

// AfterStepper runs under the data lock after each Step
type AfterStepper interface {
	AfterStep()
}

// LockedStepper receives the shared-data lock instead of running under it
// Use when only part of the step touches shared state
type LockedStepper interface {
	StepLocked(dt float64, data sync.Locker)
}

// StepFunc adapts a function to Stepper
type StepFunc func(dt float64)

// Step implements Stepper
func (f StepFunc) Step(dt float64) { f(dt) }

// LockedStepFunc adapts a function to LockedStepper
type LockedStepFunc func(dt float64, data sync.Locker)

// StepLocked implements LockedStepper
func (f LockedStepFunc) StepLocked(dt float64, data sync.Locker) { f(dt, data) }

// callback is a resolved pre/post hook; locked hooks manage the data lock themselves
type callback struct {
	plain  func()
	locked func(data sync.Locker)
}

func (c callback) set() bool {
	return c.plain != nil || c.locked != nil
}

func (c callback) run(data sync.Locker) {
	switch {
	case c.locked != nil:
		c.locked(data)
	case c.plain != nil:
		withLock(data, c.plain)
	}
}

// physicsFunc is the resolved step strategy
type physicsFunc struct {
	plain  Stepper
	locked LockedStepper
}

func (p physicsFunc) set() bool {
	return p.plain != nil || p.locked != nil
}

func (p physicsFunc) run(dt float64, data sync.Locker) {
	switch {
	case p.locked != nil:
		p.locked.StepLocked(dt, data)
	case p.plain != nil:
		withLock(data, func() { p.plain.Step(dt) })
	}
}

// withLock runs fn holding l; the deferred unlock keeps the lock released if fn panics
func withLock(l sync.Locker, fn func()) {
	l.Lock()
	defer l.Unlock()
	fn()
}
