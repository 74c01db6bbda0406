package uthread

import (
	"sync"
	"time"
)

// Timer is a one-shot quantum timer, the platform half of preemption.
//
// Arm schedules fire to be called once, after d, replacing any previous arm.
// The timer never repeats on its own; the scheduler re-arms it on every
// dispatch. fire may be called from any goroutine, and must not block.
type Timer interface {
	Arm(d time.Duration, fire func()) error
	Stop() error
}

// RealTimer is a wall-clock Timer backed by time.AfterFunc.
type RealTimer struct {
	t  *time.Timer
	mu sync.Mutex
}

// NewRealTimer returns a stopped RealTimer.
func NewRealTimer() *RealTimer {
	return &RealTimer{}
}

// Arm implements Timer.
func (x *RealTimer) Arm(d time.Duration, fire func()) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.t != nil {
		x.t.Stop()
	}
	x.t = time.AfterFunc(d, fire)
	return nil
}

// Stop implements Timer.
func (x *RealTimer) Stop() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.t != nil {
		x.t.Stop()
		x.t = nil
	}
	return nil
}

// ManualTimer is a Timer that only fires when Expire is called. It makes
// preemption deterministic, for tests and simulations.
type ManualTimer struct {
	fire  func()
	last  time.Duration
	arms  int
	mu    sync.Mutex
	armed bool
}

// NewManualTimer returns a disarmed ManualTimer.
func NewManualTimer() *ManualTimer {
	return &ManualTimer{}
}

// Arm implements Timer.
func (x *ManualTimer) Arm(d time.Duration, fire func()) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.fire = fire
	x.last = d
	x.arms++
	x.armed = true
	return nil
}

// Stop implements Timer.
func (x *ManualTimer) Stop() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.fire = nil
	x.armed = false
	return nil
}

// Expire fires the armed callback, if any, disarming the timer.
// Returns false if the timer was not armed.
func (x *ManualTimer) Expire() bool {
	x.mu.Lock()
	fire, armed := x.fire, x.armed
	x.fire = nil
	x.armed = false
	x.mu.Unlock()
	if !armed || fire == nil {
		return false
	}
	fire()
	return true
}

// Armed reports whether the timer is armed.
func (x *ManualTimer) Armed() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.armed
}

// Last returns the duration passed to the most recent Arm call.
func (x *ManualTimer) Last() time.Duration {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.last
}

// Arms returns the number of Arm calls so far.
func (x *ManualTimer) Arms() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.arms
}
