package uthread

import (
	"runtime"
)

// wake is the value a parked context receives on its permit channel.
type wake uint8

const (
	wakeResume wake = iota
	wakeKill
)

// snapshot is the opaque saved execution state of a thread.
//
// Each thread body runs on its own goroutine, which is its stack. A parked
// goroutine is suspended exactly where it called park, so restoring the
// snapshot resumes it there, as if the switch call had just returned. The
// only register-like state that must be carried across the switch is the
// preemption mask depth, which belongs to whichever thread holds the permit.
type snapshot struct {
	// start launches the goroutine on first restore, nil once started
	start func()

	permit chan wake

	// closed after the goroutine exited, nil for the main thread (whose
	// goroutine is borrowed from the caller of New)
	done chan struct{}

	// saved preemption mask depth
	mask int

	killed bool
}

// mainSnapshot returns the snapshot of the goroutine calling New, which is
// already running.
func mainSnapshot() *snapshot {
	return &snapshot{
		permit: make(chan wake, 1),
	}
}

// seed returns a snapshot that, on first restore, starts a new goroutine
// running start. The mask of a fresh thread is always zero.
func seed(start func()) *snapshot {
	return &snapshot{
		start:  start,
		permit: make(chan wake, 1),
		done:   make(chan struct{}),
	}
}

// park blocks the calling goroutine until its snapshot is restored. If the
// thread was destroyed while parked, the goroutine exits instead.
func (c *snapshot) park() {
	if <-c.permit == wakeKill {
		runtime.Goexit()
	}
}

// kill destroys a parked (or never started) snapshot, waiting for its
// goroutine to finish unwinding. Must not be called on the running thread.
func (c *snapshot) kill() {
	if c.start != nil {
		// never ran, nothing to unwind
		c.start = nil
		return
	}
	c.killed = true
	c.permit <- wakeKill
	if c.done != nil {
		<-c.done
	}
}

// capture saves the current mask depth into c.
func (s *Scheduler) capture(c *snapshot) {
	c.mask = s.gate.depth
}

// restore installs c as the running context, transferring the permit to its
// goroutine. The caller must not touch scheduler state afterward; it either
// parks or exits.
func (s *Scheduler) restore(c *snapshot) {
	s.gate.depth = c.mask
	if start := c.start; start != nil {
		c.start = nil
		go start()
		return
	}
	c.permit <- wakeResume
}

// switchContext suspends from (nil if the previous thread no longer exists)
// and resumes to. It returns once from is restored again.
func (s *Scheduler) switchContext(from, to *snapshot) {
	if from == to {
		return
	}
	if from != nil {
		s.capture(from)
	}
	s.restore(to)
	if from != nil {
		from.park()
	}
}
