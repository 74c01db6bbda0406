package uthread

import (
	"sync/atomic"
	"time"
)

// gateway connects the platform timer to the scheduler's preemption handler.
//
// Expiry is asynchronous: the timer's goroutine only records that the
// current arm fired. Delivery is synchronous, on the running thread, at the
// first preemption point where the mask depth is zero. The mask depth is the
// ownership token over all scheduler state; it is saved and restored with
// each thread's snapshot, like a signal mask.
type gateway struct {
	timer   Timer
	handler func()
	fatal   func(error)

	// generation of the current arm, only written by the permit holder
	gen atomic.Uint64
	// generation that fired and has not been delivered, 0 if none
	fired atomic.Uint64

	quantum time.Duration

	// only accessed by the permit holder
	depth int
}

func newGateway(timer Timer, quantum time.Duration, handler func(), fatal func(error)) *gateway {
	return &gateway{
		timer:   timer,
		quantum: quantum,
		handler: handler,
		fatal:   fatal,
	}
}

// arm starts a fresh quantum. Any undelivered expiry of a previous arm is
// dropped.
func (g *gateway) arm() {
	gen := g.gen.Add(1)
	if err := g.timer.Arm(g.quantum, func() { g.expired(gen) }); err != nil {
		g.fatal(systemError(`setitimer`, ErrTimer, err))
	}
}

// expired records that the arm gen fired. Timers may call back late, after
// a newer arm, so fired only ever moves forward: a stale callback must not
// replace the expiry of the current arm.
func (g *gateway) expired(gen uint64) {
	for {
		cur := g.fired.Load()
		if cur >= gen || g.fired.CompareAndSwap(cur, gen) {
			return
		}
	}
}

// stop disarms the timer for good.
func (g *gateway) stop() {
	g.gen.Add(1)
	if err := g.timer.Stop(); err != nil {
		g.fatal(systemError(`setitimer`, ErrTimer, err))
	}
}

// pending reports whether the current arm has fired, without consuming it.
func (g *gateway) pending() bool {
	gen := g.gen.Load()
	return gen != 0 && g.fired.Load() == gen
}

// take consumes the expiry of the current arm, if it fired.
func (g *gateway) take() bool {
	gen := g.gen.Load()
	return gen != 0 && g.fired.CompareAndSwap(gen, 0)
}

func (g *gateway) mask() {
	g.depth++
}

// unmask leaves a critical section, delivering a pending expiry once the
// outermost section is left.
func (g *gateway) unmask() {
	g.depth--
	if g.depth == 0 {
		g.deliver()
	}
}

// deliver runs the handler for each pending expiry, with the mask held, as
// the kernel does for a signal handler. The handler may switch threads; the
// mask depth observed after it returns is the one restored for this thread.
func (g *gateway) deliver() {
	for g.depth == 0 && g.take() {
		g.depth++
		g.handler()
		g.depth--
	}
}
