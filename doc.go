// Package uthread implements a user-level thread library: an arbitrary
// number of lightweight threads (up to a fixed capacity) multiplexed over a
// single logical CPU, scheduled round-robin with a fixed quantum, and
// preempted when a one-shot virtual timer expires.
//
// # Architecture
//
// A [Scheduler] owns every thread record, a FIFO ready queue (whose front is
// the running thread), a blocked set and a sleeping set. Each spawned
// thread's body runs on its own goroutine, but exactly one goroutine holds
// the run permit at any instant; every other thread goroutine is parked.
// Switching threads captures the running thread's snapshot, hands the permit
// to the next thread, and parks the previous one until it is dispatched
// again, at which point its call returns as if nothing happened.
//
// # Preemption
//
// Quantum expiry is signalled by a [Timer], armed once per dispatch:
//   - [RealTimer]: wall clock (default)
//   - [VirtualTimer]: ITIMER_VIRTUAL and SIGVTALRM (linux only)
//   - [ManualTimer]: fires only on [ManualTimer.Expire], for tests
//
// Expiry is recorded asynchronously and delivered synchronously, on the
// running thread, at the next preemption point: leaving any Scheduler
// method, or [Scheduler.Checkpoint]. Scheduler methods run with preemption
// masked, which is the only synchronization the scheduler uses. A body that
// never reaches a preemption point is never preempted.
//
// # Thread States
//
// Threads move between RUNNING, READY, BLOCKED, READY_SLEEPING and
// BLOCKED_SLEEPING, see [ThreadState]. Blocking a sleeping thread keeps it
// sleeping, and it wakes into the blocked set instead of the ready queue.
//
// # Errors
//
// Invalid calls return a [*UsageError] wrapping one of the Err* sentinels,
// are reported on the diagnostic channel (see [WithLogger]), and leave the
// scheduler unchanged. Platform failures ([*SystemResourceError]) are fatal:
// they are reported and the process exits with code 1. [ErrTimer] covers a
// timer that cannot be armed or stopped. [ErrSignal] is only returned by
// [NewVirtualTimer] on platforms without SIGVTALRM, since os/signal cannot
// fail to install a handler on linux.
//
// # Usage
//
//	s, err := uthread.New(10000) // 10ms quantum
//	if err != nil {
//	    log.Fatal(err)
//	}
//	id, _ := s.Spawn(func() {
//	    for i := 0; ; i++ {
//	        work(i)
//	        s.Checkpoint()
//	    }
//	})
//	_ = s.Sleep(1) // usage error: thread 0 cannot sleep
//	_ = s.Block(id)
//	_ = s.Resume(id)
//	_ = s.Terminate(0) // tears down and exits the process
package uthread
