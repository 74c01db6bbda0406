package uthread

import (
	"runtime"
	"time"
)

// Scheduler is a user-level thread library instance, multiplexing up to a
// fixed number of threads over a single logical CPU, round-robin.
//
// Only the running thread may call Scheduler methods (Metrics excepted).
// A Scheduler must be created with New, and is torn down by terminating
// thread 0.
type Scheduler struct {
	// Prevent copying
	_ [0]func()

	registry *registry
	queues   *queues
	gate     *gateway
	diag     *diagnostics
	metrics  *metrics
	exit     func(code int)

	quantum time.Duration

	// global quantum counter, starts at 1, incremented once per dispatch
	total int

	terminated bool
}

// New initializes a scheduler with the given quantum length, in
// microseconds. The calling goroutine becomes thread 0, already running, and
// the timer is armed for its first quantum.
//
// A non-positive quantum is a usage error. Invalid options are returned as
// plain errors.
func New(quantumUsecs int, opts ...Option) (*Scheduler, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	limiter, err := newLimiter(cfg.rateLimits)
	if err != nil {
		return nil, err
	}
	diag := &diagnostics{logger: cfg.logger, limiter: limiter}

	if quantumUsecs <= 0 {
		err := &UsageError{Op: `New`, TID: -1, Err: ErrInvalidQuantum}
		diag.usage(err)
		return nil, err
	}

	s := &Scheduler{
		registry: newRegistry(cfg.maxThreads),
		queues:   newQueues(cfg.maxThreads),
		diag:     diag,
		exit:     cfg.exit,
		quantum:  time.Duration(quantumUsecs) * time.Microsecond,
		total:    1,
	}
	if cfg.metricsEnabled {
		s.metrics = &metrics{lastDispatch: time.Now()}
		s.metrics.dispatches.Store(1)
	}
	s.gate = newGateway(cfg.timer, s.quantum, s.preempt, s.fatal)

	s.registry.threads[0] = &thread{
		id:       0,
		state:    StateRunning,
		quantums: 1,
		ctx:      mainSnapshot(),
	}
	s.queues.pushBack(0)

	s.gate.mask()
	s.gate.arm()
	s.gate.unmask()

	return s, nil
}

// Spawn creates a thread running entry, appended to the back of the ready
// queue, returning its identifier (the smallest free one). If entry returns,
// the thread terminates itself.
//
// Returns -1 and a usage error for a nil entry, or if the capacity is
// reached.
func (s *Scheduler) Spawn(entry func()) (int, error) {
	s.gate.mask()
	id, err := s.spawn(entry)
	s.gate.unmask()
	return id, err
}

func (s *Scheduler) spawn(entry func()) (int, error) {
	if s.terminated {
		return -1, s.usage(`Spawn`, -1, ErrTerminated)
	}
	if entry == nil {
		return -1, s.usage(`Spawn`, -1, ErrInvalidEntry)
	}
	id, ok := s.registry.allocateID()
	if !ok {
		return -1, s.usage(`Spawn`, -1, ErrCapacity)
	}
	var t *thread
	t = s.registry.create(id, seed(func() { s.run(t, entry) }))
	s.queues.pushBack(id)
	s.metrics.spawn()
	return id, nil
}

// Terminate destroys the thread tid, releasing its identifier for reuse.
//
// Terminating thread 0 destroys every thread and ends the process, via the
// exit function (see WithExit), with code 0. Terminating the calling thread
// dispatches the next ready thread. Neither case returns.
//
// Deferred calls of a destroyed thread run before Terminate returns (or
// before the next thread is dispatched, for self-termination), and must not
// switch threads.
func (s *Scheduler) Terminate(tid int) error {
	s.gate.mask()
	t, ok := s.registry.get(tid)
	if !ok || s.terminated {
		s.gate.unmask()
		return s.usage(`Terminate`, tid, ErrUnknownThread)
	}

	if tid == 0 {
		s.teardown()
		s.exitProcess(0)
	}

	if t.state == StateRunning {
		s.retire(t)
		// the goroutine's trampoline dispatches the next thread once its
		// deferred calls have run
		runtime.Goexit()
	}

	s.retire(t)
	t.ctx.kill()
	s.gate.unmask()
	return nil
}

// Block suspends the thread tid until Resume is called on it. Blocking the
// calling thread dispatches the next ready thread, and returns once it is
// resumed and redispatched.
//
// Blocking an already blocked thread is a no-op. Blocking a sleeping thread
// keeps it sleeping; once it wakes, it is blocked rather than ready.
// Thread 0 cannot be blocked.
func (s *Scheduler) Block(tid int) error {
	s.gate.mask()
	err := s.block(tid)
	s.gate.unmask()
	return err
}

func (s *Scheduler) block(tid int) error {
	t, ok := s.registry.get(tid)
	switch {
	case !ok || s.terminated:
		return s.usage(`Block`, tid, ErrUnknownThread)
	case tid == 0:
		return s.usage(`Block`, tid, ErrMainThread)
	}

	switch t.state {
	case StateBlocked, StateBlockedSleeping:
	case StateReadySleeping:
		t.state = StateBlockedSleeping
	case StateReady:
		s.queues.removeReady(tid)
		s.queues.block(tid)
		t.state = StateBlocked
	case StateRunning:
		s.queues.popFront()
		s.queues.block(tid)
		t.state = StateBlocked
		s.metrics.suspended()
		s.schedule(t)
	}
	return nil
}

// Resume moves a blocked thread to the back of the ready queue. A thread
// both blocked and sleeping stays sleeping, and becomes ready when it wakes.
// Resuming any other thread is a no-op.
func (s *Scheduler) Resume(tid int) error {
	s.gate.mask()
	err := s.resume(tid)
	s.gate.unmask()
	return err
}

func (s *Scheduler) resume(tid int) error {
	t, ok := s.registry.get(tid)
	if !ok || s.terminated {
		return s.usage(`Resume`, tid, ErrUnknownThread)
	}
	switch t.state {
	case StateBlocked:
		s.queues.unblock(tid)
		s.queues.pushBack(tid)
		t.state = StateReady
	case StateBlockedSleeping:
		t.state = StateReadySleeping
	}
	return nil
}

// Sleep suspends the calling thread for n quanta: it becomes ready again
// once the global quantum counter reaches its current value plus n. Returns
// once the thread is redispatched. Thread 0 cannot sleep.
func (s *Scheduler) Sleep(n int) error {
	s.gate.mask()
	err := s.sleep(n)
	s.gate.unmask()
	return err
}

func (s *Scheduler) sleep(n int) error {
	if s.terminated {
		return s.usage(`Sleep`, -1, ErrTerminated)
	}
	t := s.running()
	switch {
	case n <= 0:
		return s.usage(`Sleep`, t.id, ErrInvalidSleep)
	case t.id == 0:
		return s.usage(`Sleep`, t.id, ErrMainThread)
	}
	s.queues.popFront()
	s.queues.sleep(t.id, s.total+n)
	t.state = StateReadySleeping
	s.metrics.suspended()
	s.schedule(t)
	return nil
}

// Checkpoint is a preemption point: if the current quantum has expired, the
// calling thread is preempted here, and Checkpoint returns once it is
// redispatched. Bodies that run for longer than a quantum without calling
// any other Scheduler method should call it periodically.
func (s *Scheduler) Checkpoint() {
	if s.gate.depth == 0 {
		s.gate.deliver()
	}
}

// CurrentID returns the identifier of the calling (running) thread, or -1
// once the scheduler has been torn down.
func (s *Scheduler) CurrentID() int {
	if s.terminated {
		return -1
	}
	return s.queues.front()
}

// TotalQuantums returns the global quantum counter: 1 after New, plus one
// per dispatch.
func (s *Scheduler) TotalQuantums() int {
	return s.total
}

// Quantums returns the number of quanta the thread tid has been dispatched
// for, including the current one if it is running.
func (s *Scheduler) Quantums(tid int) (int, error) {
	t, ok := s.registry.get(tid)
	if !ok {
		return -1, s.usage(`Quantums`, tid, ErrUnknownThread)
	}
	return t.quantums, nil
}

// State returns the scheduling state of the thread tid.
func (s *Scheduler) State(tid int) (ThreadState, error) {
	t, ok := s.registry.get(tid)
	if !ok {
		return 0, s.usage(`State`, tid, ErrUnknownThread)
	}
	return t.state, nil
}

// Quantum returns the configured quantum length.
func (s *Scheduler) Quantum() time.Duration {
	return s.quantum
}

// MaxThreads returns the thread capacity, including the main thread.
func (s *Scheduler) MaxThreads() int {
	return s.registry.capacity
}

// Metrics returns a snapshot of the scheduler's metrics, or nil if the
// scheduler was not created WithMetrics(true). Safe to call from any
// goroutine.
func (s *Scheduler) Metrics() *Metrics {
	if s.metrics == nil {
		return nil
	}
	return s.metrics.snapshot()
}

// --- dispatch ---

// running returns the running thread, the ready-queue front.
func (s *Scheduler) running() *thread {
	return s.registry.threads[s.queues.front()]
}

// preempt is the quantum expiry handler. It requeues the running thread at
// the back and dispatches the new front, returning once the preempted thread
// is redispatched.
func (s *Scheduler) preempt() {
	if s.terminated {
		return
	}
	t := s.running()
	if s.queues.readyLen() > 1 {
		t.state = StateReady
	}
	s.queues.rotate()
	s.metrics.preempted()
	s.schedule(t)
}

// schedule advances the quantum counter and wakes due sleepers, then
// dispatches the ready-queue front. prev is the thread giving up the permit, nil if it
// no longer exists.
func (s *Scheduler) schedule(prev *thread) {
	s.total++
	s.wakeScan()
	s.dispatch(prev)
}

// wakeScan moves every due sleeper to the ready queue or the blocked set,
// in ascending identifier order.
func (s *Scheduler) wakeScan() {
	due := s.queues.due(s.total)
	for _, id := range due {
		t := s.registry.threads[id]
		s.queues.unsleep(id)
		switch t.state {
		case StateBlockedSleeping:
			s.queues.block(id)
			t.state = StateBlocked
		case StateReadySleeping:
			s.queues.pushBack(id)
			t.state = StateReady
		}
	}
	s.metrics.woke(len(due))
}

// dispatch runs the ready-queue front for a fresh quantum.
func (s *Scheduler) dispatch(prev *thread) {
	next := s.running()
	next.state = StateRunning
	next.quantums++
	s.gate.arm()
	s.metrics.dispatched(time.Now())
	s.diag.dispatched(next.id, s.total)

	var from *snapshot
	if prev != nil {
		from = prev.ctx
	}
	s.switchContext(from, next.ctx)
}

// --- lifecycle ---

// run is the trampoline each spawned thread's goroutine starts in.
func (s *Scheduler) run(t *thread, entry func()) {
	defer s.exited(t)
	defer func() {
		if r := recover(); r != nil {
			s.diag.panicked(PanicError{TID: t.id, Value: r})
			// a deferred call may panic while the thread unwinds from
			// Terminate, after which the scheduler state is not its own
			if !t.retired {
				s.gate.mask()
				s.retire(t)
			}
		}
	}()
	entry()
	s.gate.mask()
	s.retire(t)
}

// exited runs last on a spawned thread's goroutine. Unless the thread was
// destroyed by another thread, it hands the permit to the next ready thread.
func (s *Scheduler) exited(t *thread) {
	close(t.ctx.done)
	if t.ctx.killed || s.terminated {
		return
	}
	if !t.retired {
		// runtime.Goexit from within the entry function
		s.gate.mask()
		s.retire(t)
	}
	s.schedule(nil)
}

// retire removes t from whichever structure holds it, destroys the record
// and frees its identifier.
func (s *Scheduler) retire(t *thread) {
	switch t.state {
	case StateRunning:
		s.queues.popFront()
	case StateReady:
		s.queues.removeReady(t.id)
	case StateBlocked:
		s.queues.unblock(t.id)
	case StateReadySleeping, StateBlockedSleeping:
		s.queues.unsleep(t.id)
	}
	s.registry.destroy(t.id)
	s.registry.freeID(t.id)
	t.retired = true
	s.metrics.terminate()
}

// teardown destroys every thread but the caller, and stops the timer.
func (s *Scheduler) teardown() {
	self := s.queues.front()
	s.terminated = true

	// state is released before any kill: the main thread's goroutine is not
	// waited for, and may still be unwinding when the process exits
	ids := s.registry.sorted()
	victims := make([]*thread, 0, len(ids))
	for _, id := range ids {
		t := s.registry.threads[id]
		s.registry.destroy(id)
		t.retired = true
		if id != self {
			victims = append(victims, t)
		}
	}
	s.queues = newQueues(0)
	s.gate.stop()

	for _, t := range victims {
		t.ctx.kill()
	}
}

// exitProcess ends the process. If the exit function returns, the calling
// goroutine exits instead, so this never returns.
func (s *Scheduler) exitProcess(code int) {
	s.exit(code)
	runtime.Goexit()
}

// fatal reports a system resource error and ends the process with code 1.
func (s *Scheduler) fatal(err error) {
	s.terminated = true
	s.diag.fatal(err)
	s.exitProcess(1)
}

// usage reports a usage error on the diagnostic channel.
func (s *Scheduler) usage(op string, tid int, err error) error {
	e := &UsageError{Op: op, TID: tid, Err: err}
	s.diag.usage(e)
	return e
}
