package uthread

// ThreadState represents the scheduling state of a single thread.
//
// State Machine:
//
//	READY → RUNNING                      [dispatch]
//	RUNNING → READY                      [preempt, more than one thread ready]
//	RUNNING → BLOCKED                    [Block(self)]
//	RUNNING → READY_SLEEPING             [Sleep(n)]
//	READY → BLOCKED                      [Block(tid)]
//	BLOCKED → READY                      [Resume(tid)]
//	READY_SLEEPING → BLOCKED_SLEEPING    [Block(tid)]
//	BLOCKED_SLEEPING → READY_SLEEPING    [Resume(tid)]
//	READY_SLEEPING → READY               [wake scan]
//	BLOCKED_SLEEPING → BLOCKED           [wake scan]
//	any → (destroyed)                    [Terminate(tid)]
//
// NOTE: Values start at 1, matching the numbering the diagnostics use.
type ThreadState int

const (
	// StateRunning indicates the thread holds the run permit. It is always
	// the front of the ready queue.
	StateRunning ThreadState = iota + 1
	// StateReady indicates the thread is waiting in the ready queue.
	StateReady
	// StateBlocked indicates the thread is suspended until resumed.
	StateBlocked
	// StateReadySleeping indicates the thread becomes READY at its wake-at
	// quantum.
	StateReadySleeping
	// StateBlockedSleeping indicates the thread becomes BLOCKED at its wake-at
	// quantum.
	StateBlockedSleeping
)

// String returns a human-readable representation of the state.
func (s ThreadState) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateReady:
		return "READY"
	case StateBlocked:
		return "BLOCKED"
	case StateReadySleeping:
		return "READY_SLEEPING"
	case StateBlockedSleeping:
		return "BLOCKED_SLEEPING"
	default:
		return "UNKNOWN"
	}
}

// Sleeping returns true if the thread is held by the sleeping set.
func (s ThreadState) Sleeping() bool {
	return s == StateReadySleeping || s == StateBlockedSleeping
}

// Blocked returns true if the thread would not become runnable without a
// Resume call.
func (s ThreadState) Blocked() bool {
	return s == StateBlocked || s == StateBlockedSleeping
}
