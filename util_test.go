package uthread

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/slices"
)

// harness runs a scheduler whose main thread is a dedicated goroutine, so
// that terminating it (or a fatal error) does not end the test goroutine.
type harness struct {
	timer *ManualTimer
	logs  *bytes.Buffer
	exit  chan int
}

// tick expires the running thread's quantum and reaches a preemption point.
// It returns once the calling thread is dispatched again.
func (h *harness) tick(s *Scheduler) {
	h.timer.Expire()
	s.Checkpoint()
}

// lines returns the diagnostic lines logged so far.
func (h *harness) lines() []string {
	s := strings.TrimSpace(h.logs.String())
	if s == `` {
		return nil
	}
	return strings.Split(s, "\n")
}

func newTestLogger(buf *bytes.Buffer) *logiface.Logger[logiface.Event] {
	return newDefaultLogger(buf)
}

// runScheduler calls body on thread 0 of a new scheduler, driven by a
// ManualTimer, then terminates thread 0. Returns the exit code.
//
// Bodies must only use non-fatal assertions (assert, not require), since
// they do not run on the test goroutine.
func runScheduler(t *testing.T, quantumUsecs int, opts []Option, body func(h *harness, s *Scheduler)) (*harness, int) {
	t.Helper()

	h := &harness{
		timer: NewManualTimer(),
		logs:  new(bytes.Buffer),
		exit:  make(chan int, 1),
	}

	go func() {
		s, err := New(quantumUsecs, append([]Option{
			WithTimer(h.timer),
			WithLogger(newTestLogger(h.logs)),
			WithExit(func(code int) { h.exit <- code }),
		}, opts...)...)
		if !assert.NoError(t, err) {
			h.exit <- -1
			return
		}
		body(h, s)
		_ = s.Terminate(0)
		assert.Fail(t, `Terminate(0) returned`)
	}()

	select {
	case code := <-h.exit:
		return h, code
	case <-time.After(10 * time.Second):
		t.Fatal(`scheduler did not exit`)
		return nil, 0
	}
}

// loop is a thread body that preempts itself forever, calling fn (if
// non-nil) each time it is dispatched.
func loop(h *harness, s *Scheduler, fn func()) func() {
	return func() {
		for {
			if fn != nil {
				fn()
			}
			h.tick(s)
		}
	}
}

// snapshotReady returns a copy of the ready queue, front first.
func (q *queues) snapshotReady() []int {
	return slices.Clone(q.ready)
}

func (q *queues) wakeAt(id int) (int, bool) {
	at, ok := q.sleeping[id]
	return at, ok
}

func (r *registry) len() int {
	return len(r.threads)
}
