//go:build linux

package uthread

import (
	"errors"
	"os"
	"os/signal"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// VirtualTimer is a Timer backed by the process's ITIMER_VIRTUAL interval
// timer, which counts user CPU time, with expiry delivered as SIGVTALRM.
//
// The interval timer is process-wide: at most one VirtualTimer should be
// armed at a time.
type VirtualTimer struct {
	fire    func()
	sig     chan os.Signal
	done    chan struct{}
	mu      sync.Mutex
	stopped bool
}

// NewVirtualTimer installs the SIGVTALRM handler and returns a disarmed
// VirtualTimer. Fails with a [*SystemResourceError] wrapping [ErrTimer] if
// the interval timer is unavailable. Handler installation goes through
// os/signal, which cannot fail on linux.
func NewVirtualTimer() (*VirtualTimer, error) {
	if _, err := unix.Getitimer(unix.ItimerVirtual); err != nil {
		return nil, systemError(`getitimer`, ErrTimer, err)
	}
	x := &VirtualTimer{
		sig:  make(chan os.Signal, 1),
		done: make(chan struct{}),
	}
	signal.Notify(x.sig, unix.SIGVTALRM)
	go x.run()
	return x, nil
}

func (x *VirtualTimer) run() {
	for {
		select {
		case <-x.done:
			return
		case <-x.sig:
			x.mu.Lock()
			fire := x.fire
			x.fire = nil
			x.mu.Unlock()
			if fire != nil {
				fire()
			}
		}
	}
}

// Arm implements Timer. The interval field is always zero, so the timer
// fires at most once per Arm.
func (x *VirtualTimer) Arm(d time.Duration, fire func()) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.stopped {
		return errors.New("virtual timer stopped")
	}
	if d < time.Microsecond {
		// a zero it_value disarms the timer
		d = time.Microsecond
	}
	x.fire = fire
	_, err := unix.Setitimer(unix.ItimerVirtual, unix.Itimerval{
		Value: unix.NsecToTimeval(d.Nanoseconds()),
	})
	if err != nil {
		x.fire = nil
		return err
	}
	return nil
}

// Stop implements Timer. It disarms the interval timer and removes the
// signal handler. A stopped VirtualTimer cannot be armed again.
func (x *VirtualTimer) Stop() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.stopped {
		return nil
	}
	x.stopped = true
	x.fire = nil
	_, err := unix.Setitimer(unix.ItimerVirtual, unix.Itimerval{})
	signal.Stop(x.sig)
	close(x.done)
	return err
}
