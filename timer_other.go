//go:build !linux

package uthread

import (
	"time"
)

// VirtualTimer is only available on linux.
type VirtualTimer struct{}

// NewVirtualTimer always fails on this platform.
func NewVirtualTimer() (*VirtualTimer, error) {
	return nil, systemError(`NewVirtualTimer`, ErrSignal, nil)
}

// Arm implements Timer.
func (*VirtualTimer) Arm(time.Duration, func()) error {
	return ErrTimer
}

// Stop implements Timer.
func (*VirtualTimer) Stop() error {
	return nil
}
