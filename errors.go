package uthread

import (
	"errors"
	"fmt"
)

// Usage errors. Each is wrapped by a [*UsageError], match with [errors.Is].
var (
	// ErrInvalidQuantum is returned by New for a non-positive quantum length.
	ErrInvalidQuantum = errors.New("invalid quantum length")

	// ErrInvalidEntry is returned by Spawn for a nil entry function.
	ErrInvalidEntry = errors.New("invalid entry point")

	// ErrCapacity is returned by Spawn when every identifier is in use.
	ErrCapacity = errors.New("passed maximum amount of threads")

	// ErrMainThread is returned for operations not permitted on thread 0.
	ErrMainThread = errors.New("invalid operation on the main thread")

	// ErrUnknownThread is returned for an identifier with no live thread.
	ErrUnknownThread = errors.New("tid doesn't exist")

	// ErrInvalidSleep is returned by Sleep for a non-positive quantum count.
	ErrInvalidSleep = errors.New("quantums of sleep should be positive")

	// ErrTerminated is returned by calls made after the scheduler was torn
	// down.
	ErrTerminated = errors.New("scheduler has been terminated")
)

// System resource errors. Each is wrapped by a [*SystemResourceError].
var (
	// ErrTimer indicates the platform timer could not be armed or stopped.
	ErrTimer = errors.New("timer call failed")

	// ErrSignal indicates the expiry signal handler could not be installed.
	ErrSignal = errors.New("signal handler installation failed")
)

// UsageError reports an invalid argument, or an operation disallowed for the
// target thread. The scheduler state is unchanged when one is returned.
type UsageError struct {
	Err error
	Op  string
	TID int
}

// Error implements the error interface.
func (e *UsageError) Error() string {
	if e.Err == nil {
		return "thread library error"
	}
	return "thread library error: " + e.Err.Error()
}

// Unwrap returns the underlying sentinel for use with [errors.Is].
func (e *UsageError) Unwrap() error {
	return e.Err
}

// SystemResourceError reports that the platform failed to provide a
// primitive the scheduler depends on. These are fatal.
type SystemResourceError struct {
	Err error
	Op  string
}

// Error implements the error interface.
func (e *SystemResourceError) Error() string {
	if e.Err == nil {
		return "system error"
	}
	return "system error: " + e.Err.Error()
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *SystemResourceError) Unwrap() error {
	return e.Err
}

// PanicError wraps a value recovered from a panicking thread entry function.
type PanicError struct {
	Value any
	TID   int
}

// Error implements the error interface.
func (e PanicError) Error() string {
	return fmt.Sprintf("thread %d panicked: %v", e.TID, e.Value)
}

// Unwrap returns the underlying error if the panic value is an error type.
//
// If the panic Value is not an error (e.g., a string or other type),
// returns nil.
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// systemError wraps a platform failure as a [*SystemResourceError].
func systemError(op string, kind, cause error) error {
	if cause == nil {
		return &SystemResourceError{Op: op, Err: kind}
	}
	return &SystemResourceError{Op: op, Err: fmt.Errorf("%w: %w", kind, cause)}
}
