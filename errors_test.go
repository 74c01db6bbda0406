package uthread

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsageError(t *testing.T) {
	err := error(&UsageError{Op: `Sleep`, TID: 0, Err: ErrMainThread})
	assert.Equal(t, `thread library error: invalid operation on the main thread`, err.Error())
	assert.ErrorIs(t, err, ErrMainThread)
	assert.NotErrorIs(t, err, ErrUnknownThread)

	wrapped := fmt.Errorf(`outer: %w`, err)
	var usage *UsageError
	if assert.ErrorAs(t, wrapped, &usage) {
		assert.Equal(t, `Sleep`, usage.Op)
	}

	assert.Equal(t, `thread library error`, (&UsageError{}).Error())
}

func TestSystemResourceError(t *testing.T) {
	cause := errors.New(`operation not permitted`)
	err := systemError(`setitimer`, ErrTimer, cause)
	assert.Equal(t, `system error: timer call failed: operation not permitted`, err.Error())
	assert.ErrorIs(t, err, ErrTimer)
	assert.ErrorIs(t, err, cause)

	err = systemError(`signal.Notify`, ErrSignal, nil)
	assert.Equal(t, `system error: signal handler installation failed`, err.Error())
	var sys *SystemResourceError
	if assert.ErrorAs(t, err, &sys) {
		assert.Equal(t, `signal.Notify`, sys.Op)
	}

	assert.Equal(t, `system error`, (&SystemResourceError{}).Error())
}

func TestPanicError(t *testing.T) {
	err := PanicError{TID: 3, Value: `boom`}
	assert.Equal(t, `thread 3 panicked: boom`, err.Error())
	assert.Nil(t, err.Unwrap())

	cause := errors.New(`cause`)
	err = PanicError{TID: 1, Value: cause}
	assert.ErrorIs(t, err, cause)
}
