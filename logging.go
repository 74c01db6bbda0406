package uthread

import (
	"errors"
	"fmt"
	"io"
	"time"

	catrate "github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// defaultDiagnosticRateLimits bounds repeated diagnostics of the same kind,
// e.g. a thread spinning on a rejected call.
var defaultDiagnosticRateLimits = map[time.Duration]int{
	time.Second: 20,
	time.Minute: 200,
}

// newDefaultLogger builds the JSON diagnostic logger used when WithLogger is
// not given.
func newDefaultLogger(w io.Writer) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
	).Logger()
}

// newLimiter builds the diagnostic limiter, converting the panic catrate
// raises for invalid rates into an error.
func newLimiter(rates map[time.Duration]int) (limiter *catrate.Limiter, err error) {
	if len(rates) == 0 {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			limiter = nil
			err = fmt.Errorf("uthread: invalid diagnostic rate limits: %v", r)
		}
	}()
	return catrate.NewLimiter(rates), nil
}

// diagnostics is the scheduler's diagnostic channel.
type diagnostics struct {
	logger  *logiface.Logger[logiface.Event]
	limiter *catrate.Limiter
}

// kind returns the sentinel used as the rate limiting category and the
// "kind" field.
func kind(err error) error {
	var usage *UsageError
	if errors.As(err, &usage) {
		return usage.Err
	}
	for _, sentinel := range [...]error{ErrTimer, ErrSignal} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return err
}

func (d *diagnostics) allow(err error) bool {
	if d.limiter == nil {
		return true
	}
	_, ok := d.limiter.Allow(kind(err))
	return ok
}

// usage reports a recoverable caller error.
func (d *diagnostics) usage(err *UsageError) {
	if d.logger == nil || !d.allow(err) {
		return
	}
	d.logger.Err().
		Str(`op`, err.Op).
		Int(`tid`, err.TID).
		Str(`kind`, kind(err).Error()).
		Log(err.Error())
}

// fatal reports an unrecoverable platform failure. Never rate limited.
func (d *diagnostics) fatal(err error) {
	if d.logger == nil {
		return
	}
	b := d.logger.Crit().Err(err)
	var sys *SystemResourceError
	if errors.As(err, &sys) {
		b = b.Str(`op`, sys.Op)
	}
	b.Log(err.Error())
}

// panicked reports a recovered panic from a thread entry function.
func (d *diagnostics) panicked(err PanicError) {
	if d.logger == nil {
		return
	}
	d.logger.Err().
		Int(`tid`, err.TID).
		Err(err).
		Log(`thread library error: thread entry panicked`)
}

// dispatched logs each dispatch, at debug level.
func (d *diagnostics) dispatched(tid, total int) {
	if d.logger == nil {
		return
	}
	d.logger.Debug().
		Int(`tid`, tid).
		Int(`total`, total).
		Log(`dispatch`)
}
