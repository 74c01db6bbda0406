// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package uthread

import (
	"errors"
	"os"
	"time"

	"github.com/joeycumines/logiface"
)

// DefaultMaxThreads is the thread capacity used when WithMaxThreads is not
// given. It includes the main thread.
const DefaultMaxThreads = 100

// schedulerOptions holds configuration options for Scheduler creation.
type schedulerOptions struct {
	timer          Timer
	logger         *logiface.Logger[logiface.Event]
	exit           func(code int)
	rateLimits     map[time.Duration]int
	maxThreads     int
	metricsEnabled bool
	loggerSet      bool
	rateLimitsSet  bool
}

// --- Scheduler Options ---

// Option configures a Scheduler instance.
type Option interface {
	applyScheduler(*schedulerOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applySchedulerFunc func(*schedulerOptions) error
}

func (o *optionImpl) applyScheduler(opts *schedulerOptions) error {
	return o.applySchedulerFunc(opts)
}

// WithMaxThreads sets the maximum number of concurrently live threads,
// including the main thread. Identifiers range over [0, n).
func WithMaxThreads(n int) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		if n < 1 {
			return errors.New("uthread: max threads must be at least 1")
		}
		opts.maxThreads = n
		return nil
	}}
}

// WithTimer sets the one-shot platform timer used to signal quantum expiry.
// Defaults to a wall-clock [RealTimer].
func WithTimer(timer Timer) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		opts.timer = timer
		return nil
	}}
}

// WithLogger sets the logger used as the diagnostic channel.
// A nil logger disables diagnostics.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		opts.logger = logger
		opts.loggerSet = true
		return nil
	}}
}

// WithDiagnosticRateLimits limits how often diagnostics of the same kind
// (per sentinel error) are emitted, using sliding windows, e.g.
// map[time.Duration]int{time.Second: 20, time.Minute: 200}.
// A nil map disables rate limiting.
func WithDiagnosticRateLimits(rates map[time.Duration]int) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		opts.rateLimits = rates
		opts.rateLimitsSet = true
		return nil
	}}
}

// WithExit sets the function called to end the process, when the main
// thread is terminated (code 0), or a system resource error occurs (code 1).
// Defaults to os.Exit. If the function returns, the calling thread's
// goroutine exits instead.
func WithExit(exit func(code int)) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		opts.exit = exit
		return nil
	}}
}

// WithMetrics enables runtime metrics collection on the Scheduler.
// When enabled, metrics can be accessed via Scheduler.Metrics().
func WithMetrics(enabled bool) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		opts.metricsEnabled = enabled
		return nil
	}}
}

// resolveOptions applies Option instances to schedulerOptions.
func resolveOptions(opts []Option) (*schedulerOptions, error) {
	cfg := &schedulerOptions{
		maxThreads: DefaultMaxThreads,
	}
	for _, opt := range opts {
		if opt == nil {
			continue // Skip nil options gracefully
		}
		if err := opt.applyScheduler(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.timer == nil {
		cfg.timer = NewRealTimer()
	}
	if cfg.exit == nil {
		cfg.exit = os.Exit
	}
	if !cfg.loggerSet {
		cfg.logger = newDefaultLogger(os.Stderr)
	}
	if !cfg.rateLimitsSet {
		cfg.rateLimits = defaultDiagnosticRateLimits
	}
	return cfg, nil
}
