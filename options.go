package taskloop

import (
	"errors"

	"github.com/joeycumines/logiface"
)

// loopOptions holds configuration options for EventLoop creation.
type loopOptions struct {
	clock          Clock
	waiter         Waiter
	logger         *logiface.Logger[logiface.Event]
	metricsEnabled bool
}

// LoopOption configures an EventLoop instance.
type LoopOption interface {
	applyLoop(*loopOptions) error
}

// loopOptionImpl implements LoopOption.
type loopOptionImpl struct {
	applyLoopFunc func(*loopOptions) error
}

func (x *loopOptionImpl) applyLoop(opts *loopOptions) error {
	return x.applyLoopFunc(opts)
}

// WithClock sets the loop's time source and sleep primitive. The default is
// the system clock. A nil clock is a configuration error.
func WithClock(clock Clock) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		if clock == nil {
			return errors.New(`taskloop: clock must not be nil`)
		}
		opts.clock = clock
		return nil
	}}
}

// WithWaiter sets the blocking multi-wait used when only pending operations
// remain. The default is a [PollingWaiter] sharing the loop's clock. A nil
// waiter is a configuration error.
func WithWaiter(waiter Waiter) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		if waiter == nil {
			return errors.New(`taskloop: waiter must not be nil`)
		}
		opts.waiter = waiter
		return nil
	}}
}

// WithLogger attaches a structured logger to the loop. The loop traces each
// executed unit at trace level, reports Clear at debug level, and logs
// recovered idle-callback panics at error level. A nil logger (the default)
// disables all logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithMetrics enables scheduling metrics collection on the loop, accessed
// via [EventLoop.Metrics]. Disabled by default.
func WithMetrics(enabled bool) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.metricsEnabled = enabled
		return nil
	}}
}

// resolveLoopOptions applies LoopOption instances to loopOptions.
func resolveLoopOptions(opts []LoopOption) (*loopOptions, error) {
	cfg := &loopOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue // Skip nil options gracefully
		}
		if err := opt.applyLoop(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.clock == nil {
		cfg.clock = systemClock{}
	}
	if cfg.waiter == nil {
		// the default waiter polls on the loop's own clock
		cfg.waiter = PollingWaiter{Clock: cfg.clock}
	}
	return cfg, nil
}
