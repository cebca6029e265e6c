package taskloop

import (
	"context"
	"time"
)

// Operation is the handle of an asynchronous action whose completion the
// loop can wait on. The loop never creates, dispatches, or transitions
// operations; it only observes their state and tracks their completion
// callbacks.
//
// Operation values key the loop's pending table directly, so
// implementations must be comparable. Pointer implementations satisfy this
// trivially.
type Operation interface {
	// State reports the operation's current dispatch state.
	State() OperationState
}

// CompositeOperation groups several operations under one logical wait. Its
// State method reports the aggregate state of the group; a completion
// callback registered against a composite fires exactly once, when the
// aggregate first reaches [StateFinishing].
type CompositeOperation interface {
	Operation

	// Operations returns the constituent sub-operations.
	Operations() []Operation
}

// Waiter is the loop's blocking multi-wait capability. Implementations may
// be backed by real blocking I/O, a polling loop (see [PollingWaiter]), or
// a suspension point of some cooperative concurrency mechanism; the
// scheduling algorithm is the same regardless.
type Waiter interface {
	// WaitAny blocks until at least one of ops has completed, and returns
	// it. A nil return with a nil error is tolerated as a spurious wakeup.
	// Returning an operation that was not in ops is a contract violation,
	// surfaced by the loop as [ErrUnknownOperation].
	WaitAny(ctx context.Context, ops []Operation) (Operation, error)
}

// DefaultPollInterval is the scan interval used by [PollingWaiter] when none
// is configured.
const DefaultPollInterval = time.Millisecond

// PollingWaiter implements [Waiter] by scanning operation states at a fixed
// interval. It is the loop's default waiter; hosts whose operation subsystem
// offers a real blocking wait should prefer that via [WithWaiter].
//
// The zero value is usable: a nil Clock means the system clock, and a
// non-positive Interval means [DefaultPollInterval].
type PollingWaiter struct {
	Clock    Clock
	Interval time.Duration
}

// WaitAny scans ops for one in [StateFinishing], sleeping between scans,
// until a completed operation is found or ctx is canceled.
func (x PollingWaiter) WaitAny(ctx context.Context, ops []Operation) (Operation, error) {
	clock := x.Clock
	if clock == nil {
		clock = systemClock{}
	}
	interval := x.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	for {
		for _, op := range ops {
			if op.State() == StateFinishing {
				return op, nil
			}
		}
		if err := clock.Sleep(ctx, interval); err != nil {
			return nil, err
		}
	}
}
