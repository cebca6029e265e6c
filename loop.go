package taskloop

import (
	"context"
	"time"

	"github.com/joeycumines/logiface"
)

// AbsoluteDelayThreshold is the cutoff [EventLoop.QueueCall] uses to tell
// relative delays from absolute deadlines: a delay below the threshold
// schedules at now+delay, while a delay at or above it is taken verbatim as
// nanoseconds since the Unix epoch. The threshold is one billion seconds
// (roughly 31.7 years), so any epoch timestamp from 2001 onwards lands on
// the absolute side.
const AbsoluteDelayThreshold = 1e9 * time.Second

// initialQueueCapacity sizes the loop's ring buffers; they grow as needed.
const initialQueueCapacity = 8

// EventLoop multiplexes four kinds of pending work (immediate callbacks,
// timed callbacks, low-priority idle callbacks, and completions of
// outstanding asynchronous operations) into a single deterministic
// execution order on one goroutine.
//
// Work is registered through [EventLoop.Submit], [EventLoop.QueueCall],
// [EventLoop.AddIdle], and [EventLoop.QueueOperation], and performed by
// driving the loop with [EventLoop.RunUntilIdle] (or the finer-grained
// [EventLoop.RunOne] and [EventLoop.Step]). Each step executes at most one
// callback, which runs to completion before the loop does anything else;
// the loop only blocks at two points, sleeping until the earliest timer is
// due and waiting for any pending operation to complete.
//
// An EventLoop is NOT safe for concurrent use. It is intended to be owned
// by a single logical task or request context (see [NewContext] and
// [FromContext]); hosts wanting parallelism run independent loops, one per
// context. Callbacks may freely register more work on their own loop while
// executing, but must not drive it (see [ErrReentrantStep]).
type EventLoop struct {
	// Prevent copying
	_ [0]func()

	clock  Clock
	waiter Waiter
	logger *logiface.Logger[logiface.Event]

	// immediate holds callbacks runnable on the next step, FIFO.
	immediate *ringBuffer[func()]

	// idlers holds the idle callbacks, FIFO; inactive counts consecutive
	// no-work results since the last reset, and throttles idle processing
	// once it reaches the queue's current length.
	idlers   *ringBuffer[func() IdleResult]
	inactive int

	// timers holds timed events sorted by deadline, FIFO among ties.
	timers *timerQueue

	// pending tracks in-flight operations awaiting completion.
	pending *pendingOps

	// stepping guards against re-entrant driving from inside a callback.
	stepping bool

	metrics *metrics
}

// New constructs an EventLoop. By default the loop uses the system clock, a
// [PollingWaiter] sharing that clock, no logger, and no metrics collection.
func New(opts ...LoopOption) (*EventLoop, error) {
	cfg, err := resolveLoopOptions(opts)
	if err != nil {
		return nil, err
	}
	loop := &EventLoop{
		clock:     cfg.clock,
		waiter:    cfg.waiter,
		logger:    cfg.logger,
		immediate: newRingBuffer[func()](initialQueueCapacity),
		idlers:    newRingBuffer[func() IdleResult](initialQueueCapacity),
		timers:    newTimerQueue(),
		pending:   newPendingOps(),
	}
	if cfg.metricsEnabled {
		loop.metrics = new(metrics)
	}
	return loop, nil
}

// Submit enqueues fn to run on the next step, FIFO among immediate work.
// Immediate callbacks take priority over every other work source, including
// timed callbacks that are already due. A nil fn is ignored.
func (x *EventLoop) Submit(fn func()) {
	if fn == nil {
		return
	}
	x.immediate.PushBack(fn)
}

// QueueCall schedules fn at a deadline derived from delay: below
// [AbsoluteDelayThreshold] the deadline is the clock's now plus delay (a
// negative delay yields an already-due event), while at or above the
// threshold delay is interpreted as an absolute timestamp in nanoseconds
// since the Unix epoch. Events sharing a deadline run in the order they
// were queued. A nil fn is ignored.
//
// Note that an already-due timed event is still timed work: immediate and
// eligible idle callbacks run first.
func (x *EventLoop) QueueCall(delay time.Duration, fn func()) {
	if fn == nil {
		return
	}
	var when time.Time
	if delay < AbsoluteDelayThreshold {
		when = x.clock.Now().Add(delay)
	} else {
		when = time.Unix(0, int64(delay))
	}
	x.timers.push(timedEvent{when: when, fn: fn})
}

// AddIdle registers fn as an idle callback: low-priority recurring work
// that runs only when no immediate callback is queued, and that yields to
// the remaining work sources once every registered idler has reported
// [IdleNoWork] since the last reset. The callback's result controls its own
// scheduling; see [IdleResult]. A nil fn is ignored.
func (x *EventLoop) AddIdle(fn func() IdleResult) {
	if fn == nil {
		return
	}
	x.idlers.PushBack(fn)
}

// QueueOperation registers fn to run once when op completes. The operation
// must already have been dispatched: a [StateNotDispatched] operation
// yields [ErrOperationNotDispatched]. A nil op is a no-op. A
// [CompositeOperation] registers under each of its sub-operations, and when
// there is more than one, fn fires exactly once, when the aggregate first
// reaches [StateFinishing]. A nil fn is permitted; the completion is still
// tracked and consumed.
func (x *EventLoop) QueueOperation(op Operation, fn func()) error {
	return x.pending.register(op, fn)
}

// Step performs at most one unit of work, trying the sources in strict
// priority order: immediate callback, idle callback, due timed callback,
// pending-operation completion. The last of these blocks on the waiter.
//
// The return values encode what happened: (0, true, nil) means one unit of
// work was performed; (d, true, nil) with d > 0 means nothing was runnable
// yet and the earliest timed callback is due in d; (0, false, nil) means
// the loop is fully drained. A non-nil error comes from the waiter, from a
// waiter contract breach ([ErrUnknownOperation]), or from re-entrant
// driving ([ErrReentrantStep]).
//
// Panics from immediate, timed, and operation callbacks propagate to the
// caller unmodified. Idle callbacks are the one exception: their panics are
// recovered, logged, and permanently remove the offending callback, so a
// faulty idle task cannot halt draining.
func (x *EventLoop) Step(ctx context.Context) (wait time.Duration, ok bool, err error) {
	if x.stepping {
		return 0, false, ErrReentrantStep
	}
	x.stepping = true
	defer func() { x.stepping = false }()
	return x.step(ctx)
}

func (x *EventLoop) step(ctx context.Context) (time.Duration, bool, error) {
	x.metrics.countStep()

	if x.immediate.Len() != 0 {
		x.inactive = 0
		fn := x.immediate.PopFront()
		x.metrics.countImmediate()
		x.logger.Trace().Log(`running immediate callback`)
		fn()
		return 0, true, nil
	}

	if x.runOneIdle() {
		return 0, true, nil
	}

	var wait time.Duration
	var waiting bool
	if ev, ok := x.timers.peek(); ok {
		wait = ev.when.Sub(x.clock.Now())
		if wait <= 0 {
			x.inactive = 0
			x.timers.popFront()
			x.metrics.countTimer()
			x.logger.Trace().Time(`deadline`, ev.when).Log(`running timed callback`)
			ev.fn()
			return 0, true, nil
		}
		waiting = true
	}

	if x.pending.Len() != 0 {
		x.inactive = 0
		ops := x.pending.snapshot()
		x.logger.Trace().Int(`pending`, len(ops)).Log(`waiting for any operation`)
		op, err := x.waiter.WaitAny(ctx, ops)
		if err != nil {
			return 0, false, err
		}
		if op != nil {
			if err := x.pending.completeOne(op); err != nil {
				return 0, false, err
			}
			x.metrics.countOperation()
			x.logger.Trace().Log(`operation completed`)
		}
		return 0, true, nil
	}

	if waiting {
		return wait, true, nil
	}
	return 0, false, nil
}

// runOneIdle pops and invokes the front idle callback, unless the backoff
// is in effect (every currently registered idler has reported no work since
// the last reset). Reports whether an idle callback was invoked.
func (x *EventLoop) runOneIdle() bool {
	if x.idlers.Len() == 0 || x.inactive >= x.idlers.Len() {
		return false
	}
	fn := x.idlers.PopFront()
	x.metrics.countIdler()
	x.logger.Trace().Log(`running idle callback`)
	res, panicked := x.invokeIdle(fn)
	if panicked {
		// dropped: the callback is not re-queued, and inactive is untouched
		return true
	}
	switch res {
	case IdleNoWork:
		x.inactive++
		x.idlers.PushBack(fn)
	case IdleDidWork:
		x.inactive = 0
		x.idlers.PushBack(fn)
	default:
		// IdleRemove, or anything unrecognized: drop permanently
	}
	return true
}

// invokeIdle calls fn with panic recovery; recovered panics are logged and
// reported so the caller can drop the callback.
func (x *EventLoop) invokeIdle(fn func() IdleResult) (res IdleResult, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			x.logger.Err().Any(`panic`, r).Log(`idle callback panicked`)
		}
	}()
	res = fn()
	return
}

// RunOne performs one unit of work, or sleeps until the earliest timed
// callback is due. Reports whether anything happened; a sleep counts, so a
// false return means the loop was fully drained.
func (x *EventLoop) RunOne(ctx context.Context) (bool, error) {
	wait, ok, err := x.Step(ctx)
	if err != nil || !ok {
		return false, err
	}
	if wait > 0 {
		x.metrics.countSleep(wait)
		x.logger.Trace().Dur(`wait`, wait).Log(`sleeping until next timed callback`)
		if err := x.clock.Sleep(ctx, wait); err != nil {
			return false, err
		}
	}
	return true, nil
}

// RunUntilIdle resets the idle backoff and repeatedly performs work (and
// sleeps) until nothing remains: no immediate callbacks, no timed events,
// no pending operations, and no idle callback willing to run. Idle
// callbacks that merely backed off remain registered for the next drain.
func (x *EventLoop) RunUntilIdle(ctx context.Context) error {
	if x.stepping {
		return ErrReentrantStep
	}
	x.inactive = 0
	for {
		ok, err := x.RunOne(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

// Clear removes all pending work without running any of it, resetting the
// loop to its initial empty state. Dropped counts are logged at debug
// level. Typically used when tearing down the owning context; see
// [NewContext].
func (x *EventLoop) Clear() {
	immediates, idlers, timers, operations :=
		x.immediate.Len(), x.idlers.Len(), x.timers.Len(), x.pending.Len()
	if immediates == 0 && idlers == 0 && timers == 0 && operations == 0 {
		return
	}
	x.logger.Debug().
		Int(`immediate`, immediates).
		Int(`idle`, idlers).
		Int(`timed`, timers).
		Int(`operations`, operations).
		Log(`clearing pending work`)
	x.metrics.countClear()
	x.immediate = newRingBuffer[func()](initialQueueCapacity)
	x.idlers = newRingBuffer[func() IdleResult](initialQueueCapacity)
	x.timers = newTimerQueue()
	x.pending = newPendingOps()
	x.inactive = 0
}

// Metrics returns a snapshot of scheduling statistics. It reports the zero
// value unless collection was enabled via [WithMetrics].
func (x *EventLoop) Metrics() Metrics {
	return x.metrics.snapshot()
}
