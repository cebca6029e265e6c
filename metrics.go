package taskloop

import (
	"sync/atomic"
	"time"
)

// Metrics is a point-in-time snapshot of scheduling statistics, returned by
// [EventLoop.Metrics]. Collection is disabled unless enabled via
// [WithMetrics]; a disabled loop always reports the zero value.
type Metrics struct {
	// Steps counts Step invocations, including those that found no work.
	Steps uint64
	// Immediates counts executed immediate callbacks.
	Immediates uint64
	// Idlers counts executed idle callbacks, including ones that panicked.
	Idlers uint64
	// Timers counts executed timed callbacks.
	Timers uint64
	// Operations counts operation completions consumed from the waiter.
	Operations uint64
	// Sleeps counts the sleeps performed by RunOne, with Slept their total
	// requested duration.
	Sleeps uint64
	Slept  time.Duration
	// Clears counts Clear calls that actually discarded work.
	Clears uint64
}

// metrics is the loop's collector. The loop itself is single-threaded, but
// snapshots may be taken from other goroutines, hence the atomics. A nil
// *metrics (collection disabled) is valid and counts nothing.
type metrics struct {
	steps      atomic.Uint64
	immediates atomic.Uint64
	idlers     atomic.Uint64
	timers     atomic.Uint64
	operations atomic.Uint64
	sleeps     atomic.Uint64
	slept      atomic.Int64
	clears     atomic.Uint64
}

func (x *metrics) countStep() {
	if x != nil {
		x.steps.Add(1)
	}
}

func (x *metrics) countImmediate() {
	if x != nil {
		x.immediates.Add(1)
	}
}

func (x *metrics) countIdler() {
	if x != nil {
		x.idlers.Add(1)
	}
}

func (x *metrics) countTimer() {
	if x != nil {
		x.timers.Add(1)
	}
}

func (x *metrics) countOperation() {
	if x != nil {
		x.operations.Add(1)
	}
}

func (x *metrics) countSleep(d time.Duration) {
	if x != nil {
		x.sleeps.Add(1)
		x.slept.Add(int64(d))
	}
}

func (x *metrics) countClear() {
	if x != nil {
		x.clears.Add(1)
	}
}

func (x *metrics) snapshot() (m Metrics) {
	if x == nil {
		return
	}
	m.Steps = x.steps.Load()
	m.Immediates = x.immediates.Load()
	m.Idlers = x.idlers.Load()
	m.Timers = x.timers.Load()
	m.Operations = x.operations.Load()
	m.Sleeps = x.sleeps.Load()
	m.Slept = time.Duration(x.slept.Load())
	m.Clears = x.clears.Load()
	return
}
