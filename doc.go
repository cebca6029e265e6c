// Package taskloop provides a per-context cooperative scheduler that
// multiplexes four kinds of pending work (immediate callbacks, timed
// callbacks, low-priority idle callbacks, and completions of outstanding
// asynchronous operations) into a single deterministic execution order on
// one goroutine.
//
// # Architecture
//
// The scheduler is built around an [EventLoop] owning four structures: a
// FIFO of immediate callbacks, a FIFO of idle callbacks with
// starvation-avoidance bookkeeping, a deadline-sorted queue of timed
// callbacks (FIFO among equal deadlines), and a table mapping in-flight
// [Operation] handles to completion callbacks. Each [EventLoop.Step]
// performs at most one unit of work, in strict priority order:
//
//  1. Immediate callbacks ([EventLoop.Submit]), FIFO
//  2. Idle callbacks ([EventLoop.AddIdle]), unless backed off
//  3. Timed callbacks that are due ([EventLoop.QueueCall])
//  4. Pending-operation completions ([EventLoop.QueueOperation]),
//     blocking on the configured [Waiter]
//
// When only a not-yet-due timed callback remains, Step reports the
// remaining wait; [EventLoop.RunOne] sleeps it on the configured [Clock],
// and [EventLoop.RunUntilIdle] repeats until nothing remains.
//
// Idle callbacks are recurring: each invocation returns an [IdleResult]
// steering its own scheduling, and once every registered idler has
// reported no work since the last reset, idle processing yields to the
// other sources. The backoff is a soft throttle, not removal: any other
// unit of work resets it.
//
// # Execution Model
//
// The loop is single-threaded, cooperative, and non-preemptive: exactly
// one callback executes at a time and runs to completion, and the loop
// only yields while sleeping for a timer or blocking in the waiter. An
// [EventLoop] is NOT safe for concurrent use; hosts wanting parallelism
// run independent loops, one per logical task or request context, usually
// through [NewContext] and [FromContext]. Callbacks may register further
// work on their own loop while executing, but must not drive it
// re-entrantly ([ErrReentrantStep]).
//
// Cancellation of scheduled work is deliberately not a first-class
// operation: callers drop their references, and anything never invoked is
// discarded wholesale by [EventLoop.Clear] (or the release function of
// [NewContext]) when the owning context ends.
//
// # Usage
//
//	loop, err := taskloop.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	loop.Submit(func() { fmt.Println("first") })
//	loop.QueueCall(10*time.Millisecond, func() { fmt.Println("later") })
//
//	if err := loop.RunUntilIdle(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// # External Capabilities
//
// The loop consumes two capabilities from its environment, both
// configurable via options: a [Clock] supplying time and a blocking sleep
// ([WithClock]), and a [Waiter] supplying the blocking multi-wait for
// operation completions ([WithWaiter], defaulting to a [PollingWaiter]).
// Operations themselves are created, dispatched, and transitioned entirely
// outside the loop; the loop observes them through [Operation.State] and,
// for composites, [CompositeOperation.Operations].
package taskloop
