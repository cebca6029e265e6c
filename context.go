package taskloop

import (
	"context"
	"sync"
	"time"
)

// loopContextKey is the context key for the per-context loop slot.
type loopContextKey struct{}

// loopSlot is the mutable holder installed by NewContext. The slot, not the
// loop, lives in the context, so the loop can be created lazily on first
// use, torn down by the release function, and lazily re-created afterwards,
// all without deriving a new context.
type loopSlot struct {
	mu   sync.Mutex
	loop *EventLoop
	opts []LoopOption
}

func (x *loopSlot) get() *EventLoop {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.loop == nil {
		loop, err := New(x.opts...)
		if err != nil {
			// options were validated by NewContext
			panic(err)
		}
		x.loop = loop
	}
	return x.loop
}

func (x *loopSlot) release() {
	x.mu.Lock()
	loop := x.loop
	x.loop = nil
	x.mu.Unlock()
	if loop != nil {
		loop.Clear()
	}
}

// NewContext returns a child of parent carrying a lazily initialized
// [EventLoop] slot, and a release function that tears the slot down,
// clearing any work the loop still holds. Call the release function when
// the logical task or request the context represents ends; a subsequent
// [FromContext] on the same context lazily creates a fresh loop.
//
// The options are applied when the loop is first created; they are
// validated eagerly, and NewContext panics if any of them is invalid.
//
// Each context carries at most one loop, and a loop must never be shared
// across concurrently executing contexts: the loop itself is
// single-threaded by design.
func NewContext(parent context.Context, opts ...LoopOption) (context.Context, func()) {
	if _, err := resolveLoopOptions(opts); err != nil {
		panic(err)
	}
	slot := &loopSlot{opts: opts}
	return context.WithValue(parent, loopContextKey{}, slot), slot.release
}

// FromContext returns the context's [EventLoop], creating it on first use.
// It returns nil if ctx does not carry a slot installed by [NewContext].
func FromContext(ctx context.Context) *EventLoop {
	slot, _ := ctx.Value(loopContextKey{}).(*loopSlot)
	if slot == nil {
		return nil
	}
	return slot.get()
}

func mustFromContext(ctx context.Context) *EventLoop {
	loop := FromContext(ctx)
	if loop == nil {
		panic(`taskloop: context does not carry an event loop: use NewContext`)
	}
	return loop
}

// Submit calls [EventLoop.Submit] on the context's loop. It panics if ctx
// does not carry a loop slot; see [NewContext].
func Submit(ctx context.Context, fn func()) {
	mustFromContext(ctx).Submit(fn)
}

// QueueCall calls [EventLoop.QueueCall] on the context's loop. It panics if
// ctx does not carry a loop slot; see [NewContext].
func QueueCall(ctx context.Context, delay time.Duration, fn func()) {
	mustFromContext(ctx).QueueCall(delay, fn)
}

// AddIdle calls [EventLoop.AddIdle] on the context's loop. It panics if ctx
// does not carry a loop slot; see [NewContext].
func AddIdle(ctx context.Context, fn func() IdleResult) {
	mustFromContext(ctx).AddIdle(fn)
}

// QueueOperation calls [EventLoop.QueueOperation] on the context's loop. It
// panics if ctx does not carry a loop slot; see [NewContext].
func QueueOperation(ctx context.Context, op Operation, fn func()) error {
	return mustFromContext(ctx).QueueOperation(op, fn)
}

// Step calls [EventLoop.Step] on the context's loop. It panics if ctx does
// not carry a loop slot; see [NewContext].
func Step(ctx context.Context) (time.Duration, bool, error) {
	return mustFromContext(ctx).Step(ctx)
}

// RunOne calls [EventLoop.RunOne] on the context's loop. It panics if ctx
// does not carry a loop slot; see [NewContext].
func RunOne(ctx context.Context) (bool, error) {
	return mustFromContext(ctx).RunOne(ctx)
}

// RunUntilIdle calls [EventLoop.RunUntilIdle] on the context's loop. It
// panics if ctx does not carry a loop slot; see [NewContext].
func RunUntilIdle(ctx context.Context) error {
	return mustFromContext(ctx).RunUntilIdle(ctx)
}
