package taskloop

import (
	"fmt"

	"golang.org/x/exp/maps"
)

// pendingOps tracks in-flight operations and their completion callbacks,
// keyed by the operation handle itself. It is mutated only from within the
// loop's step sequence, so it carries no synchronization of its own.
type pendingOps struct {
	m map[Operation]func()
}

func newPendingOps() *pendingOps {
	return &pendingOps{m: make(map[Operation]func())}
}

func (x *pendingOps) Len() int { return len(x.m) }

// register adds a completion callback for op. A nil op is a no-op. The
// operation must already have been dispatched, i.e. be in [StateRunning] or
// [StateFinishing], otherwise [ErrOperationNotDispatched] is returned.
//
// A [CompositeOperation] is registered under each of its sub-operations.
// When there is more than one, the callback is wrapped so that it fires
// exactly once, on whichever sub-operation completion first observes the
// aggregate in [StateFinishing].
//
// A nil callback is permitted: completion is still tracked and consumed,
// nothing is invoked.
func (x *pendingOps) register(op Operation, fn func()) error {
	if op == nil {
		return nil
	}
	if s := op.State(); s != StateRunning && s != StateFinishing {
		return fmt.Errorf(`%w (state %v)`, ErrOperationNotDispatched, s)
	}
	if comp, ok := op.(CompositeOperation); ok {
		subs := comp.Operations()
		if len(subs) > 1 {
			fn = onceGuard(comp, fn)
		}
		for _, sub := range subs {
			x.m[sub] = fn
		}
		return nil
	}
	x.m[op] = fn
	return nil
}

// snapshot returns the current pending handle set, for handing to a Waiter.
func (x *pendingOps) snapshot() []Operation {
	return maps.Keys(x.m)
}

// completeOne consumes op's entry and invokes its callback, if any.
// An op with no entry is a waiter contract breach: [ErrUnknownOperation].
func (x *pendingOps) completeOne(op Operation) error {
	fn, ok := x.m[op]
	if !ok {
		return fmt.Errorf(`%w: %v`, ErrUnknownOperation, op)
	}
	delete(x.m, op)
	if fn != nil {
		fn()
	}
	return nil
}

// onceGuard wraps a composite's callback so that, no matter how many
// sub-operation completions it is registered under, it fires at most once,
// and only once the aggregate has reached [StateFinishing]. The one-shot
// flag lives in the closure, shared by every sub-operation entry.
func onceGuard(comp CompositeOperation, fn func()) func() {
	var done bool
	return func() {
		if comp.State() == StateFinishing && !done {
			done = true
			if fn != nil {
				fn()
			}
		}
	}
}
