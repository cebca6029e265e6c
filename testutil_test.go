package taskloop

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeClock is a manually advanced Clock. Sleep does not block: it records
// the requested duration and advances the clock by it, so drains involving
// future deadlines complete instantly and deterministically.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (x *fakeClock) Now() time.Time { return x.now }

func (x *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	if d > 0 {
		x.sleeps = append(x.sleeps, d)
		x.now = x.now.Add(d)
	}
	return nil
}

// advance moves the clock forward without recording a sleep.
func (x *fakeClock) advance(d time.Duration) {
	x.now = x.now.Add(d)
}

// fakeOp is a scripted Operation with a settable state.
type fakeOp struct {
	name  string
	state OperationState
}

func (x *fakeOp) State() OperationState { return x.state }

func (x *fakeOp) String() string { return x.name }

// fakeComposite is a scripted CompositeOperation. Its aggregate state is
// independent of its sub-operations, as with a real grouped operation whose
// subsystem decides when the group counts as finishing.
type fakeComposite struct {
	fakeOp
	subs []Operation
}

func (x *fakeComposite) Operations() []Operation { return x.subs }

// fakeWaiter returns scripted results in order; once the script is
// exhausted it behaves like a non-blocking poll, returning any operation
// already in StateFinishing, and errs if there is none (so a broken test
// fails instead of spinning).
type fakeWaiter struct {
	results []waitResult
	calls   int
}

type waitResult struct {
	op  Operation
	err error
}

func (x *fakeWaiter) WaitAny(_ context.Context, ops []Operation) (Operation, error) {
	x.calls++
	if len(x.results) != 0 {
		r := x.results[0]
		x.results = x.results[1:]
		return r.op, r.err
	}
	for _, op := range ops {
		if op.State() == StateFinishing {
			return op, nil
		}
	}
	return nil, errors.New(`fakeWaiter: nothing finishing and no scripted result`)
}

func newTestLoop(t *testing.T, opts ...LoopOption) (*EventLoop, *fakeClock, *fakeWaiter) {
	t.Helper()
	clock := newFakeClock()
	waiter := &fakeWaiter{}
	loop, err := New(append([]LoopOption{WithClock(clock), WithWaiter(waiter)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return loop, clock, waiter
}
