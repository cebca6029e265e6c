package taskloop_test

import (
	"context"
	"fmt"
	"time"

	taskloop "github.com/joeycumines/go-taskloop"
)

// Example_basicUsage demonstrates the core scheduling contract: immediate
// callbacks run before timed callbacks, even ones that are already due.
func Example_basicUsage() {
	loop, err := taskloop.New()
	if err != nil {
		panic(err)
	}

	loop.QueueCall(0, func() { fmt.Println("timed, already due") })
	loop.Submit(func() { fmt.Println("immediate") })

	if err := loop.RunUntilIdle(context.Background()); err != nil {
		panic(err)
	}

	// Output:
	// immediate
	// timed, already due
}

// Example_timers demonstrates deadline ordering: timed callbacks run by
// deadline, not by the order they were queued.
func Example_timers() {
	loop, err := taskloop.New()
	if err != nil {
		panic(err)
	}

	loop.QueueCall(20*time.Millisecond, func() { fmt.Println("second") })
	loop.QueueCall(10*time.Millisecond, func() { fmt.Println("first") })

	if err := loop.RunUntilIdle(context.Background()); err != nil {
		panic(err)
	}

	// Output:
	// first
	// second
}

// Example_idleCallbacks demonstrates background batch processing: an idle
// callback consumes one item per invocation until its queue is empty, then
// removes itself.
func Example_idleCallbacks() {
	loop, err := taskloop.New()
	if err != nil {
		panic(err)
	}

	queue := []string{"a", "b", "c"}
	loop.AddIdle(func() taskloop.IdleResult {
		if len(queue) == 0 {
			return taskloop.IdleRemove
		}
		fmt.Println("processed", queue[0])
		queue = queue[1:]
		return taskloop.IdleDidWork
	})

	if err := loop.RunUntilIdle(context.Background()); err != nil {
		panic(err)
	}

	// Output:
	// processed a
	// processed b
	// processed c
}

// demoOp is a minimal Operation: some external subsystem owns its state.
type demoOp struct {
	state taskloop.OperationState
}

func (x *demoOp) State() taskloop.OperationState { return x.state }

// Example_operations demonstrates waiting on an asynchronous operation. The
// default polling waiter observes the finishing state and the loop consumes
// the completion.
func Example_operations() {
	loop, err := taskloop.New()
	if err != nil {
		panic(err)
	}

	op := &demoOp{state: taskloop.StateRunning}
	if err := loop.QueueOperation(op, func() {
		fmt.Println("operation completed")
	}); err != nil {
		panic(err)
	}

	// the owning subsystem finishes the operation
	op.state = taskloop.StateFinishing

	if err := loop.RunUntilIdle(context.Background()); err != nil {
		panic(err)
	}

	// Output:
	// operation completed
}

// Example_context demonstrates the context-scoped pattern: each logical task
// owns its own lazily created loop, torn down by the release function.
func Example_context() {
	ctx, release := taskloop.NewContext(context.Background())
	defer release()

	taskloop.Submit(ctx, func() { fmt.Println("ran on the context's loop") })
	taskloop.QueueCall(ctx, 0, func() { fmt.Println("and then this") })

	if err := taskloop.RunUntilIdle(ctx); err != nil {
		panic(err)
	}

	// Output:
	// ran on the context's loop
	// and then this
}
