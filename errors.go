package taskloop

import (
	"errors"
)

var (
	// ErrOperationNotDispatched is returned when a completion callback is
	// registered for an operation whose state is still [StateNotDispatched].
	ErrOperationNotDispatched = errors.New("taskloop: operation has not been dispatched")

	// ErrUnknownOperation is returned when the waiter reports completion of
	// an operation that has no pending entry. It indicates a contract breach
	// by the [Waiter], and terminates the run that observed it.
	ErrUnknownOperation = errors.New("taskloop: waiter returned an operation that is not pending")

	// ErrNegativeLowerBound is returned when a sorted insert is given a
	// negative lower search bound.
	ErrNegativeLowerBound = errors.New("taskloop: negative lower search bound")

	// ErrReentrantStep is returned when Step, RunOne, or RunUntilIdle is
	// called from within a callback executing on the same loop.
	ErrReentrantStep = errors.New("taskloop: cannot drive the loop from within a callback")
)
