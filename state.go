package taskloop

// OperationState is the observable dispatch state of an asynchronous
// operation, as reported by [Operation.State].
//
// The loop only ever inspects this value at two points: when a completion
// callback is registered (the operation must already have been dispatched),
// and, for composite operations, when deciding whether the aggregate has
// finished. All state transitions happen inside the external operation
// subsystem; the loop treats the value as read-only.
type OperationState uint8

const (
	// StateNotDispatched indicates the operation has been created but not
	// yet sent. Completion callbacks cannot be registered in this state.
	StateNotDispatched OperationState = iota
	// StateRunning indicates the operation has been dispatched and is in
	// flight.
	StateRunning
	// StateFinishing indicates the operation's result is available (or is
	// being finalized), i.e. it has completed from the loop's perspective.
	StateFinishing
)

// String returns a human-readable representation of the state.
func (s OperationState) String() string {
	switch s {
	case StateNotDispatched:
		return "NotDispatched"
	case StateRunning:
		return "Running"
	case StateFinishing:
		return "Finishing"
	default:
		return "Unknown"
	}
}

// IdleResult is returned by idle callbacks to steer their own scheduling.
type IdleResult uint8

const (
	// IdleRemove permanently removes the idle callback from the loop.
	IdleRemove IdleResult = iota
	// IdleNoWork re-queues the idle callback and counts one round of
	// inactivity against the idle backoff.
	IdleNoWork
	// IdleDidWork re-queues the idle callback and resets the idle backoff,
	// keeping idle processing eligible on subsequent steps.
	IdleDidWork
)

// String returns a human-readable representation of the result.
func (r IdleResult) String() string {
	switch r {
	case IdleRemove:
		return "Remove"
	case IdleNoWork:
		return "NoWork"
	case IdleDidWork:
		return "DidWork"
	default:
		return "Unknown"
	}
}
