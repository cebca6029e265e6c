package taskloop

import (
	"sort"
	"time"
)

// timedEvent is a single deadline-scheduled callback.
type timedEvent struct {
	when time.Time
	fn   func()
}

// timerQueue keeps timed events sorted ascending by deadline. Events that
// share a deadline retain their insertion order, so draining the queue is
// stable with respect to enqueue order.
type timerQueue struct {
	ring *ringBuffer[timedEvent]
}

func newTimerQueue() *timerQueue {
	return &timerQueue{ring: newRingBuffer[timedEvent](initialQueueCapacity)}
}

func (x *timerQueue) Len() int { return x.ring.Len() }

// insort inserts ev to the right of any existing event with an equal or
// earlier deadline, searching within [lo, hi). A negative hi (or one past
// the end) means the current queue length. Returns [ErrNegativeLowerBound]
// if lo is negative.
func (x *timerQueue) insort(ev timedEvent, lo, hi int) error {
	if lo < 0 {
		return ErrNegativeLowerBound
	}
	if hi < 0 || hi > x.ring.Len() {
		hi = x.ring.Len()
	}
	n := hi - lo
	if n < 0 {
		n = 0
	}
	// rightmost insertion point: the first event strictly later than ev
	i := lo + sort.Search(n, func(i int) bool {
		return x.ring.Get(lo + i).when.After(ev.when)
	})
	x.ring.Insert(i, ev)
	return nil
}

// push inserts ev at its sorted position, after any existing events with
// the same deadline.
func (x *timerQueue) push(ev timedEvent) {
	// a zero lower bound cannot produce an error
	_ = x.insort(ev, 0, -1)
}

// peek returns the earliest event without removing it.
func (x *timerQueue) peek() (timedEvent, bool) {
	if x.ring.Len() == 0 {
		return timedEvent{}, false
	}
	return x.ring.Get(0), true
}

// popFront removes and returns the earliest event. The caller is expected
// to have established that the queue is non-empty (typically via peek).
func (x *timerQueue) popFront() timedEvent {
	return x.ring.PopFront()
}
