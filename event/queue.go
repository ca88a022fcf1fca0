package event

import "fmt"

// Queue is a bounded sequence of timed events, sorted ascending by time.
//
// All storage is allocated by NewQueue; Push, Drain, ForgetBefore and
// ShiftTime never grow it. Removing an event zeroes its slot, so payloads
// that hold references are released to the garbage collector. Callers on
// the real-time path should prefer plain value payloads.
//
// A Queue is owned by one render context and is not safe for concurrent use.
type Queue[E any] struct {
	events  []Timed[E]
	scratch []Timed[E]
	drained Drained[E]
}

// NewQueue returns an empty queue that holds at most capacity events.
// It panics if capacity is not positive.
func NewQueue[E any](capacity int) *Queue[E] {
	if capacity <= 0 {
		panic(fmt.Sprintf("event: queue capacity must be positive, got %d", capacity))
	}
	return &Queue[E]{
		events:  make([]Timed[E], 0, capacity),
		scratch: make([]Timed[E], capacity),
	}
}

func (q *Queue[E]) Len() int   { return len(q.events) }
func (q *Queue[E]) Cap() int   { return cap(q.events) }
func (q *Queue[E]) Full() bool { return len(q.events) == cap(q.events) }

// At returns the i-th pending event in time order.
func (q *Queue[E]) At(i int) Timed[E] { return q.events[i] }

// Events returns the pending events in time order. The slice aliases the
// queue's storage: it must not be modified and is only valid until the next
// mutating call.
func (q *Queue[E]) Events() []Timed[E] { return q.events }

// Push queues ev, resolving same-frame collisions with decide.
//
// It reports ok == false when ev was stored and nothing was removed.
// Otherwise the returned event is exactly one of:
//   - the earliest pending event, evicted because the queue was full and ev
//     is strictly later than it;
//   - ev itself, rejected because the queue was full and ev is not later
//     than the earliest pending event, or because decide returned IgnoreNew;
//   - the old event whose payload was replaced by ev (RemoveOld), carrying
//     the shared time.
func (q *Queue[E]) Push(ev Timed[E], decide CollisionDecider[E]) (_ Timed[E], ok bool) {
	// The earliest event is assumed to describe transient state while the
	// latest may persist indefinitely, so under overflow the front goes.
	if q.Full() && ev.TimeInFrames <= q.events[0].TimeInFrames {
		return ev, true
	}

	i := 0
scan:
	for ; i < len(q.events); i++ {
		old := &q.events[i]
		switch {
		case old.TimeInFrames < ev.TimeInFrames:
			continue
		case old.TimeInFrames > ev.TimeInFrames:
			break scan
		}
		switch h := decide(&old.Event, &ev.Event); h {
		case InsertNewBeforeOld:
			break scan
		case InsertNewAfterOld:
		case IgnoreNew:
			return ev, true
		case RemoveOld:
			old.Event, ev.Event = ev.Event, old.Event
			return ev, true
		default:
			panic("event: collision decider returned " + h.String())
		}
	}

	var evicted Timed[E]
	if q.Full() {
		// ev is strictly later than the front, so i > 0.
		evicted = q.events[0]
		q.removePrefix(1)
		i--
		ok = true
	}
	q.events = q.events[:len(q.events)+1]
	copy(q.events[i+1:], q.events[i:])
	q.events[i] = ev
	return evicted, ok
}

// ForgetBefore removes every event that happens before, but not on,
// threshold.
func (q *Queue[E]) ForgetBefore(threshold uint32) {
	q.removePrefix(q.countBefore(threshold))
}

// Clear removes all events.
func (q *Queue[E]) Clear() {
	q.removePrefix(len(q.events))
}

// ShiftTime moves the time origin forward by origin frames.
//
// All events before origin must have been drained or forgotten first;
// unless built with the release tag, ShiftTime panics when one is left.
func (q *Queue[E]) ShiftTime(origin uint32) {
	if assertions && len(q.events) > 0 && q.events[0].TimeInFrames < origin {
		panic(fmt.Sprintf("event: shifting time to %d past pending event at %d", origin, q.events[0].TimeInFrames))
	}
	for i := range q.events {
		q.events[i].TimeInFrames -= origin
	}
}

// First returns the earliest pending event.
func (q *Queue[E]) First() (_ Timed[E], ok bool) {
	if len(q.events) == 0 {
		return Timed[E]{}, false
	}
	return q.events[0], true
}

// LastBefore returns the latest event that happens before, but not on, t.
func (q *Queue[E]) LastBefore(t uint32) (_ Timed[E], ok bool) {
	for i := len(q.events) - 1; i >= 0; i-- {
		if q.events[i].TimeInFrames < t {
			return q.events[i], true
		}
	}
	return Timed[E]{}, false
}

// Drain removes every event before, but not on, t and returns them in time
// order. The events are detached from the queue before Drain returns, so
// the range is removed however much of the result is read.
//
// The result lives in storage owned by the queue and is only valid until
// the next call to Drain or DrainAll.
func (q *Queue[E]) Drain(t uint32) *Drained[E] {
	return q.detach(q.countBefore(t))
}

// DrainAll removes and returns every pending event. See Drain.
func (q *Queue[E]) DrainAll() *Drained[E] {
	return q.detach(len(q.events))
}

func (q *Queue[E]) detach(n int) *Drained[E] {
	clear(q.scratch[:len(q.drained.events)])
	copy(q.scratch, q.events[:n])
	q.removePrefix(n)
	q.drained = Drained[E]{events: q.scratch[:n]}
	return &q.drained
}

func (q *Queue[E]) countBefore(t uint32) int {
	n := 0
	for n < len(q.events) && q.events[n].TimeInFrames < t {
		n++
	}
	return n
}

func (q *Queue[E]) removePrefix(n int) {
	if n == 0 {
		return
	}
	m := copy(q.events, q.events[n:])
	clear(q.events[m:])
	q.events = q.events[:m]
}
