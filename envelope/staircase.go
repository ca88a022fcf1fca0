// Package envelope turns queued timed events into per-frame value streams.
package envelope

import (
	"math"

	"github.com/mrdg/cue/event"
)

// Item is the value of an envelope at one frame.
type Item[T any] struct {
	Value T
	// HasUpdated is set on the frame where a queued step is reached.
	HasUpdated bool
}

// Envelope is implemented by value streams driven by timed events.
type Envelope[T any] interface {
	// InsertEvent schedules a change. A displaced event is returned.
	InsertEvent(ev event.Timed[T]) (event.Timed[T], bool)
	// ForgetPast moves the origin n frames forward.
	ForgetPast(n uint32)
	// Fill writes the values of the next len(dst) frames.
	Fill(dst []T) int
}

// Staircase is a piecewise-constant envelope: it holds its initial value
// until the first queued event, then the payload of each event from its
// frame on.
type Staircase[T any] struct {
	initial T
	events  *event.Queue[T]
}

// NewStaircase returns a staircase envelope that starts at initial and can
// hold capacity pending steps.
func NewStaircase[T any](initial T, capacity int) *Staircase[T] {
	return &Staircase[T]{initial: initial, events: event.NewQueue[T](capacity)}
}

// Initial returns the value that holds before the first pending step.
func (s *Staircase[T]) Initial() T { return s.initial }

// Events returns the pending steps. See event.Queue.Events.
func (s *Staircase[T]) Events() []event.Timed[T] { return s.events.Events() }

// InsertEvent schedules a step. An envelope has one value per frame, so a
// step on a frame that already has one replaces it, and the replaced step
// is returned. Overflow follows event.Queue.Push.
func (s *Staircase[T]) InsertEvent(ev event.Timed[T]) (event.Timed[T], bool) {
	return s.events.Push(ev, event.AlwaysRemoveOld[T])
}

// ForgetPast moves the origin n frames forward. The last step before n
// becomes the initial value and later steps are re-based.
//
// Owners call this once per rendered buffer.
func (s *Staircase[T]) ForgetPast(n uint32) {
	if last, ok := s.events.LastBefore(n); ok {
		s.initial = last.Event
	}
	s.events.ForgetBefore(n)
	s.events.ShiftTime(n)
}

// Iter returns an iterator positioned at frame 0 of the current origin.
// The envelope must not be modified while the iterator is in use.
func (s *Staircase[T]) Iter() *StaircaseIterator[T] {
	it := &StaircaseIterator[T]{}
	it.reset(s)
	return it
}

// Fill writes the values of frames 0 to len(dst)-1 into dst and returns
// the number of frames on which the value stepped.
func (s *Staircase[T]) Fill(dst []T) int {
	var it StaircaseIterator[T]
	it.reset(s)
	updates := 0
	for i := range dst {
		item := it.Next()
		dst[i] = item.Value
		if item.HasUpdated {
			updates++
		}
	}
	return updates
}

// StaircaseIterator yields the values of a Staircase frame by frame. It
// never ends.
type StaircaseIterator[T any] struct {
	events  []event.Timed[T]
	index   int
	ttl     uint64 // frames until the next step
	current T
}

func (it *StaircaseIterator[T]) reset(s *Staircase[T]) {
	*it = StaircaseIterator[T]{
		events:  s.events.Events(),
		ttl:     math.MaxUint64,
		current: s.initial,
	}
	if len(it.events) > 0 {
		it.ttl = uint64(it.events[0].TimeInFrames)
	}
}

// Next returns the value of the next frame.
func (it *StaircaseIterator[T]) Next() Item[T] {
	updated := false
	for it.ttl == 0 {
		updated = true
		it.current = it.events[it.index].Event
		it.index++
		if it.index < len(it.events) {
			it.ttl = uint64(it.events[it.index].TimeInFrames - it.events[it.index-1].TimeInFrames)
		} else {
			it.ttl = math.MaxUint64
		}
	}
	it.ttl--
	return Item[T]{Value: it.current, HasUpdated: updated}
}
