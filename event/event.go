// Package event defines timed events and a bounded, time-ordered queue for
// scheduling them against a sample-accurate render loop.
//
// Nothing in this package allocates after construction, blocks, or logs.
// Overflow and collisions are reported to the caller as return values.
package event

// Timed adds a frame offset to an event.
//
// TimeInFrames is relative to the start of the current audio buffer, or to
// whatever origin the owner of a Queue last shifted to.
type Timed[E any] struct {
	TimeInFrames uint32
	Event        E
}

func NewTimed[E any](timeInFrames uint32, ev E) Timed[E] {
	return Timed[E]{TimeInFrames: timeInFrames, Event: ev}
}

// Indexed adds an index to an event, for instance the voice or channel it
// is addressed to.
type Indexed[E any] struct {
	Index int
	Event E
}

func NewIndexed[E any](index int, ev E) Indexed[E] {
	return Indexed[E]{Index: index, Event: ev}
}

// Handler is implemented by anything that reacts to events of type E.
type Handler[E any] interface {
	HandleEvent(ev E)
}

// HandlerFunc adapts an ordinary function to a Handler.
type HandlerFunc[E any] func(ev E)

func (f HandlerFunc[E]) HandleEvent(ev E) { f(ev) }

// Map returns a Handler that converts each event with f before passing it
// on to h.
func Map[E, F any](h Handler[E], f func(F) E) Handler[F] {
	return HandlerFunc[F](func(ev F) { h.HandleEvent(f(ev)) })
}
