package event

import "iter"

// Drained is a one-shot sequence of events detached from a Queue by Drain
// or DrainAll.
type Drained[E any] struct {
	events []Timed[E]
	pos    int
}

// Next returns the next detached event in time order.
func (d *Drained[E]) Next() (_ Timed[E], ok bool) {
	if d.pos == len(d.events) {
		return Timed[E]{}, false
	}
	ev := d.events[d.pos]
	d.pos++
	return ev, true
}

// Len returns the number of events not yet returned by Next.
func (d *Drained[E]) Len() int { return len(d.events) - d.pos }

// All yields the remaining events. Like Next it consumes them.
func (d *Drained[E]) All() iter.Seq[Timed[E]] {
	return func(yield func(Timed[E]) bool) {
		for d.pos < len(d.events) {
			ev := d.events[d.pos]
			d.pos++
			if !yield(ev) {
				return
			}
		}
	}
}
