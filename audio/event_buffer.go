package audio

import (
	"sync/atomic"

	"github.com/mrdg/cue/event"
)

// eventBuffer is a lock-free spsc queue of timed events. It hands events
// from the code that schedules them to the render callback that queues them.
type eventBuffer[E any] struct {
	events      []event.Timed[E]
	read, write atomic.Uint32
}

func newEventBuffer[E any](size int) *eventBuffer[E] {
	if size <= 0 || size&(size-1) != 0 {
		panic("event buffer size must be a power of 2")
	}
	return &eventBuffer[E]{events: make([]event.Timed[E], size)}
}

// push adds ev unless the buffer is full. It never waits for the reader:
// the scheduling code can run on the render goroutine itself.
func (b *eventBuffer[E]) push(ev event.Timed[E]) bool {
	write := b.write.Load()
	if write-b.read.Load() == uint32(len(b.events)) {
		return false
	}
	b.events[write%uint32(len(b.events))] = ev
	b.write.Store(write + 1)
	return true
}

// iter calls f for buffered events in push order, stopping before the first
// event at or after untilFrame. An untilFrame of -1 takes everything.
func (b *eventBuffer[E]) iter(untilFrame int, f func(event.Timed[E])) {
	read := b.read.Load()
	write := b.write.Load()
	for read != write {
		ev := b.events[read%uint32(len(b.events))]
		if untilFrame != -1 && int(ev.TimeInFrames) >= untilFrame {
			break
		}
		f(ev)
		read++
	}
	b.read.Store(read)
}
