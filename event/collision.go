package event

// CollisionHandling is the outcome of a collision: two events queued for
// the same frame.
type CollisionHandling int

const (
	// InsertNewBeforeOld queues the new event in front of the old one.
	InsertNewBeforeOld CollisionHandling = iota
	// InsertNewAfterOld skips past the old event. The new event may end up
	// behind several old events sharing the same frame.
	InsertNewAfterOld
	// IgnoreNew rejects the new event and leaves the queue untouched.
	IgnoreNew
	// RemoveOld replaces the payload of the old event in place.
	RemoveOld
)

func (h CollisionHandling) String() string {
	switch h {
	case InsertNewBeforeOld:
		return "insert-new-before-old"
	case InsertNewAfterOld:
		return "insert-new-after-old"
	case IgnoreNew:
		return "ignore-new"
	case RemoveOld:
		return "remove-old"
	}
	return "unknown"
}

// A CollisionDecider chooses what happens when new lands on the same frame
// as old. It is passed per call, so one queue can be used with different
// tie-break rules at different call sites. Deciders must not modify their
// arguments.
type CollisionDecider[E any] func(old, new *E) CollisionHandling

func AlwaysInsertNewBeforeOld[E any](_, _ *E) CollisionHandling { return InsertNewBeforeOld }
func AlwaysInsertNewAfterOld[E any](_, _ *E) CollisionHandling  { return InsertNewAfterOld }
func AlwaysIgnoreNew[E any](_, _ *E) CollisionHandling          { return IgnoreNew }
func AlwaysRemoveOld[E any](_, _ *E) CollisionHandling          { return RemoveOld }

// Always returns a decider that resolves every collision with h.
func Always[E any](h CollisionHandling) CollisionDecider[E] {
	switch h {
	case InsertNewBeforeOld:
		return AlwaysInsertNewBeforeOld[E]
	case InsertNewAfterOld:
		return AlwaysInsertNewAfterOld[E]
	case IgnoreNew:
		return AlwaysIgnoreNew[E]
	case RemoveOld:
		return AlwaysRemoveOld[E]
	}
	panic("event: unknown collision handling " + h.String())
}
