package scavenge

import (
	"github.com/gengc-org/gengc/heap"
)

// RefQueue accumulates the weak-reference slots discovered during a pause.
// Discovery filters out null referents, so by the time keep-alive processing
// runs every queued slot holds a non-null reference; the keep-alive
// processors assert exactly that.
//
// Weak-reference stores deliberately bypass the mutator write barrier: a
// weak slot must not keep its card dirty on its own, or the referent would be
// treated as strongly reachable by card scanning. Keep-alive processing is
// what restores the card once the referent is known to stay alive.
type RefQueue struct {
	slots []heap.Address
}

// Discover records slot if its referent is non-null and reports whether it
// was queued. Each slot should be discovered at most once per pause.
func (q *RefQueue) Discover(mem *heap.Memory, slot heap.Address) bool {
	if mem.Load(slot) == heap.NullAddress {
		return false
	}
	q.slots = append(q.slots, slot)
	return true
}

// Len returns the number of discovered slots awaiting processing.
func (q *RefQueue) Len() int {
	return len(q.slots)
}

// Process hands every discovered slot to keep exactly once, empties the
// queue and returns the number of slots processed. The iteration order is
// deterministic per run but otherwise unspecified; invocations are
// independent of each other.
func (q *RefQueue) Process(keep SlotProcessor) int {
	n := len(q.slots)
	for _, slot := range q.slots {
		keep.ProcessSlot(slot)
	}
	q.slots = q.slots[:0]
	return n
}
