package scavenge

import (
	"github.com/gengc-org/gengc/heap"
)

// Weak-reference slots are written during reference discovery, after
// ordinary root scanning has finished, so no other barrier covers them. Once
// the inner processor has kept a referent alive (possibly relocating it and
// rewriting the slot), the slot may be a fresh old-to-young pointer and its
// card must be dirtied, or a future minor collection would never revisit it.
//
// Two variants carry that responsibility. KeepAlive asks the heap whether
// the slot lies in tracked memory; FastKeepAlive additionally pre-filters
// referents with a single compare against the young-generation boundary,
// which is valid only when the collected generation is the youngest in the
// heap. The collection driver picks one variant per collection, never per
// slot. For every input satisfying the fast path's precondition the two must
// leave identical slot values and identical card state.

// KeepAlive processes one discovered weak-reference slot: it delegates
// reachability to the inner processor, then records the possibly-updated
// slot in the remembered set if the slot lies in tracked memory. The card
// table itself ignores referents that are not young, so no referent check is
// needed here.
type KeepAlive struct {
	inner SlotProcessor
	rs    CardMarker
	heap  *heap.Heap
}

// NewKeepAlive builds the general keep-alive processor. All three
// collaborators are fixed for the duration of the collection.
func NewKeepAlive(h *heap.Heap, rs CardMarker, inner SlotProcessor) *KeepAlive {
	return &KeepAlive{inner: inner, rs: rs, heap: h}
}

// ProcessSlot implements the per-slot keep-alive contract. The side effects
// are exactly the slot's stored value and the card state for the slot.
func (k *KeepAlive) ProcessSlot(p heap.Address) {
	if heap.Asserts {
		assertWeakSlot(k.heap, p)
	}

	k.inner.ProcessSlot(p)

	// Re-read after delegation: the referent may have just moved. Slots in
	// the young generation have no card worth dirtying, since young cards
	// are never scanned by a minor collection.
	obj := k.heap.Mem.Load(p)
	if k.heap.IsTracked(p) {
		k.rs.DirtyCardFor(p, obj)
	}
}

// FastKeepAlive is KeepAlive specialized for a collection of the youngest
// generation. With every young address below one fixed boundary, "does the
// updated referent still point young" collapses to a compare against a
// cached address, skipping the barrier call for referents that were promoted
// out of the young generation. Slot processing is the dominant-frequency
// operation of reference processing, which is what makes the indirection
// worth removing.
type FastKeepAlive struct {
	inner    SlotProcessor
	rs       CardMarker
	heap     *heap.Heap
	boundary heap.Address
}

// NewFastKeepAlive builds the fast-path processor, capturing the young
// boundary for this collection. Callers must select it only when the
// collected generation is the youngest in the heap, and must build a fresh
// one every collection rather than reusing a cached boundary.
func NewFastKeepAlive(h *heap.Heap, rs CardMarker, inner SlotProcessor) *FastKeepAlive {
	if heap.Asserts && !h.CollectingYoungest() {
		heap.Abort("scavenge: fast keep-alive selected for a non-youngest collection")
	}
	return &FastKeepAlive{inner: inner, rs: rs, heap: h, boundary: h.YoungBoundary()}
}

// ProcessSlot is equivalent to KeepAlive.ProcessSlot whenever the collected
// generation is the youngest.
func (k *FastKeepAlive) ProcessSlot(p heap.Address) {
	if heap.Asserts {
		assertWeakSlot(k.heap, p)
	}

	k.inner.ProcessSlot(p)

	obj := k.heap.Mem.Load(p)
	if obj < k.boundary && k.heap.IsTracked(p) {
		k.rs.DirtyCardFor(p, obj)
	}
}

// KeepAliveFor returns the keep-alive processor for this collection: the
// fast path when its precondition holds, the general processor otherwise.
// The choice is made once here, not per slot.
func KeepAliveFor(h *heap.Heap, rs CardMarker, inner SlotProcessor) SlotProcessor {
	if h.CollectingYoungest() {
		return NewFastKeepAlive(h, rs, inner)
	}
	return NewKeepAlive(h, rs, inner)
}

// assertWeakSlot validates that p holds a well-formed, non-null reference.
// Null weak references are filtered out during discovery, so a null here
// means the discovery contract was broken upstream.
func assertWeakSlot(h *heap.Heap, p heap.Address) {
	obj := h.Mem.Load(p)
	if obj == heap.NullAddress {
		heap.Abort("scavenge: null referent in weak-reference slot")
	}
	if !obj.Aligned() || !h.Mem.Contains(obj) {
		heap.Abort("scavenge: malformed referent in weak-reference slot")
	}
}
