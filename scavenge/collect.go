package scavenge

import (
	"github.com/gengc-org/gengc/heap"
	"github.com/gengc-org/gengc/remset"
	"github.com/gengc-org/gengc/trace"
)

// Options configures one minor collection.
type Options struct {
	// TenureThreshold is the survival count at which young objects are
	// promoted to the old generation instead of copied to to-space.
	TenureThreshold uint8

	// GeneralKeepAlive forces the general keep-alive processor even when the
	// fast path's precondition holds. Diagnostic knob: the two processors
	// must produce identical outcomes, so enabling it only costs speed.
	GeneralKeepAlive bool

	// Log receives collection events. Nil disables tracing.
	Log *trace.Logger
}

// Collect runs one minor collection to completion: evacuate everything
// reachable from the root slots and from dirty old-generation cards, then
// run keep-alive processing over the discovered weak-reference slots, and
// finally flip the semispaces. The caller must guarantee a stop-the-world
// pause: no mutator may touch the heap or the card table while this runs.
func Collect(h *heap.Heap, ct *remset.CardTable, roots []heap.Address, weak *RefQueue, opts Options) Stats {
	s := NewScavenger(h, opts.TenureThreshold)
	opts.Log.Debugf("minor collection: %d roots, %d dirty cards, %d weak slots",
		len(roots), ct.DirtyCount(), weak.Len())

	for _, slot := range roots {
		s.ProcessSlot(slot)
	}

	// Old-to-young pointers recorded by earlier barriers. Each dirty card is
	// cleared before its rescan; slots that still point young after
	// evacuation re-dirty their card for the next collection.
	scanned := ct.ScanDirty(func(r heap.Range) {
		h.WalkOld(func(obj heap.Address) {
			size := int(h.SizeOf(obj))
			for i := 0; i < size; i++ {
				slot := h.FieldSlot(obj, i)
				if !r.Contains(slot) {
					continue
				}
				s.ProcessSlot(slot)
				ct.DirtyCardFor(slot, h.Mem.Load(slot))
			}
		})
	})
	s.stats.CardsScanned = scanned
	s.Drain(ct)

	// Weak references discovered during the pause. The processor variant is
	// fixed here, once per collection; keep-alive may evacuate referents, so
	// drain again afterwards.
	var keep SlotProcessor
	if opts.GeneralKeepAlive {
		keep = NewKeepAlive(h, ct, s)
	} else {
		keep = KeepAliveFor(h, ct, s)
	}
	s.stats.WeakSlots = weak.Process(keep)
	s.Drain(ct)

	h.SwapSemispaces()

	st := s.Stats()
	opts.Log.Eventf("minor collection: copied %d (%d B), promoted %d (%d B), rescanned %d cards, %d weak slots",
		st.Copied, st.CopiedBytes, st.Promoted, st.PromotedBytes, st.CardsScanned, st.WeakSlots)
	return st
}
