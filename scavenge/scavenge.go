// Package scavenge implements the minor collection of a two-generation,
// stop-the-world copying collector: the scavenger that evacuates live young
// objects, the keep-alive processors that maintain the remembered set while
// weak references are kept alive, and the collection driver tying them to
// the card table.
//
// Everything here runs strictly single-threaded inside a pause. No operation
// blocks or yields; an internal inconsistency aborts the pause with
// heap.InvariantViolation.
package scavenge

import (
	"github.com/gengc-org/gengc/heap"
)

// SlotProcessor handles one reference slot at a time. Implementations may
// rewrite the slot's stored value; they must leave the referent reachable for
// the remainder of the pause.
type SlotProcessor interface {
	ProcessSlot(slot heap.Address)
}

// CardMarker is the remembered-set sink keep-alive processing reports to. It
// is satisfied by *remset.CardTable; tests substitute observable fakes.
type CardMarker interface {
	DirtyCardFor(slot, ref heap.Address)
}

// Scavenger is the inner reachability processor of a minor collection. It
// evacuates from-space objects into to-space (or promotes them once their age
// reaches the tenure threshold) and rewrites slots with forwarding addresses.
// Processing a slot twice is harmless, and the scavenger never touches the
// remembered set itself: the write-barrier half of slot processing belongs to
// the keep-alive processors and to Drain.
type Scavenger struct {
	heap   *heap.Heap
	tenure uint8

	// work holds copied objects whose fields have not been scanned yet.
	work []heap.Address

	stats Stats
}

// Stats summarizes one minor collection.
type Stats struct {
	Copied        int     // objects evacuated to to-space
	Promoted      int     // objects promoted to the old generation
	CopiedBytes   uintptr // bytes evacuated, headers included
	PromotedBytes uintptr // bytes promoted, headers included
	CardsScanned  int     // dirty cards rescanned for old-to-young pointers
	WeakSlots     int     // weak-reference slots run through keep-alive
}

// NewScavenger prepares a scavenger for one collection. Objects whose age has
// reached tenureThreshold are promoted instead of copied to to-space.
func NewScavenger(h *heap.Heap, tenureThreshold uint8) *Scavenger {
	if tenureThreshold > heap.MaxAge {
		tenureThreshold = heap.MaxAge
	}
	return &Scavenger{heap: h, tenure: tenureThreshold}
}

// Stats returns the counters accumulated so far in this collection.
func (s *Scavenger) Stats() Stats {
	return s.stats
}

// ProcessSlot keeps the object referenced from slot alive: a from-space
// referent is evacuated (or its existing forwarding address reused) and the
// slot is rewritten to point at the copy. Null slots and slots referencing
// already-evacuated memory are left alone.
func (s *Scavenger) ProcessSlot(slot heap.Address) {
	ref := s.heap.Mem.Load(slot)
	if ref == heap.NullAddress || !s.heap.InFromSpace(ref) {
		return
	}
	s.heap.Mem.Store(slot, s.copyOrForward(ref))
}

func (s *Scavenger) copyOrForward(obj heap.Address) heap.Address {
	if s.heap.Forwarded(obj) {
		return s.heap.ForwardingOf(obj)
	}

	size := s.heap.SizeOf(obj)
	age := s.heap.AgeOf(obj)
	if age < heap.MaxAge {
		age++
	}
	words := 1 + size
	bytes := words * heap.WordBytes

	to := heap.NullAddress
	if age < s.tenure {
		to = s.heap.AllocSurvivor(words)
	}
	if to == heap.NullAddress {
		// Tenured, or to-space overflowed: promote.
		to = s.heap.AllocPromoted(words)
		if to == heap.NullAddress {
			heap.Abort("scavenge: promotion failed, old generation full")
		}
		s.stats.Promoted++
		s.stats.PromotedBytes += bytes
	} else {
		s.stats.Copied++
		s.stats.CopiedBytes += bytes
	}

	s.heap.Mem.Store(to, heap.MakeHeader(size, age))
	for i := 0; i < int(size); i++ {
		s.heap.Mem.Store(s.heap.FieldSlot(to, i), s.heap.Mem.Load(s.heap.FieldSlot(obj, i)))
	}
	s.heap.Forward(obj, to)
	s.work = append(s.work, to)
	return to
}

// Drain scans evacuated objects until no unscanned copies remain. Fields of
// promoted objects may still reference young survivors, and no mutator
// barrier covers GC-time copying, so every rewritten slot in tracked memory
// is reported to rs here.
func (s *Scavenger) Drain(rs CardMarker) {
	for len(s.work) > 0 {
		obj := s.work[len(s.work)-1]
		s.work = s.work[:len(s.work)-1]
		size := int(s.heap.SizeOf(obj))
		for i := 0; i < size; i++ {
			slot := s.heap.FieldSlot(obj, i)
			s.ProcessSlot(slot)
			if rs != nil && s.heap.IsTracked(slot) {
				rs.DirtyCardFor(slot, s.heap.Mem.Load(slot))
			}
		}
	}
}
