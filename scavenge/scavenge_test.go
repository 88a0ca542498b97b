package scavenge

import (
	"testing"

	"github.com/gengc-org/gengc/heap"
	"github.com/gengc-org/gengc/remset"
)

func newScavengeHeap(t *testing.T) (*heap.Heap, *remset.CardTable) {
	t.Helper()
	h := heap.New(0x1000, 0x3000, 0x6000)
	return h, remset.New(h.Old().Extent, h.Young().Extent)
}

func TestScavengerCopiesToSurvivorSpace(t *testing.T) {
	h, _ := newScavengeHeap(t)
	obj := h.NewYoung(0xbeef0)
	holder := h.NewOld(heap.NullAddress)
	slot := h.FieldSlot(holder, 0)
	h.Mem.Store(slot, obj)

	s := NewScavenger(h, 2)
	s.ProcessSlot(slot)

	moved := h.Mem.Load(slot)
	if moved == obj || !h.IsYoung(moved) || h.InFromSpace(moved) {
		t.Fatalf("referent at %#x, want a to-space copy (was %#x)", moved, obj)
	}
	if !h.Forwarded(obj) || h.ForwardingOf(obj) != moved {
		t.Error("original object not forwarded to its copy")
	}
	if got := h.Mem.Load(h.FieldSlot(moved, 0)); got != 0xbeef0 {
		t.Errorf("copied payload = %#x, want 0xbeef0", got)
	}
	if got := h.AgeOf(moved); got != 1 {
		t.Errorf("copy has age %d, want 1", got)
	}
	if st := s.Stats(); st.Copied != 1 || st.Promoted != 0 {
		t.Errorf("stats = %+v, want exactly one copy", st)
	}
}

func TestScavengerReusesForwarding(t *testing.T) {
	h, _ := newScavengeHeap(t)
	obj := h.NewYoung(heap.NullAddress)
	a := h.NewOld(heap.NullAddress)
	b := h.NewOld(heap.NullAddress)
	slotA, slotB := h.FieldSlot(a, 0), h.FieldSlot(b, 0)
	h.Mem.Store(slotA, obj)
	h.Mem.Store(slotB, obj)

	s := NewScavenger(h, 2)
	s.ProcessSlot(slotA)
	s.ProcessSlot(slotB)

	if h.Mem.Load(slotA) != h.Mem.Load(slotB) {
		t.Error("two slots referencing one object disagree after scavenging")
	}
	if st := s.Stats(); st.Copied != 1 {
		t.Errorf("object copied %d times, want 1", st.Copied)
	}
	// Reprocessing an already-updated slot is harmless.
	s.ProcessSlot(slotA)
	if st := s.Stats(); st.Copied != 1 {
		t.Errorf("reprocessing copied the object again: %+v", st)
	}
}

func TestScavengerPromotesTenured(t *testing.T) {
	h, _ := newScavengeHeap(t)
	obj := h.NewYoung(heap.NullAddress)
	h.Mem.Store(obj, heap.MakeHeader(1, 3))
	holder := h.NewOld(heap.NullAddress)
	slot := h.FieldSlot(holder, 0)
	h.Mem.Store(slot, obj)

	s := NewScavenger(h, 2)
	s.ProcessSlot(slot)

	moved := h.Mem.Load(slot)
	if !h.IsTracked(moved) {
		t.Fatalf("tenured object at %#x, want an old-generation address", moved)
	}
	if st := s.Stats(); st.Promoted != 1 || st.Copied != 0 {
		t.Errorf("stats = %+v, want exactly one promotion", st)
	}
}

func TestScavengerPromotesOnSurvivorOverflow(t *testing.T) {
	// Semispaces of 512 bytes: 64 words each.
	h := heap.New(0x7c00, 0x400, 0x1000)
	mkBig := func() heap.Address {
		fields := make([]heap.Address, 20)
		obj := h.NewYoung(fields...)
		if obj == heap.NullAddress {
			t.Fatal("allocation failed while setting up")
		}
		return obj
	}
	first, second := mkBig(), mkBig()
	holder := h.NewOld(first, second)

	// Leave too little to-space for both copies: the second must overflow
	// into the old generation even though its age is below the threshold.
	if h.AllocSurvivor(30) == heap.NullAddress {
		t.Fatal("to-space reservation failed while setting up")
	}

	s := NewScavenger(h, 2)
	s.ProcessSlot(h.FieldSlot(holder, 0))
	s.ProcessSlot(h.FieldSlot(holder, 1))

	st := s.Stats()
	if st.Copied != 1 || st.Promoted != 1 {
		t.Fatalf("stats = %+v, want one copy and one overflow promotion", st)
	}
	if moved := h.Mem.Load(h.FieldSlot(holder, 1)); !h.IsTracked(moved) {
		t.Errorf("overflow object at %#x, want an old-generation address", moved)
	}
}

func TestDrainScansTransitively(t *testing.T) {
	h, ct := newScavengeHeap(t)
	c := h.NewYoung(heap.NullAddress)
	b := h.NewYoung(c)
	a := h.NewYoung(b)
	holder := h.NewOld(heap.NullAddress)
	slot := h.FieldSlot(holder, 0)
	h.Mem.Store(slot, a)

	s := NewScavenger(h, 2)
	s.ProcessSlot(slot)
	s.Drain(ct)

	if st := s.Stats(); st.Copied != 3 {
		t.Fatalf("copied %d objects, want the whole chain of 3", st.Copied)
	}
	movedA := h.Mem.Load(slot)
	movedB := h.Mem.Load(h.FieldSlot(movedA, 0))
	movedC := h.Mem.Load(h.FieldSlot(movedB, 0))
	for name, moved := range map[string]heap.Address{"a": movedA, "b": movedB, "c": movedC} {
		if h.InFromSpace(moved) || !h.IsYoung(moved) {
			t.Errorf("object %s at %#x, want a to-space copy", name, moved)
		}
	}
	if got := h.Mem.Load(h.FieldSlot(movedC, 0)); got != heap.NullAddress {
		t.Errorf("tail field = %#x, want null", got)
	}
}

// A promoted object whose field still references a young survivor is a fresh
// old-to-young pointer created during the pause; draining must leave its
// card dirty.
func TestDrainDirtiesPromotedObjectSlots(t *testing.T) {
	h, ct := newScavengeHeap(t)
	young := h.NewYoung(heap.NullAddress)
	tenured := h.NewYoung(young)
	h.Mem.Store(tenured, heap.MakeHeader(1, heap.MaxAge))
	holder := h.NewOld(heap.NullAddress)
	slot := h.FieldSlot(holder, 0)
	h.Mem.Store(slot, tenured)

	s := NewScavenger(h, 2)
	s.ProcessSlot(slot)
	s.Drain(ct)

	promoted := h.Mem.Load(slot)
	if !h.IsTracked(promoted) {
		t.Fatalf("tenured object at %#x, want an old-generation address", promoted)
	}
	fieldSlot := h.FieldSlot(promoted, 0)
	survivor := h.Mem.Load(fieldSlot)
	if !h.IsYoung(survivor) {
		t.Fatalf("survivor at %#x, want a young address", survivor)
	}
	if !ct.IsDirty(fieldSlot) {
		t.Error("promoted object's young-pointing slot left its card clean")
	}
}

func TestScavengerIgnoresNullAndNonFromSpace(t *testing.T) {
	h, _ := newScavengeHeap(t)
	oldObj := h.NewOld(heap.NullAddress)
	holder := h.NewOld(heap.NullAddress, heap.NullAddress)
	slotNull := h.FieldSlot(holder, 0)
	slotOld := h.FieldSlot(holder, 1)
	h.Mem.Store(slotOld, oldObj)

	s := NewScavenger(h, 2)
	s.ProcessSlot(slotNull)
	s.ProcessSlot(slotOld)

	if got := h.Mem.Load(slotNull); got != heap.NullAddress {
		t.Errorf("null slot rewritten to %#x", got)
	}
	if got := h.Mem.Load(slotOld); got != oldObj {
		t.Errorf("old-referent slot rewritten to %#x", got)
	}
	if st := s.Stats(); st.Copied != 0 || st.Promoted != 0 {
		t.Errorf("stats = %+v, want no evacuations", st)
	}
}
