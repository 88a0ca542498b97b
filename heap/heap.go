// Package heap models the managed address space of a two-generation,
// stop-the-world copying collector: word-addressed memory, object headers
// with age and forwarding state, a young generation split into two
// semispaces, and an old generation above it.
//
// The layout convention is fixed: the young generation occupies the low end
// of the reserved range and the old generation sits directly above it. An
// address below the young generation's limit therefore always refers to
// young memory, which is what lets the scavenger's fast keep-alive path
// replace a membership query with a single compare.
package heap

// Generation is a named contiguous region of the managed address space.
type Generation struct {
	Name   string
	Extent Range
}

// Heap owns the managed memory and its division into generations.
type Heap struct {
	Mem *Memory

	young Generation
	old   Generation

	// The two semispaces partition the young generation. Mutator allocation
	// bumps youngTop inside fromSpace; survivors are copied to toTop inside
	// toSpace; SwapSemispaces flips the two after a collection.
	fromSpace Range
	toSpace   Range
	youngTop  Address
	toTop     Address

	// Promotion bumps oldTop.
	oldTop Address
}

// New reserves a heap at base with the given generation sizes in bytes. The
// young size must split evenly into two word-aligned semispaces.
func New(base Address, youngSize, oldSize uintptr) *Heap {
	if youngSize == 0 || youngSize%(2*WordBytes) != 0 {
		Abort("heap: young generation must split into two word-aligned semispaces")
	}
	if oldSize == 0 || oldSize%WordBytes != 0 {
		Abort("heap: old generation size must be a whole number of words")
	}
	mem := NewMemory(base, youngSize+oldSize)
	youngLimit := base + Address(youngSize)
	half := Address(youngSize / 2)
	h := &Heap{
		Mem:       mem,
		young:     Generation{Name: "young", Extent: Range{Start: base, Limit: youngLimit}},
		old:       Generation{Name: "old", Extent: Range{Start: youngLimit, Limit: youngLimit + Address(oldSize)}},
		fromSpace: Range{Start: base, Limit: base + half},
		toSpace:   Range{Start: base + half, Limit: youngLimit},
	}
	h.youngTop = h.fromSpace.Start
	h.toTop = h.toSpace.Start
	h.oldTop = h.old.Extent.Start
	return h
}

// Young returns the young generation.
func (h *Heap) Young() Generation { return h.young }

// Old returns the old generation.
func (h *Heap) Old() Generation { return h.old }

// YoungBoundary returns the address just past the young generation. Every
// young address is below it and every old address is at or above it. The
// boundary is fixed for the lifetime of the heap, but callers caching it
// must still refresh their copy once per collection: the guarantee is
// per-pause, not forever.
func (h *Heap) YoungBoundary() Address {
	return h.young.Extent.Limit
}

// IsYoung reports whether a lies in the young generation.
func (h *Heap) IsYoung(a Address) bool {
	return h.young.Extent.Contains(a)
}

// IsTracked reports whether a lies in a range whose cards are scanned by
// minor collections, which for this heap means the old generation. Dirty
// cards in the young generation are never scanned, so tracking stops at the
// young boundary.
func (h *Heap) IsTracked(a Address) bool {
	return h.old.Extent.Contains(a)
}

// InFromSpace reports whether a lies in the semispace being evacuated.
func (h *Heap) InFromSpace(a Address) bool {
	return h.fromSpace.Contains(a)
}

// CollectingYoungest reports whether the generation a minor collection
// evacuates is the youngest in the heap. A two-generation heap always
// collects its youngest, which is the precondition for the fast keep-alive
// path.
func (h *Heap) CollectingYoungest() bool {
	return true
}

// NewYoung allocates a young object with the given field values and returns
// its address, or NullAddress when the active semispace is full.
func (h *Heap) NewYoung(fields ...Address) Address {
	obj := h.bump(&h.youngTop, h.fromSpace.Limit, uintptr(1+len(fields)))
	if obj == NullAddress {
		return NullAddress
	}
	h.initObject(obj, fields)
	return obj
}

// NewOld allocates an old object with the given field values and returns its
// address, or NullAddress when the old generation is full. Callers storing
// young references into the result must do so through the mutator write
// barrier.
func (h *Heap) NewOld(fields ...Address) Address {
	obj := h.bump(&h.oldTop, h.old.Extent.Limit, uintptr(1+len(fields)))
	if obj == NullAddress {
		return NullAddress
	}
	h.initObject(obj, fields)
	return obj
}

// AllocSurvivor reserves words of raw space in to-space for a copied object,
// or returns NullAddress when to-space is full.
func (h *Heap) AllocSurvivor(words uintptr) Address {
	return h.bump(&h.toTop, h.toSpace.Limit, words)
}

// AllocPromoted reserves words of raw space in the old generation for a
// promoted object, or returns NullAddress when the old generation is full.
func (h *Heap) AllocPromoted(words uintptr) Address {
	return h.bump(&h.oldTop, h.old.Extent.Limit, words)
}

func (h *Heap) bump(top *Address, limit Address, words uintptr) Address {
	a := *top
	next := a + Address(words*WordBytes)
	if next > limit || next < a {
		return NullAddress
	}
	*top = next
	return a
}

// SwapSemispaces flips from- and to-space after a collection. The survivors
// copied into to-space become the live young generation; the evacuated
// semispace is reused as the next collection's copy target.
func (h *Heap) SwapSemispaces() {
	h.fromSpace, h.toSpace = h.toSpace, h.fromSpace
	h.youngTop = h.toTop
	h.toTop = h.toSpace.Start
}

// YoungUsed returns the bytes allocated in the active young semispace.
func (h *Heap) YoungUsed() uintptr {
	return uintptr(h.youngTop - h.fromSpace.Start)
}

// YoungFree returns the bytes still available in the active young semispace.
func (h *Heap) YoungFree() uintptr {
	return uintptr(h.fromSpace.Limit - h.youngTop)
}

// OldUsed returns the bytes allocated in the old generation.
func (h *Heap) OldUsed() uintptr {
	return uintptr(h.oldTop - h.old.Extent.Start)
}
