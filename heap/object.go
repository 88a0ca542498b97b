package heap

// Every object is one header word followed by its payload words. A reference
// always points at the header word. During a collection the header of an
// already-copied object is replaced by its forwarding address with the low
// bit set; addresses are word aligned, so the bit is free.
//
// Header word layout (low bit clear):
//
//	[ payload size in words ][ age:5 ][ 0 ]
const (
	headerForwardBit = 1
	headerAgeShift   = 1
	headerAgeBits    = 5
	headerSizeShift  = headerAgeShift + headerAgeBits
)

// MaxAge is the largest survival count an object header can record. Ages
// saturate here rather than wrapping.
const MaxAge = 1<<headerAgeBits - 1

// MakeHeader builds a header word for an object with the given payload size
// and survival count. The scavenger uses it to rebuild headers with a bumped
// age when copying.
func MakeHeader(sizeWords uintptr, age uint8) Address {
	return Address(sizeWords)<<headerSizeShift | Address(age)<<headerAgeShift
}

// SizeOf returns the payload size in words of the object at obj. The object
// must not have been forwarded.
func (h *Heap) SizeOf(obj Address) uintptr {
	hdr := h.Mem.Load(obj)
	if Asserts && hdr&headerForwardBit != 0 {
		Abort("heap: size query on forwarded object")
	}
	return uintptr(hdr >> headerSizeShift)
}

// AgeOf returns the number of collections the object at obj has survived.
func (h *Heap) AgeOf(obj Address) uint8 {
	hdr := h.Mem.Load(obj)
	if Asserts && hdr&headerForwardBit != 0 {
		Abort("heap: age query on forwarded object")
	}
	return uint8(hdr>>headerAgeShift) & MaxAge
}

// Forwarded reports whether the object at obj has been copied during the
// current collection.
func (h *Heap) Forwarded(obj Address) bool {
	return h.Mem.Load(obj)&headerForwardBit != 0
}

// ForwardingOf returns the address the object at obj was copied to.
func (h *Heap) ForwardingOf(obj Address) Address {
	hdr := h.Mem.Load(obj)
	if Asserts && hdr&headerForwardBit == 0 {
		Abort("heap: forwarding query on unforwarded object")
	}
	return hdr &^ headerForwardBit
}

// Forward overwrites the header of the object at obj with a forwarding
// pointer to its copy at to.
func (h *Heap) Forward(obj, to Address) {
	if Asserts {
		if !to.Aligned() || !h.Mem.Contains(to) {
			Abort("heap: forwarding to invalid address")
		}
		if h.Forwarded(obj) {
			Abort("heap: object forwarded twice")
		}
	}
	h.Mem.Store(obj, to|headerForwardBit)
}

// FieldSlot returns the address of field i of the object at obj. The slot
// address is distinct from the reference value stored in it.
func (h *Heap) FieldSlot(obj Address, i int) Address {
	return obj + Address((1+i)*WordBytes)
}

// initObject writes a fresh header and payload at obj.
func (h *Heap) initObject(obj Address, fields []Address) {
	h.Mem.Store(obj, MakeHeader(uintptr(len(fields)), 0))
	for i, f := range fields {
		h.Mem.Store(h.FieldSlot(obj, i), f)
	}
}

// WalkOld calls fn for each allocated object in the old generation, in
// address order. A linear header-to-header walk is fine at the heap sizes
// this collector manages.
func (h *Heap) WalkOld(fn func(obj Address)) {
	for a := h.old.Extent.Start; a < h.oldTop; {
		size := h.SizeOf(a)
		fn(a)
		a += Address((1 + size) * WordBytes)
	}
}
