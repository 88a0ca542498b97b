package heap

// Address is a location in the managed address space. Addresses are
// comparable and ordered; the collector does no arithmetic on them beyond
// offsetting by whole words.
type Address uintptr

// NullAddress is the reserved null reference value. It never lies inside the
// managed heap.
const NullAddress Address = 0

// WordBytes is the size of one heap word. Every reference, object header and
// object field occupies exactly one word.
const WordBytes = 8

// Aligned reports whether the address is word aligned.
func (a Address) Aligned() bool {
	return a%WordBytes == 0
}

// Range is a half-open address interval [Start, Limit).
type Range struct {
	Start Address
	Limit Address
}

// Contains reports whether a lies inside the range.
func (r Range) Contains(a Address) bool {
	return a >= r.Start && a < r.Limit
}

// Size returns the range size in bytes.
func (r Range) Size() uintptr {
	return uintptr(r.Limit - r.Start)
}

// Words returns the range size in words.
func (r Range) Words() uintptr {
	return r.Size() / WordBytes
}
