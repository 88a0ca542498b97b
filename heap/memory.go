package heap

// Memory is the backing store for the managed address space, addressed in
// words. Load and Store are the only way collector code reads or writes heap
// cells; they are trusted accessors whose alignment and bounds validation is
// compiled in only when Asserts is enabled.
type Memory struct {
	base  Address
	words []Address
}

// NewMemory reserves size bytes of managed memory starting at base. The base
// must be word aligned and non-null so that NullAddress never falls inside
// the reserved range.
func NewMemory(base Address, size uintptr) *Memory {
	if base == NullAddress || !base.Aligned() {
		Abort("heap: memory base must be aligned and non-null")
	}
	if size == 0 || size%WordBytes != 0 {
		Abort("heap: memory size must be a whole number of words")
	}
	return &Memory{
		base:  base,
		words: make([]Address, size/WordBytes),
	}
}

// Extent returns the reserved address range.
func (m *Memory) Extent() Range {
	return Range{Start: m.base, Limit: m.base + Address(len(m.words)*WordBytes)}
}

// Contains reports whether a lies inside the reserved range.
func (m *Memory) Contains(a Address) bool {
	return m.Extent().Contains(a)
}

// Load reads the word stored at a.
func (m *Memory) Load(a Address) Address {
	return m.words[m.index(a)]
}

// Store writes v to the word at a.
func (m *Memory) Store(a Address, v Address) {
	m.words[m.index(a)] = v
}

func (m *Memory) index(a Address) uintptr {
	if Asserts {
		if !a.Aligned() {
			Abort("heap: misaligned word access")
		}
		if !m.Contains(a) {
			Abort("heap: access outside reserved memory")
		}
	}
	return uintptr(a-m.base) / WordBytes
}
