// Package remset implements the card-table remembered set summarizing which
// old-generation regions may hold pointers into the young generation.
//
// The table is exact, not probabilistic: a minor collection relies on it to
// find every old-to-young pointer without scanning the whole old generation,
// so every code path that creates or refreshes such a pointer must dirty the
// owning card before the next minor collection runs. The filtering contract
// is deliberately one-sided: callers decide whether the *slot* is worth
// reporting (tracked, i.e. old-generation, addresses), while the table itself
// filters on the *referent* and ignores stores whose value does not point
// young. Keep-alive processing depends on that referent filter.
package remset

import (
	"github.com/gengc-org/gengc/heap"
)

// CardShift is the log2 of the card size. 512-byte cards keep the table small
// while still bounding the rescan work per dirtied slot.
const CardShift = 9

// CardBytes is the heap-address granularity of dirty tracking.
const CardBytes = 1 << CardShift

type cardState uint8

const (
	cardClean cardState = iota
	cardDirty
)

// CardTable is the remembered set. It lives as long as the heap and is
// mutated in place by every write barrier; minor collections clear cards as
// they scan them. Safe without locking only under a stop-the-world pause or
// a single mutator thread.
type CardTable struct {
	covered heap.Range // tracked range whose slots have cards
	young   heap.Range // referent filter: only stores of these addresses dirty
	cards   []cardState
}

// New builds a card table covering the tracked (old-generation) extent,
// filtering on referents inside young. The covered range must start on a
// card boundary.
func New(covered, young heap.Range) *CardTable {
	if covered.Start%CardBytes != 0 {
		heap.Abort("remset: covered range must start on a card boundary")
	}
	n := (covered.Size() + CardBytes - 1) / CardBytes
	return &CardTable{
		covered: covered,
		young:   young,
		cards:   make([]cardState, n),
	}
}

// Covered returns the tracked range.
func (ct *CardTable) Covered() heap.Range {
	return ct.covered
}

// DirtyCardFor is the collection-time write-barrier primitive: it records
// that the slot at slot may now hold an old-to-young pointer. Idempotent and
// safe to call when no dirtying is needed: stores outside the covered range
// and stores whose referent does not point into the young generation are
// ignored.
func (ct *CardTable) DirtyCardFor(slot, ref heap.Address) {
	if !ct.covered.Contains(slot) {
		return
	}
	if !ct.young.Contains(ref) {
		return
	}
	ct.cards[ct.index(slot)] = cardDirty
}

// WriteRefField is the mutator-time write barrier: store ref into slot and
// summarize the store in the card table.
func (ct *CardTable) WriteRefField(mem *heap.Memory, slot, ref heap.Address) {
	mem.Store(slot, ref)
	ct.DirtyCardFor(slot, ref)
}

// IsDirty reports whether the card containing a is dirty. Addresses outside
// the covered range have no card and are never dirty.
func (ct *CardTable) IsDirty(a heap.Address) bool {
	if !ct.covered.Contains(a) {
		return false
	}
	return ct.cards[ct.index(a)] == cardDirty
}

// DirtyCount returns the number of currently dirty cards.
func (ct *CardTable) DirtyCount() int {
	n := 0
	for _, c := range ct.cards {
		if c == cardDirty {
			n++
		}
	}
	return n
}

// ClearAll resets every card to clean.
func (ct *CardTable) ClearAll() {
	for i := range ct.cards {
		ct.cards[i] = cardClean
	}
}

// ScanDirty visits the address range of every dirty card and returns the
// number of cards visited. Each card is cleared before its visit so that the
// visitor can re-dirty, through DirtyCardFor, any slot that still holds a
// young pointer after rescanning; cards re-dirtied this way stay dirty for
// the next collection.
func (ct *CardTable) ScanDirty(visit func(r heap.Range)) int {
	n := 0
	for i := range ct.cards {
		if ct.cards[i] != cardDirty {
			continue
		}
		ct.cards[i] = cardClean
		n++
		visit(ct.cardRange(i))
	}
	return n
}

func (ct *CardTable) index(a heap.Address) int {
	return int((a - ct.covered.Start) / CardBytes)
}

func (ct *CardTable) cardRange(i int) heap.Range {
	start := ct.covered.Start + heap.Address(i*CardBytes)
	limit := start + CardBytes
	if limit > ct.covered.Limit {
		limit = ct.covered.Limit
	}
	return heap.Range{Start: start, Limit: limit}
}
