//go:build gcnoassert

package heap

// Asserts is disabled in this build; heap invariants are assumed, not checked.
const Asserts = false
