//go:build !gcnoassert

package heap

// Asserts enables validation of heap invariants throughout the collector.
// Performance builds compile the checks out with the gcnoassert build tag.
const Asserts = true
