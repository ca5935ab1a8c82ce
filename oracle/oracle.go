// Package oracle provides reference caches used to tell capacity misses from
// conflict misses.
//
// An oracle sees every access the simulated cache sees. When the simulated
// cache misses on a block that the oracle still holds, the miss is blamed on
// the set mapping (conflict); when both miss, it is blamed on the total size
// (capacity).
package oracle

import (
	"github.com/sarchlab/cachesim/replacement"
)

// Oracle is a reference cache keyed by block id.
type Oracle interface {
	// Access references blockID and reports whether it was resident. The
	// oracle updates its own state on every call.
	Access(blockID uint64) bool

	// Capacity returns the number of blocks the oracle can hold.
	Capacity() int
}

// FullyAssociative is an LRU cache with a single set.
type FullyAssociative struct {
	blocks *replacement.Set
}

// NewFullyAssociative creates a fully-associative LRU oracle holding up to
// capacity blocks.
func NewFullyAssociative(capacity int) *FullyAssociative {
	return &FullyAssociative{
		blocks: replacement.New(capacity, replacement.LRU),
	}
}

// Access implements Oracle.
func (o *FullyAssociative) Access(blockID uint64) bool {
	if o.blocks.Contains(blockID) {
		o.blocks.Touch(blockID)
		return true
	}

	o.blocks.Insert(blockID)

	return false
}

// Capacity implements Oracle.
func (o *FullyAssociative) Capacity() int {
	return o.blocks.Capacity()
}

// Resident returns the resident block ids from least to most recently used.
func (o *FullyAssociative) Resident() []uint64 {
	return o.blocks.Tags()
}
