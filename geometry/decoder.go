package geometry

// Address is a trace address split into its cache fields.
type Address struct {
	// BlockID identifies the line regardless of the byte offset.
	BlockID uint64
	// Tag is stored in the set to tell lines of the same set apart.
	Tag uint64
	// Index selects the set.
	Index int
}

// Decompose splits addr into block id, tag, and set index. Bits above the
// configured address width are dropped first.
func (g Geometry) Decompose(addr uint64) Address {
	blockID := (addr & g.addrMask) >> g.offsetBits

	return Address{
		BlockID: blockID,
		Tag:     blockID >> g.indexBits,
		Index:   int(blockID & g.indexMask),
	}
}

// BlockAddress returns the block-aligned address of a block id.
func (g Geometry) BlockAddress(blockID uint64) uint64 {
	return blockID << g.offsetBits
}
