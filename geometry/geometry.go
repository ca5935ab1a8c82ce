// Package geometry describes the shape of a simulated cache and splits
// addresses into block, set, and tag fields.
package geometry

import (
	"math"
	"math/bits"
)

// Params holds the user-facing cache parameters.
type Params struct {
	// CacheSize in bytes
	CacheSize uint64
	// BlockSize in bytes (cache line size)
	BlockSize uint64
	// Associativity (number of ways per set)
	Associativity int
	// AddressBits is the width of a trace address. Wider addresses are masked.
	AddressBits int
}

// DefaultParams returns the parameters used when nothing else is given:
// a 32KB, 4-way cache with 64B lines and 32-bit addresses.
func DefaultParams() Params {
	return Params{
		CacheSize:     32 * 1024, // 32KB
		BlockSize:     64,        // 64B cache line
		Associativity: 4,         // 4-way
		AddressBits:   32,
	}
}

// Geometry is a validated set of cache parameters together with the derived
// field widths. It is immutable once built.
type Geometry struct {
	params Params

	numSets    int
	offsetBits int
	indexBits  int
	tagBits    int

	addrMask  uint64
	indexMask uint64
}

// New validates the parameters and derives the address layout.
func New(p Params) (Geometry, error) {
	if p.BlockSize == 0 {
		return Geometry{}, newConfigError("block_size", p.BlockSize, "must be > 0")
	}

	if !isPowerOfTwo(p.BlockSize) {
		return Geometry{}, newConfigError("block_size", p.BlockSize,
			"must be a power of two")
	}

	if p.Associativity <= 0 {
		return Geometry{}, newConfigError("associativity", p.Associativity,
			"must be > 0")
	}

	hi, setBytes := bits.Mul64(p.BlockSize, uint64(p.Associativity))
	if hi != 0 || setBytes > p.CacheSize {
		return Geometry{}, newConfigError("cache_size", p.CacheSize,
			"smaller than one set of (block_size * assoc) bytes")
	}

	if p.CacheSize%setBytes != 0 {
		return Geometry{}, newConfigError("cache_size", p.CacheSize,
			"must be divisible by (block_size * assoc)")
	}

	numSets := p.CacheSize / setBytes
	if p.CacheSize/p.BlockSize > math.MaxInt32 {
		return Geometry{}, newConfigError("cache_size", p.CacheSize,
			"too many blocks to simulate")
	}

	if !isPowerOfTwo(numSets) {
		return Geometry{}, newConfigError("cache_size", p.CacheSize,
			"number of sets must be a power of two")
	}

	if p.AddressBits < 1 || p.AddressBits > 64 {
		return Geometry{}, newConfigError("address_bits", p.AddressBits,
			"must be between 1 and 64")
	}

	g := Geometry{
		params:     p,
		numSets:    int(numSets),
		offsetBits: log2(p.BlockSize),
		indexBits:  log2(numSets),
	}
	g.tagBits = p.AddressBits - g.indexBits - g.offsetBits

	if g.tagBits < 0 {
		return Geometry{}, newConfigError("address_bits", p.AddressBits,
			"too narrow for the offset and index fields")
	}

	g.addrMask = ^uint64(0)
	if p.AddressBits < 64 {
		g.addrMask = (uint64(1) << p.AddressBits) - 1
	}
	g.indexMask = numSets - 1

	return g, nil
}

// Params returns the parameters the geometry was built from.
func (g Geometry) Params() Params {
	return g.params
}

// CacheSize returns the total capacity in bytes.
func (g Geometry) CacheSize() uint64 {
	return g.params.CacheSize
}

// BlockSize returns the line size in bytes.
func (g Geometry) BlockSize() uint64 {
	return g.params.BlockSize
}

// Associativity returns the number of ways per set.
func (g Geometry) Associativity() int {
	return g.params.Associativity
}

// AddressBits returns the configured address width.
func (g Geometry) AddressBits() int {
	return g.params.AddressBits
}

// NumSets returns the number of sets.
func (g Geometry) NumSets() int {
	return g.numSets
}

// TotalBlocks returns the number of lines the cache can hold.
func (g Geometry) TotalBlocks() int {
	return g.numSets * g.params.Associativity
}

// OffsetBits returns log2(block size).
func (g Geometry) OffsetBits() int {
	return g.offsetBits
}

// IndexBits returns log2(number of sets), 0 for a single set.
func (g Geometry) IndexBits() int {
	return g.indexBits
}

// TagBits returns the bits left for the tag.
func (g Geometry) TagBits() int {
	return g.tagBits
}

func isPowerOfTwo(v uint64) bool {
	return v != 0 && v&(v-1) == 0
}

func log2(v uint64) int {
	return bits.TrailingZeros64(v)
}
