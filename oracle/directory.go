package oracle

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/cachesim/geometry"
)

// Directory is an oracle backed by an Akita cache directory with LRU victim
// selection. With one set it matches FullyAssociative; with more sets it
// classifies misses against a cache of lower associativity.
type Directory struct {
	directory *akitacache.DirectoryImpl

	blockSize uint64
	blocks    int
	ways      int
}

// NewDirectory creates a directory oracle holding blocks lines of blockSize
// bytes, grouped into sets of ways lines. A ways value of 0 means a single
// fully-associative set.
func NewDirectory(blocks, ways int, blockSize uint64) (*Directory, error) {
	if blocks <= 0 {
		return nil, geometry.NewConfigError("oracle_blocks", blocks, "must be > 0")
	}

	if ways == 0 {
		ways = blocks
	}

	if ways < 0 || blocks%ways != 0 {
		return nil, geometry.NewConfigError("oracle_ways", ways,
			"must divide the number of blocks")
	}

	numSets := blocks / ways
	if numSets&(numSets-1) != 0 {
		return nil, geometry.NewConfigError("oracle_ways", ways,
			"number of oracle sets must be a power of two")
	}

	if blockSize == 0 {
		return nil, geometry.NewConfigError("block_size", blockSize, "must be > 0")
	}

	return &Directory{
		directory: akitacache.NewDirectory(
			numSets,
			ways,
			int(blockSize),
			akitacache.NewLRUVictimFinder(),
		),
		blockSize: blockSize,
		blocks:    blocks,
		ways:      ways,
	}, nil
}

// Access implements Oracle.
func (o *Directory) Access(blockID uint64) bool {
	blockAddr := blockID * o.blockSize

	block := o.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		o.directory.Visit(block)
		return true
	}

	// Every set has at least one way, so the LRU finder always picks a block.
	victim := o.directory.FindVictim(blockAddr)
	if victim == nil {
		panic(fmt.Sprintf("oracle: no victim for block %#x in a %d-way directory",
			blockID, o.ways))
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	o.directory.Visit(victim)

	return false
}

// Capacity implements Oracle.
func (o *Directory) Capacity() int {
	return o.blocks
}

// Ways returns the associativity of the oracle.
func (o *Directory) Ways() int {
	return o.ways
}
