package sim

import "fmt"

// Kind classifies the outcome of an access.
type Kind int

const (
	// Hit means the line was resident.
	Hit Kind = iota
	// MissCompulsory is the first reference to a block.
	MissCompulsory
	// MissConflict is a miss that a fully-associative cache of the same size
	// would have hit.
	MissConflict
	// MissCapacity is a miss that a fully-associative cache of the same size
	// would also have taken.
	MissCapacity
)

func (k Kind) String() string {
	switch k {
	case Hit:
		return "HIT"
	case MissCompulsory:
		return "MISS (Compulsory)"
	case MissConflict:
		return "MISS (Conflict)"
	case MissCapacity:
		return "MISS (Capacity)"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsMiss reports whether the kind is any of the miss kinds.
func (k Kind) IsMiss() bool {
	return k != Hit
}
