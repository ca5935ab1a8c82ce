package replacement

import (
	"fmt"
	"strings"
)

// Policy selects how a set orders its lines for eviction.
type Policy int

const (
	// LRU evicts the least recently used line. Hits refresh a line.
	LRU Policy = iota
	// FIFO evicts the oldest inserted line. Hits do not reorder.
	FIFO
)

func (p Policy) String() string {
	switch p {
	case LRU:
		return "LRU"
	case FIFO:
		return "FIFO"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// PolicyError reports a replacement policy name that is not supported.
type PolicyError struct {
	Name string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("invalid policy %q: expected LRU or FIFO", e.Name)
}

// ParsePolicy converts a policy name into a Policy. Names are case-insensitive.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "LRU":
		return LRU, nil
	case "FIFO":
		return FIFO, nil
	default:
		return 0, &PolicyError{Name: name}
	}
}
