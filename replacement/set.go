// Package replacement tracks which tags live in a cache set and in what order
// they will be evicted.
package replacement

// Set holds up to capacity tags in eviction order.
type Set struct {
	capacity int
	policy   Policy
	order    *orderList
}

// New creates an empty set.
func New(capacity int, policy Policy) *Set {
	return &Set{
		capacity: capacity,
		policy:   policy,
		order:    newOrderList(capacity),
	}
}

// Capacity returns the number of ways.
func (s *Set) Capacity() int {
	return s.capacity
}

// Policy returns the replacement policy.
func (s *Set) Policy() Policy {
	return s.policy
}

// Len returns the number of resident tags.
func (s *Set) Len() int {
	return s.order.len()
}

// Contains reports whether tag is resident.
func (s *Set) Contains(tag uint64) bool {
	return s.order.contains(tag)
}

// Touch marks tag as most recently used. It does nothing under FIFO or when
// the tag is not resident.
func (s *Set) Touch(tag uint64) {
	if s.policy != LRU {
		return
	}

	s.order.moveToBack(tag)
}

// Insert places tag at the newest position, evicting the oldest tag first if
// the set is full. The evicted tag is returned with ok set. Inserting a
// resident tag, or inserting into a set without ways, changes nothing.
func (s *Set) Insert(tag uint64) (evicted uint64, ok bool) {
	if s.capacity <= 0 || s.order.contains(tag) {
		return 0, false
	}

	if s.order.len() >= s.capacity {
		evicted, ok = s.order.popFront()
	}

	s.order.pushBack(tag)

	return evicted, ok
}

// Tags returns the resident tags from oldest to newest.
func (s *Set) Tags() []uint64 {
	return s.order.keys()
}
