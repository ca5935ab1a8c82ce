package replacement

// handle addresses a node in the arena. Handles stay valid until the node is
// released; released handles are reused by later pushes.
type handle int32

const nilHandle handle = -1

type node struct {
	key        uint64
	prev, next handle
}

// orderList keeps keys ordered from oldest (front) to newest (back).
//
// Invariants:
// * every key in index owns exactly one live node, and index[key] points to it.
// * head/tail and the prev/next links form a correct doubly linked list over
//   the live nodes.
// * free holds exactly the handles of released nodes.
type orderList struct {
	nodes []node
	free  []handle
	index map[uint64]handle

	head, tail handle
}

// maxPrealloc bounds the nodes reserved up front; larger lists grow as keys
// arrive.
const maxPrealloc = 64

func newOrderList(capacity int) *orderList {
	hint := min(max(capacity, 0), maxPrealloc)

	return &orderList{
		nodes: make([]node, 0, hint),
		index: make(map[uint64]handle, hint),
		head:  nilHandle,
		tail:  nilHandle,
	}
}

func (l *orderList) len() int {
	return len(l.index)
}

func (l *orderList) contains(key uint64) bool {
	_, ok := l.index[key]
	return ok
}

// pushBack appends key as the newest entry. The key must not be present.
func (l *orderList) pushBack(key uint64) {
	h := l.alloc(key)
	l.linkBack(h)
	l.index[key] = h
}

// moveToBack makes key the newest entry. It reports false if key is absent.
func (l *orderList) moveToBack(key uint64) bool {
	h, ok := l.index[key]
	if !ok {
		return false
	}

	if h == l.tail {
		return true
	}

	l.unlink(h)
	l.linkBack(h)

	return true
}

// popFront removes and returns the oldest entry.
func (l *orderList) popFront() (uint64, bool) {
	if l.head == nilHandle {
		return 0, false
	}

	h := l.head
	key := l.nodes[h].key
	l.unlink(h)
	l.release(h)
	delete(l.index, key)

	return key, true
}

// keys returns the keys from oldest to newest.
func (l *orderList) keys() []uint64 {
	keys := make([]uint64, 0, l.len())
	for h := l.head; h != nilHandle; h = l.nodes[h].next {
		keys = append(keys, l.nodes[h].key)
	}

	return keys
}

func (l *orderList) alloc(key uint64) handle {
	if n := len(l.free); n > 0 {
		h := l.free[n-1]
		l.free = l.free[:n-1]
		l.nodes[h] = node{key: key, prev: nilHandle, next: nilHandle}

		return h
	}

	l.nodes = append(l.nodes, node{key: key, prev: nilHandle, next: nilHandle})

	return handle(len(l.nodes) - 1)
}

func (l *orderList) release(h handle) {
	l.free = append(l.free, h)
}

func (l *orderList) linkBack(h handle) {
	n := &l.nodes[h]
	n.prev = l.tail
	n.next = nilHandle

	if l.tail != nilHandle {
		l.nodes[l.tail].next = h
	} else {
		l.head = h
	}
	l.tail = h
}

func (l *orderList) unlink(h handle) {
	n := &l.nodes[h]

	if n.prev != nilHandle {
		l.nodes[n.prev].next = n.next
	} else {
		l.head = n.next
	}

	if n.next != nilHandle {
		l.nodes[n.next].prev = n.prev
	} else {
		l.tail = n.prev
	}

	n.prev, n.next = nilHandle, nilHandle
}
