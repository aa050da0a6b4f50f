package datastructure

// LPAKey is the two-level priority of an inconsistent LPA* node:
// (min(g, rhs) + weight*h, min(g, rhs)).
type LPAKey struct {
	K1 int `json:"k1"`
	K2 int `json:"k2"`
}

func NewLPAKey(k1, k2 int) LPAKey {
	return LPAKey{K1: k1, K2: k2}
}

// Less compares lexicographically.
func (k LPAKey) Less(o LPAKey) bool {
	if k.K1 != o.K1 {
		return k.K1 < o.K1
	}
	return k.K2 < o.K2
}

// KeyedQueue is an ordered set of node ids keyed by LPAKey with the node id as
// final tie-break. Unlike MinHeap it supports exact removal and re-keying, which
// LPA* needs when a node's rhs changes while it is queued.
type KeyedQueue struct {
	heap []Index
	keys []LPAKey
	pos  []int // position in heap, -1 when absent
	d    int
}

func NewKeyedQueue(n int) *KeyedQueue {
	q := &KeyedQueue{
		heap: make([]Index, 0, n),
		keys: make([]LPAKey, n),
		pos:  make([]int, n),
		d:    4,
	}
	for i := range q.pos {
		q.pos[i] = -1
	}
	return q
}

func (q *KeyedQueue) less(i, j int) bool {
	a, b := q.heap[i], q.heap[j]
	if q.keys[a] != q.keys[b] {
		return q.keys[a].Less(q.keys[b])
	}
	return a < b
}

func (q *KeyedQueue) swap(i, j int) {
	q.heap[i], q.heap[j] = q.heap[j], q.heap[i]
	q.pos[q.heap[i]] = i
	q.pos[q.heap[j]] = j
}

func (q *KeyedQueue) up(i int) {
	for i > 0 {
		p := (i - 1) / q.d
		if !q.less(i, p) {
			return
		}
		q.swap(i, p)
		i = p
	}
}

func (q *KeyedQueue) down(i int) {
	for {
		first := i*q.d + 1
		if first >= len(q.heap) {
			return
		}
		last := first + q.d
		if last > len(q.heap) {
			last = len(q.heap)
		}
		smallest := first
		for c := first + 1; c < last; c++ {
			if q.less(c, smallest) {
				smallest = c
			}
		}
		if !q.less(smallest, i) {
			return
		}
		q.swap(i, smallest)
		i = smallest
	}
}

func (q *KeyedQueue) Size() int {
	return len(q.heap)
}

func (q *KeyedQueue) IsEmpty() bool {
	return len(q.heap) == 0
}

func (q *KeyedQueue) Contains(x Index) bool {
	return q.pos[x] >= 0
}

// Upsert inserts x with key, or moves it to key if already queued.
func (q *KeyedQueue) Upsert(x Index, key LPAKey) {
	if i := q.pos[x]; i >= 0 {
		old := q.keys[x]
		q.keys[x] = key
		if key.Less(old) {
			q.up(i)
		} else {
			q.down(i)
		}
		return
	}
	q.keys[x] = key
	q.heap = append(q.heap, x)
	q.pos[x] = len(q.heap) - 1
	q.up(len(q.heap) - 1)
}

// Remove deletes x if queued and reports whether it was present.
func (q *KeyedQueue) Remove(x Index) bool {
	i := q.pos[x]
	if i < 0 {
		return false
	}
	last := len(q.heap) - 1
	if i != last {
		q.swap(i, last)
	}
	q.heap = q.heap[:last]
	q.pos[x] = -1
	if i != last {
		q.down(i)
		q.up(i)
	}
	return true
}

// Top returns the minimum node and its key without removing it.
func (q *KeyedQueue) Top() (Index, LPAKey, bool) {
	if q.IsEmpty() {
		return INVALID_INDEX, LPAKey{}, false
	}
	x := q.heap[0]
	return x, q.keys[x], true
}

func (q *KeyedQueue) Pop() (Index, LPAKey, bool) {
	x, key, ok := q.Top()
	if !ok {
		return x, key, false
	}
	q.Remove(x)
	return x, key, true
}

func (q *KeyedQueue) Clear() {
	for _, x := range q.heap {
		q.pos[x] = -1
	}
	q.heap = q.heap[:0]
}
