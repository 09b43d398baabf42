package xtree

import "math"

// queueItem is a payload with its priority. seq records push order and
// breaks priority ties so traversal is deterministic for a given tree.
type queueItem[P any] struct {
	value    P
	priority float64
	seq      uint64
}

// priorityQueue is a binary heap over queueItems, min-first or max-first.
type priorityQueue[P any] struct {
	items []queueItem[P]
	max   bool
	seq   uint64
}

func newMinQueue[P any](capacity int) *priorityQueue[P] {
	return &priorityQueue[P]{items: make([]queueItem[P], 0, capacity)}
}

func newMaxQueue[P any](capacity int) *priorityQueue[P] {
	return &priorityQueue[P]{items: make([]queueItem[P], 0, capacity), max: true}
}

func (q *priorityQueue[P]) Len() int { return len(q.items) }

func (q *priorityQueue[P]) push(value P, priority float64) {
	q.items = append(q.items, queueItem[P]{value: value, priority: priority, seq: q.seq})
	q.seq++
	q.siftUp(len(q.items) - 1)
}

func (q *priorityQueue[P]) top() (queueItem[P], bool) {
	if len(q.items) == 0 {
		return queueItem[P]{}, false
	}
	return q.items[0], true
}

func (q *priorityQueue[P]) pop() (queueItem[P], bool) {
	n := len(q.items)
	if n == 0 {
		return queueItem[P]{}, false
	}
	root := q.items[0]
	q.items[0] = q.items[n-1]
	q.items[n-1] = queueItem[P]{}
	q.items = q.items[:n-1]
	if len(q.items) > 0 {
		q.siftDown(0)
	}
	return root, true
}

func (q *priorityQueue[P]) less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if q.max {
		if a.priority != b.priority {
			return a.priority > b.priority
		}
		return a.seq > b.seq
	}
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	return a.seq < b.seq
}

func (q *priorityQueue[P]) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !q.less(i, parent) {
			return
		}
		q.items[i], q.items[parent] = q.items[parent], q.items[i]
		i = parent
	}
}

func (q *priorityQueue[P]) siftDown(i int) {
	n := len(q.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		if r := l + 1; r < n && q.less(r, l) {
			best = r
		}
		if !q.less(best, i) {
			return
		}
		q.items[i], q.items[best] = q.items[best], q.items[i]
		i = best
	}
}

// boundedQueue keeps the capacity smallest-priority items offered to it.
type boundedQueue[P any] struct {
	heap     *priorityQueue[P]
	capacity int
}

func newBoundedQueue[P any](capacity int) *boundedQueue[P] {
	return &boundedQueue[P]{heap: newMaxQueue[P](capacity), capacity: capacity}
}

func (b *boundedQueue[P]) Len() int { return b.heap.Len() }

func (b *boundedQueue[P]) full() bool { return b.heap.Len() >= b.capacity }

// worst returns the largest retained priority, or +Inf while not full.
func (b *boundedQueue[P]) worst() float64 {
	if !b.full() {
		return math.Inf(1)
	}
	top, _ := b.heap.top()
	return top.priority
}

// offer retains value if the queue has room or priority beats the worst kept.
func (b *boundedQueue[P]) offer(value P, priority float64) bool {
	if !b.full() {
		b.heap.push(value, priority)
		return true
	}
	if priority >= b.worst() {
		return false
	}
	b.heap.pop()
	b.heap.push(value, priority)
	return true
}

// drain empties the queue and returns its items by ascending (priority, seq).
func (b *boundedQueue[P]) drain() []queueItem[P] {
	out := make([]queueItem[P], b.heap.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i], _ = b.heap.pop()
	}
	return out
}
