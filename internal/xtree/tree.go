package xtree

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Tree is an X-tree over fixed-dimension hyperrectangles. Inserts take an
// exclusive lock and queries a shared one, so any number of KNN calls may run
// concurrently once the tree is built.
type Tree[T any] struct {
	mu     sync.RWMutex
	dim    int
	cfg    Config
	policy splitPolicy
	logger *zap.Logger

	nodes  []node
	root   nodeID
	height int
	values []T

	splits     int
	extensions int
}

// Neighbor is a kNN result.
type Neighbor[T any] struct {
	Rect     Rect
	Value    T
	Distance float64 // squared Euclidean distance to the query
}

// New creates an empty tree of the given dimension with a single empty leaf
// as root.
func New[T any](dim int, opts ...Option) (*Tree[T], error) {
	if dim < 1 {
		return nil, fmt.Errorf("%w: dimension %d", ErrInvalidConfig, dim)
	}
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &Tree[T]{
		dim:    dim,
		cfg:    cfg,
		policy: newSplitPolicy(cfg),
		logger: cfg.Logger.With(zap.Int("dimension", dim)),
		nodes:  []node{{leaf: true}},
		root:   0,
		height: 1,
	}, nil
}

// Dim returns the tree dimension.
func (t *Tree[T]) Dim() int { return t.dim }

// Config returns the effective configuration.
func (t *Tree[T]) Config() Config { return t.cfg }

// Len returns the number of stored values.
func (t *Tree[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.values)
}

// Height returns the number of levels; a tree whose root is a leaf has height 1.
func (t *Tree[T]) Height() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.height
}

// Bounds returns the MBR of every stored rectangle, or a zero Rect when empty.
func (t *Tree[T]) Bounds() Rect {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nodes[t.root].bounds.Clone()
}

func (t *Tree[T]) check(r Rect) error {
	if r.Dim() != t.dim || len(r.High) != t.dim {
		return &ErrDimensionMismatch{Expected: t.dim, Actual: max(len(r.Low), len(r.High))}
	}
	return r.validate()
}

// Insert stores value under r. The tree is left untouched when r is rejected.
func (t *Tree[T]) Insert(r Rect, value T) error {
	if err := t.check(r); err != nil {
		return err
	}
	r = r.Clone()

	t.mu.Lock()
	defer t.mu.Unlock()

	handle := int32(len(t.values))
	t.values = append(t.values, value)

	path, slots := t.chooseLeaf(r)
	leaf := path[len(path)-1]
	t.nodes[leaf].insert(entry{rect: r, child: nilNode, value: handle})

	sibling := t.handleOverflow(leaf)
	for level := len(path) - 2; level >= 0; level-- {
		id, child, slot := path[level], path[level+1], slots[level]
		if sibling != nilNode {
			// the child keeps the first group; its slot is replaced and the
			// second group gets a new entry.
			t.nodes[id].remove(slot)
			t.nodes[id].insert(entry{rect: t.nodes[child].bounds.Clone(), child: child})
			t.nodes[id].insert(entry{rect: t.nodes[sibling].bounds.Clone(), child: sibling})
		} else {
			t.nodes[id].entries[slot].rect = t.nodes[child].bounds.Clone()
			t.nodes[id].refresh()
		}
		sibling = t.handleOverflow(id)
	}
	if sibling != nilNode {
		t.growRoot(sibling)
	}
	return nil
}

// chooseLeaf descends from the root and returns the visited nodes together
// with the entry index taken at each internal node.
func (t *Tree[T]) chooseLeaf(r Rect) (path []nodeID, slots []int) {
	path = make([]nodeID, 0, t.height)
	slots = make([]int, 0, t.height)
	id := t.root
	for {
		path = append(path, id)
		if t.nodes[id].leaf {
			return path, slots
		}
		slot := t.chooseSubtree(id, r)
		slots = append(slots, slot)
		id = t.nodes[id].entries[slot].child
	}
}

// chooseSubtree picks the entry of an internal node whose enlargement to
// cover r adds the least overlap with its siblings, then the least area,
// then has the smallest resulting area.
func (t *Tree[T]) chooseSubtree(id nodeID, r Rect) int {
	entries := t.nodes[id].entries
	best := -1
	var bestOverlap, bestEnlargement, bestArea float64
	for i := range entries {
		current := entries[i].rect
		enlarged := current.Union(r)
		var overlap float64
		if !current.Contains(r) {
			for j := range entries {
				if j == i {
					continue
				}
				overlap += enlarged.OverlapArea(entries[j].rect) - current.OverlapArea(entries[j].rect)
			}
		}
		area := enlarged.Area()
		enlargement := area - current.Area()
		if best == -1 ||
			overlap < bestOverlap ||
			(overlap == bestOverlap && enlargement < bestEnlargement) ||
			(overlap == bestOverlap && enlargement == bestEnlargement && area < bestArea) {
			best, bestOverlap, bestEnlargement, bestArea = i, overlap, enlargement, area
		}
	}
	return best
}

// handleOverflow splits node id when it exceeds M entries and the split
// policy accepts a split. It returns the new sibling, or nilNode.
func (t *Tree[T]) handleOverflow(id nodeID) nodeID {
	n := &t.nodes[id]
	if !n.isSupernode(t.cfg.MaxEntries) {
		return nilNode
	}
	left, right, ok := t.policy.split(n.entries, n.bounds)
	if !ok {
		t.extensions++
		t.logger.Debug("keeping supernode",
			zap.Int("node", int(id)),
			zap.Int("entries", len(n.entries)),
			zap.Bool("leaf", n.leaf))
		return nilNode
	}
	if len(n.entries) > t.cfg.MaxSupernode {
		t.logger.Debug("forcing supernode split",
			zap.Int("node", int(id)),
			zap.Int("entries", len(n.entries)))
	}
	t.splits++
	leaf := n.leaf
	n.entries = left
	n.refresh()

	sibling := node{leaf: leaf, entries: right}
	sibling.refresh()
	t.nodes = append(t.nodes, sibling)
	return nodeID(len(t.nodes) - 1)
}

func (t *Tree[T]) growRoot(sibling nodeID) {
	root := node{leaf: false}
	root.insert(entry{rect: t.nodes[t.root].bounds.Clone(), child: t.root})
	root.insert(entry{rect: t.nodes[sibling].bounds.Clone(), child: sibling})
	t.nodes = append(t.nodes, root)
	t.root = nodeID(len(t.nodes) - 1)
	t.height++
	t.logger.Debug("root split",
		zap.Int("height", t.height),
		zap.Int("items", len(t.values)))
}

// KNN returns the k stored values closest to p, nearest first. When fewer
// than k values are stored, all of them are returned.
func (t *Tree[T]) KNN(p Rect, k int) ([]Neighbor[T], error) {
	return t.KNNContext(context.Background(), p, k)
}

// KNNContext is KNN with cancellation, checked each time a node is taken
// from the pending queue.
func (t *Tree[T]) KNNContext(ctx context.Context, p Rect, k int) ([]Neighbor[T], error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	if err := t.check(p); err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.values) == 0 {
		return []Neighbor[T]{}, nil
	}

	pending := newMinQueue[nodeID](2 * t.height * t.cfg.MaxEntries)
	best := newBoundedQueue[entry](k)
	pending.push(t.root, t.nodes[t.root].bounds.MinDist(p))

	for pending.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item, _ := pending.pop()
		if best.full() && item.priority >= best.worst() {
			break
		}
		n := &t.nodes[item.value]
		for i := range n.entries {
			e := &n.entries[i]
			d := e.rect.MinDist(p)
			if n.leaf {
				best.offer(*e, d)
				continue
			}
			if best.full() && d >= best.worst() {
				continue
			}
			pending.push(e.child, d)
		}
	}

	items := best.drain()
	result := make([]Neighbor[T], len(items))
	for i, item := range items {
		result[i] = Neighbor[T]{
			Rect:     item.value.rect.Clone(),
			Value:    t.values[item.value.value],
			Distance: item.priority,
		}
	}
	return result, nil
}
