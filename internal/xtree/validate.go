package xtree

import "fmt"

// Validate checks the structural invariants of the tree: tight bounds at
// every node, entries matching their child's bounds, equal leaf depth,
// non-root fanout within [m, S] and no mixed node kinds.
func (t *Tree[T]) Validate() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	leafDepth := -1
	seen := make(map[nodeID]bool, len(t.nodes))
	count, err := t.validateNode(t.root, 1, &leafDepth, seen)
	if err != nil {
		return err
	}
	if count != len(t.values) {
		return fmt.Errorf("xtree: %d values reachable, %d stored", count, len(t.values))
	}
	if leafDepth != t.height {
		return fmt.Errorf("xtree: leaf depth %d, height %d", leafDepth, t.height)
	}
	return nil
}

func (t *Tree[T]) validateNode(id nodeID, depth int, leafDepth *int, seen map[nodeID]bool) (int, error) {
	if seen[id] {
		return 0, fmt.Errorf("xtree: node %d reachable twice", id)
	}
	seen[id] = true
	n := &t.nodes[id]

	if id != t.root {
		if len(n.entries) < t.cfg.MinEntries || len(n.entries) > t.cfg.MaxSupernode {
			return 0, fmt.Errorf("xtree: node %d holds %d entries, want [%d, %d]",
				id, len(n.entries), t.cfg.MinEntries, t.cfg.MaxSupernode)
		}
	} else if len(n.entries) > t.cfg.MaxSupernode {
		return 0, fmt.Errorf("xtree: root holds %d entries, max %d", len(n.entries), t.cfg.MaxSupernode)
	}

	var union Rect
	for i := range n.entries {
		union = union.Union(n.entries[i].rect)
	}
	if !union.Equal(n.bounds) {
		return 0, fmt.Errorf("xtree: node %d bounds %v, union of entries %v", id, n.bounds, union)
	}

	if n.leaf {
		if *leafDepth == -1 {
			*leafDepth = depth
		} else if *leafDepth != depth {
			return 0, fmt.Errorf("xtree: leaf %d at depth %d, expected %d", id, depth, *leafDepth)
		}
		for i := range n.entries {
			if n.entries[i].child != nilNode {
				return 0, fmt.Errorf("xtree: leaf %d entry %d references node %d", id, i, n.entries[i].child)
			}
		}
		return len(n.entries), nil
	}

	if len(n.entries) == 0 {
		return 0, fmt.Errorf("xtree: internal node %d is empty", id)
	}
	count := 0
	for i := range n.entries {
		e := &n.entries[i]
		if e.child == nilNode {
			return 0, fmt.Errorf("xtree: internal node %d entry %d has no child", id, i)
		}
		if !e.rect.Equal(t.nodes[e.child].bounds) {
			return 0, fmt.Errorf("xtree: node %d entry %d rect %v, child bounds %v",
				id, i, e.rect, t.nodes[e.child].bounds)
		}
		c, err := t.validateNode(e.child, depth+1, leafDepth, seen)
		if err != nil {
			return 0, err
		}
		count += c
	}
	return count, nil
}
