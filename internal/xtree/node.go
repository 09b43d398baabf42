package xtree

// nodeID addresses a node in the tree's arena.
type nodeID int32

const nilNode nodeID = -1

// entry pairs a rectangle with either a child node (internal nodes) or the
// handle of a stored value (leaves).
type entry struct {
	rect  Rect
	child nodeID
	value int32
}

// node is a tree node. A leaf holds only value entries, an internal node
// only child entries. bounds is the union of all entry rectangles and is
// refreshed after every structural change.
type node struct {
	leaf    bool
	entries []entry
	bounds  Rect
}

func (n *node) insert(e entry) {
	n.entries = append(n.entries, e)
	n.bounds = n.bounds.Union(e.rect)
}

func (n *node) remove(i int) entry {
	e := n.entries[i]
	n.entries = append(n.entries[:i], n.entries[i+1:]...)
	n.refresh()
	return e
}

func (n *node) refresh() {
	var bounds Rect
	for i := range n.entries {
		bounds = bounds.Union(n.entries[i].rect)
	}
	n.bounds = bounds
}

func (n *node) isSupernode(maxEntries int) bool {
	return len(n.entries) > maxEntries
}
