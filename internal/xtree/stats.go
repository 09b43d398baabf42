package xtree

import "unsafe"

// Stats summarises the shape of a tree.
type Stats struct {
	Items      int
	Nodes      int
	Leaves     int
	Supernodes int
	Height     int
	// Splits counts materialised node splits since creation.
	Splits int
	// Extensions counts splits abandoned in favour of a supernode.
	Extensions int
	// MaxFanout is the largest entry count of any node.
	MaxFanout int
	// ApproxBytes estimates memory held by nodes, entries and bounds.
	ApproxBytes int64
}

// Stats walks the tree and returns its current shape.
func (t *Tree[T]) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := Stats{
		Items:      len(t.values),
		Nodes:      len(t.nodes),
		Height:     t.height,
		Splits:     t.splits,
		Extensions: t.extensions,
	}
	rectBytes := int64(unsafe.Sizeof(Rect{})) + int64(2*t.dim)*int64(unsafe.Sizeof(float32(0)))
	entryBytes := int64(unsafe.Sizeof(entry{})) + rectBytes - int64(unsafe.Sizeof(Rect{}))
	for i := range t.nodes {
		n := &t.nodes[i]
		if n.leaf {
			s.Leaves++
		}
		if n.isSupernode(t.cfg.MaxEntries) {
			s.Supernodes++
		}
		s.MaxFanout = max(s.MaxFanout, len(n.entries))
		s.ApproxBytes += int64(unsafe.Sizeof(node{})) + rectBytes + int64(cap(n.entries))*entryBytes
	}
	return s
}
