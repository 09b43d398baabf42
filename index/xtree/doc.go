// Package xtree adapts the in-memory X-tree to the index.Index interface.
// Vectors are stored as degenerate hyperrectangles; queries are exact and
// ranked by squared Euclidean distance. The binary encoding is the
// brute-force dataset format, the tree itself is always rebuilt in memory.
package xtree
