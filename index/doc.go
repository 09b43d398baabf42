// Package index defines a minimal abstraction for vector indexes that can be
// built from (id, vector) pairs and queried for exact k nearest neighbours.
// Implementations in this module are a brute-force baseline and an X-tree.
package index
