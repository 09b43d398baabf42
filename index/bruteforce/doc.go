// Package bruteforce provides a simple vector index that answers kNN queries
// by scanning all vectors and ranking them by squared Euclidean distance. It
// owns the compact binary dataset format shared by the other indexes and
// serves as the reference answer when validating them.
package bruteforce
