// Package catalog stores the song dataset in SQLite. Each row keeps the song
// header, its raw attributes and the normalised vector the kNN index is built
// from, so results can be resolved to songs and cross-checked with an exact
// SQL linear scan.
package catalog
