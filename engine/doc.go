// Package engine provides helpers for working with the modernc.org/sqlite
// driver in this module: opening connections and registering the distance
// scalar functions used by the song catalog's linear scan.
package engine
