// Package song models the song dataset indexed by the kNN tool: the record
// header, the 14 numeric attributes, their normalisation into a comparable
// range, and a reader for the comma-separated dataset file.
package song
