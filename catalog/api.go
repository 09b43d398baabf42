package catalog

import (
	"context"
	"errors"

	"github.com/viant/xtree/song"
)

// ErrNotFound is returned when a song id is not in the catalog.
var ErrNotFound = errors.New("catalog: song not found")

// Match is a song ranked by squared Euclidean distance to a query vector.
type Match struct {
	Song     *song.Song
	Distance float64
}

// Store defines the song catalog API.
type Store interface {
	// AddSongs inserts songs in order; the insertion order breaks distance
	// ties in Nearest.
	AddSongs(ctx context.Context, songs []*song.Song) error

	// Song returns the song with the given id.
	Song(ctx context.Context, id string) (*song.Song, error)

	// Songs calls fn for every song in insertion order with its sequence
	// number and stored vector, stopping at the first error.
	Songs(ctx context.Context, fn func(seq int64, s *song.Song, vector []float32) error) error

	// Count returns the number of stored songs.
	Count(ctx context.Context) (int, error)

	// Nearest performs an exact linear scan for the k songs closest to the
	// normalised query vector.
	Nearest(ctx context.Context, query []float32, k int) ([]Match, error)
}
