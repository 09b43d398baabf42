package song

import "fmt"

// Dimensions is the number of numeric attributes per song.
const Dimensions = 14

// AttributeNames lists the attributes in vector order.
var AttributeNames = [Dimensions]string{
	"valence", "acousticness", "danceability", "duration_ms", "energy",
	"explicit", "instrumentalness", "key", "liveness", "loudness",
	"mode", "popularity", "speechiness", "tempo",
}

// Header identifies a song.
type Header struct {
	ID          string
	Year        int
	Name        string
	ReleaseDate string
}

// Song is a dataset record with its raw attribute values.
type Song struct {
	Header
	Attributes [Dimensions]float32
}

// Vector returns the song's attributes normalised by n.
func (s *Song) Vector(n Normalizer) []float32 {
	v, _ := n.Normalize(s.Attributes[:])
	return v
}

func (h Header) String() string {
	return fmt.Sprintf("%s (%d, %s)", h.Name, h.Year, h.ID)
}
