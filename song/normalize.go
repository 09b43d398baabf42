package song

import "fmt"

// Normalizer maps raw attribute values into a comparable range:
// normalized = (raw + Offset) / Divisor, per attribute.
type Normalizer struct {
	Offsets  [Dimensions]float32
	Divisors [Dimensions]float32
}

// DefaultNormalizer scales duration, key, loudness, popularity and tempo to
// roughly [0, 1]; loudness is shifted out of its negative dB range first.
var DefaultNormalizer = Normalizer{
	Offsets:  [Dimensions]float32{9: 60},
	Divisors: [Dimensions]float32{1, 1, 1, 3.49977e+05, 1, 1, 1, 11, 1, 63.85, 1, 76, 1, 221.741},
}

// Normalize returns a normalised copy of raw.
func (n Normalizer) Normalize(raw []float32) ([]float32, error) {
	if len(raw) != Dimensions {
		return nil, fmt.Errorf("song: expected %d attributes, got %d", Dimensions, len(raw))
	}
	out := make([]float32, Dimensions)
	for i, v := range raw {
		out[i] = (v + n.Offsets[i]) / n.divisor(i)
	}
	return out, nil
}

// Denormalize inverts Normalize.
func (n Normalizer) Denormalize(normalized []float32) ([]float32, error) {
	if len(normalized) != Dimensions {
		return nil, fmt.Errorf("song: expected %d attributes, got %d", Dimensions, len(normalized))
	}
	out := make([]float32, Dimensions)
	for i, v := range normalized {
		out[i] = v*n.divisor(i) - n.Offsets[i]
	}
	return out, nil
}

func (n Normalizer) divisor(i int) float32 {
	if n.Divisors[i] == 0 {
		return 1
	}
	return n.Divisors[i]
}
