package bruteforce

import (
	"fmt"
	"sort"

	"github.com/viant/xtree/index"
)

// Index is a brute-force vector index ranking by squared Euclidean distance.
type Index struct {
	ids  []string
	vecs [][]float32
	dim  int
}

// Build loads ids and vectors.
func (i *Index) Build(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("bruteforce: %w: %d != %d", index.ErrLengthMismatch, len(ids), len(vectors))
	}
	if len(ids) == 0 {
		i.ids, i.vecs, i.dim = nil, nil, 0
		return nil
	}
	dim := len(vectors[0])
	for j := range vectors {
		if len(vectors[j]) != dim {
			return fmt.Errorf("bruteforce: %w: vector %d has %d dims, want %d", index.ErrDimensionMismatch, j, len(vectors[j]), dim)
		}
	}
	i.ids = append([]string(nil), ids...)
	i.vecs = append([][]float32(nil), vectors...)
	i.dim = dim
	return nil
}

// Dim returns the dimension of the indexed vectors, 0 when empty.
func (i *Index) Dim() int { return i.dim }

// Len returns the number of indexed vectors.
func (i *Index) Len() int { return len(i.ids) }

// Query returns the k nearest ids by squared Euclidean distance. Equal
// distances keep build order.
func (i *Index) Query(query []float32, k int) ([]string, []float64, error) {
	if k <= 0 {
		return nil, nil, fmt.Errorf("bruteforce: %w: got %d", index.ErrInvalidK, k)
	}
	if i.dim == 0 || len(i.vecs) == 0 {
		return nil, nil, nil
	}
	if len(query) != i.dim {
		return nil, nil, fmt.Errorf("bruteforce: %w: query dim %d != index dim %d", index.ErrDimensionMismatch, len(query), i.dim)
	}
	type scored struct {
		idx  int
		dist float64
	}
	scoreds := make([]scored, len(i.vecs))
	for j := range i.vecs {
		scoreds[j] = scored{idx: j, dist: SquaredL2(query, i.vecs[j])}
	}
	sort.SliceStable(scoreds, func(a, b int) bool { return scoreds[a].dist < scoreds[b].dist })
	if k > len(scoreds) {
		k = len(scoreds)
	}
	outIDs := make([]string, k)
	outDists := make([]float64, k)
	for n := 0; n < k; n++ {
		outIDs[n] = i.ids[scoreds[n].idx]
		outDists[n] = scoreds[n].dist
	}
	return outIDs, outDists, nil
}

// MarshalBinary encodes the indexed dataset, see Encode.
func (i *Index) MarshalBinary() ([]byte, error) {
	return Encode(i.ids, i.vecs, i.dim)
}

// UnmarshalBinary restores the index from bytes produced by MarshalBinary.
func (i *Index) UnmarshalBinary(data []byte) error {
	ids, vecs, err := Decode(data)
	if err != nil {
		return err
	}
	return i.Build(ids, vecs)
}

// SquaredL2 returns the squared Euclidean distance between a and b, which
// must have the same length.
func SquaredL2(a, b []float32) float64 {
	var s float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		s += d * d
	}
	return s
}

var _ index.Index = (*Index)(nil)
