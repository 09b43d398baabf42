package index

// Index defines a generic vector index with basic lifecycle methods.
// It enables building from (id, vector) pairs, exact kNN queries by squared
// Euclidean distance, and a binary encoding of the indexed dataset.
type Index interface {
	// Build constructs the index from the given ids and vectors.
	// ids and vectors must have the same length and every vector the same
	// dimension.
	Build(ids []string, vectors [][]float32) error

	// Query runs a kNN search against the index with the provided query vector
	// and returns up to k matches as parallel slices of ids and distances,
	// nearest first. Distances are squared Euclidean.
	Query(query []float32, k int) (ids []string, distances []float64, err error)

	// MarshalBinary serializes the indexed dataset into a byte slice.
	MarshalBinary() ([]byte, error)

	// UnmarshalBinary restores the dataset and rebuilds the index in memory.
	UnmarshalBinary(data []byte) error
}
