package xtree

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/viant/xtree/index"
	"github.com/viant/xtree/index/bruteforce"
	core "github.com/viant/xtree/internal/xtree"
)

// Stats describes the shape of the underlying tree.
type Stats = core.Stats

// Index implements index.Index on top of an X-tree.
type Index struct {
	treeOpts    []core.Option
	parallelism int

	ids  []string
	vecs [][]float32
	dim  int
	tree *core.Tree[int32]
}

// Option configures an Index.
type Option func(*Index)

// WithMaxEntries sets the regular node capacity M.
func WithMaxEntries(m int) Option {
	return func(i *Index) { i.treeOpts = append(i.treeOpts, core.WithMaxEntries(m)) }
}

// WithMinEntries sets the minimum node fill m.
func WithMinEntries(m int) Option {
	return func(i *Index) { i.treeOpts = append(i.treeOpts, core.WithMinEntries(m)) }
}

// WithMaxSupernode sets the supernode ceiling S.
func WithMaxSupernode(s int) Option {
	return func(i *Index) { i.treeOpts = append(i.treeOpts, core.WithMaxSupernode(s)) }
}

// WithOverlapThreshold sets the overlap ratio that turns a split into a supernode.
func WithOverlapThreshold(ratio float64) Option {
	return func(i *Index) { i.treeOpts = append(i.treeOpts, core.WithOverlapThreshold(ratio)) }
}

// WithLogger sets the tree logger.
func WithLogger(logger *zap.Logger) Option {
	return func(i *Index) { i.treeOpts = append(i.treeOpts, core.WithLogger(logger)) }
}

// WithQueryParallelism bounds the goroutines used by QueryBatch. Values
// below 1 use GOMAXPROCS.
func WithQueryParallelism(n int) Option {
	return func(i *Index) { i.parallelism = n }
}

// New creates an empty index.
func New(opts ...Option) *Index {
	i := &Index{}
	for _, opt := range opts {
		opt(i)
	}
	if i.parallelism < 1 {
		i.parallelism = runtime.GOMAXPROCS(0)
	}
	return i
}

// Build constructs the tree from ids and vectors, replacing any previous content.
func (i *Index) Build(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("xtree: %w: %d != %d", index.ErrLengthMismatch, len(ids), len(vectors))
	}
	if len(vectors) == 0 {
		i.ids, i.vecs, i.dim, i.tree = nil, nil, 0, nil
		return nil
	}
	dim := len(vectors[0])
	tree, err := core.New[int32](dim, i.treeOpts...)
	if err != nil {
		return err
	}
	for j, vec := range vectors {
		if err := tree.Insert(core.Point(vec...), int32(j)); err != nil {
			return fmt.Errorf("vector %d: %w", j, translateError(err))
		}
	}
	i.ids = append([]string(nil), ids...)
	i.vecs = append([][]float32(nil), vectors...)
	i.dim = dim
	i.tree = tree
	return nil
}

// Dim returns the indexed dimension, 0 when empty.
func (i *Index) Dim() int { return i.dim }

// Len returns the number of indexed vectors.
func (i *Index) Len() int { return len(i.ids) }

// Stats returns the tree shape; the zero value when empty.
func (i *Index) Stats() Stats {
	if i.tree == nil {
		return Stats{}
	}
	return i.tree.Stats()
}

// Query returns up to k ids nearest to query, with squared Euclidean distances.
func (i *Index) Query(query []float32, k int) ([]string, []float64, error) {
	return i.QueryContext(context.Background(), query, k)
}

// QueryContext is Query with cancellation.
func (i *Index) QueryContext(ctx context.Context, query []float32, k int) ([]string, []float64, error) {
	if k <= 0 {
		return nil, nil, fmt.Errorf("xtree: %w: got %d", index.ErrInvalidK, k)
	}
	if i.tree == nil {
		return nil, nil, nil
	}
	neighbors, err := i.tree.KNNContext(ctx, core.Point(query...), k)
	if err != nil {
		return nil, nil, translateError(err)
	}
	ids := make([]string, len(neighbors))
	dists := make([]float64, len(neighbors))
	for n, nb := range neighbors {
		ids[n] = i.ids[nb.Value]
		dists[n] = nb.Distance
	}
	return ids, dists, nil
}

// QueryBatch answers every query concurrently. Results are positional.
// The index must not be rebuilt while a batch runs.
func (i *Index) QueryBatch(ctx context.Context, queries [][]float32, k int) ([][]string, [][]float64, error) {
	ids := make([][]string, len(queries))
	dists := make([][]float64, len(queries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(i.parallelism)
	for q := range queries {
		g.Go(func() error {
			var err error
			ids[q], dists[q], err = i.QueryContext(ctx, queries[q], k)
			if err != nil {
				return fmt.Errorf("query %d: %w", q, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return ids, dists, nil
}

// MarshalBinary encodes the indexed dataset in the brute-force format.
func (i *Index) MarshalBinary() ([]byte, error) {
	return bruteforce.Encode(i.ids, i.vecs, i.dim)
}

// UnmarshalBinary decodes the brute-force format and rebuilds the tree.
func (i *Index) UnmarshalBinary(data []byte) error {
	ids, vecs, err := bruteforce.Decode(data)
	if err != nil {
		return err
	}
	return i.Build(ids, vecs)
}

func translateError(err error) error {
	var dm *core.ErrDimensionMismatch
	switch {
	case errors.As(err, &dm):
		return fmt.Errorf("xtree: %w: expected %d, got %d", index.ErrDimensionMismatch, dm.Expected, dm.Actual)
	case errors.Is(err, core.ErrInvalidK):
		return fmt.Errorf("%w: %w", index.ErrInvalidK, err)
	}
	return err
}

var _ index.Index = (*Index)(nil)
