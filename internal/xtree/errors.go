package xtree

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidK is returned when a kNN query asks for k <= 0 neighbors.
	ErrInvalidK = errors.New("xtree: k must be positive")

	// ErrMalformedRect is returned for rectangles with mismatched or inverted bounds.
	ErrMalformedRect = errors.New("xtree: malformed rectangle")

	// ErrInvalidConfig is returned by New for inconsistent fanout settings.
	ErrInvalidConfig = errors.New("xtree: invalid config")
)

// ErrDimensionMismatch indicates that a rectangle or query point does not
// match the dimension the tree was created with.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("xtree: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}
