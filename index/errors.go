package index

import "errors"

var (
	// ErrInvalidK is returned when a query asks for k <= 0 neighbours.
	ErrInvalidK = errors.New("index: k must be positive")

	// ErrDimensionMismatch is returned when a vector does not match the
	// index dimension.
	ErrDimensionMismatch = errors.New("index: dimension mismatch")

	// ErrLengthMismatch is returned by Build when ids and vectors differ in length.
	ErrLengthMismatch = errors.New("index: ids and vectors length mismatch")
)
