package vector

import (
	"errors"
	"fmt"
)

var (
	// ErrNotBuilt is returned when the backing store holds no index yet.
	ErrNotBuilt = errors.New("vector index not built")

	// ErrDimensionMismatch is returned when a vector's length differs from
	// the index dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidDimensions is returned for a non-positive dimensionality.
	ErrInvalidDimensions = errors.New("vector dimensions must be positive")

	// ErrConnection is returned when a remote vector store cannot be reached.
	ErrConnection = errors.New("vector store connection failed")
)

// DimensionError reports which vector had the wrong length.
// It matches ErrDimensionMismatch under errors.Is.
type DimensionError struct {
	// Position is the offending vector's index, or -1 for a query vector.
	Position int
	Want     int
	Got      int
}

func (e *DimensionError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("%s: query has %d dimensions, index has %d", ErrDimensionMismatch, e.Got, e.Want)
	}
	return fmt.Sprintf("%s: vector %d has %d dimensions, expected %d", ErrDimensionMismatch, e.Position, e.Got, e.Want)
}

func (e *DimensionError) Is(target error) bool {
	return target == ErrDimensionMismatch
}
