// Package vector defines the exact nearest-neighbor structure the movie index
// is built on, and its backends.
//
// Positions are the dense 0..N-1 insertion order of the vectors handed to
// Rebuild. Distances are Euclidean (L2).
package vector

import (
	"context"
	"math"
)

// PaddingPosition marks an unused slot in Neighbors.
const PaddingPosition int64 = -1

// PaddingDistance accompanies PaddingPosition.
const PaddingDistance float32 = math.MaxFloat32

// Neighbors is the result of a k-nearest search: parallel slices of length
// min(k, stored count), ordered by ascending distance. Slots a backend could
// not fill hold PaddingPosition and PaddingDistance.
type Neighbors struct {
	Distances []float32
	Positions []int64
}

// Len returns the number of slots, padding included.
func (n *Neighbors) Len() int {
	return len(n.Positions)
}

// NewNeighbors allocates k padded slots.
func NewNeighbors(k int) *Neighbors {
	n := &Neighbors{
		Distances: make([]float32, k),
		Positions: make([]int64, k),
	}
	for i := range k {
		n.Distances[i] = PaddingDistance
		n.Positions[i] = PaddingPosition
	}
	return n
}

// Driver is a flat, exact L2 nearest-neighbor structure.
type Driver interface {
	// Rebuild replaces everything stored with vectors, in order. Every vector
	// must have the given dimensionality. An empty vectors slice produces an
	// empty structure of that dimensionality.
	Rebuild(ctx context.Context, dimensions int, vectors [][]float32) error

	// Search returns the k nearest stored vectors to query. The result never
	// has more slots than there are stored vectors, whatever k is.
	// Returns ErrNotBuilt if Rebuild has never been called against the
	// backing store.
	Search(ctx context.Context, query []float32, k int) (*Neighbors, error)

	// Count returns the number of stored vectors and their dimensionality.
	// Returns ErrNotBuilt if nothing has been built.
	Count(ctx context.Context) (count int, dimensions int, err error)

	// Close releases any resources held by the driver.
	Close() error
}

// L2 returns the Euclidean distance between a and b, which must be the same length.
func L2(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum))
}

// CheckVectors validates that every vector has the given dimensionality.
func CheckVectors(dimensions int, vectors [][]float32) error {
	if dimensions <= 0 {
		return ErrInvalidDimensions
	}
	for i, v := range vectors {
		if len(v) != dimensions {
			return &DimensionError{Position: i, Want: dimensions, Got: len(v)}
		}
	}
	return nil
}
