package testutils

import (
	"context"
	"slices"
	"sync"

	"github.com/papercomputeco/marquee/pkg/vector"
)

// MockVectorDriver is an in-memory exact L2 driver.
type MockVectorDriver struct {
	mu      sync.Mutex
	built   bool
	dims    int
	vectors [][]float32

	// SearchErr, when set, is returned by Search.
	SearchErr error

	// Padding unfilled slots are appended to every Search result, the way
	// backends report neighbors they could not fill.
	Padding int
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{}
}

func (m *MockVectorDriver) Rebuild(_ context.Context, dimensions int, vectors [][]float32) error {
	if err := vector.CheckVectors(dimensions, vectors); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.built = true
	m.dims = dimensions
	m.vectors = slices.Clone(vectors)
	return nil
}

func (m *MockVectorDriver) Search(_ context.Context, query []float32, k int) (*vector.Neighbors, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	if !m.built {
		return nil, vector.ErrNotBuilt
	}
	if len(query) != m.dims {
		return nil, &vector.DimensionError{Position: -1, Want: m.dims, Got: len(query)}
	}

	order := make([]int, len(m.vectors))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		da, db := vector.L2(query, m.vectors[a]), vector.L2(query, m.vectors[b])
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		default:
			return 0
		}
	})

	filled := min(k, len(order))
	n := vector.NewNeighbors(filled + m.Padding)
	for i := range filled {
		n.Positions[i] = int64(order[i])
		n.Distances[i] = vector.L2(query, m.vectors[order[i]])
	}
	return n, nil
}

func (m *MockVectorDriver) Count(_ context.Context) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.built {
		return 0, 0, vector.ErrNotBuilt
	}
	return len(m.vectors), m.dims, nil
}

// Clear forgets everything, as if nothing had been built.
func (m *MockVectorDriver) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.built = false
	m.vectors = nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}
