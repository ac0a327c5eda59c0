// Package flat provides an in-process brute-force L2 index persisted to a
// single binary file.
//
// File layout (little-endian):
//
//	magic   [8]byte  "MQFLAT01"
//	dims    uint32
//	count   uint32
//	vectors count*dims float32
package flat

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/papercomputeco/marquee/pkg/movie"
	"github.com/papercomputeco/marquee/pkg/vector"
)

// DefaultFileName is the index file written inside the data directory.
const DefaultFileName = "movie_vectors.flat"

var magic = [8]byte{'M', 'Q', 'F', 'L', 'A', 'T', '0', '1'}

// Config holds configuration for the flat driver.
type Config struct {
	// Path is the index file location.
	Path string
}

// Driver implements vector.Driver with an exhaustive scan over vectors held in
// memory. The in-memory copy is reloaded whenever the file on disk changes,
// so several processes can share one index file.
type Driver struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	dims    int
	vectors [][]float32
	loaded  bool
	modTime time.Time
	size    int64
}

// NewDriver creates a flat driver. Nothing is read until the first Search or Count.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	if c.Path == "" {
		return nil, errors.New("index path is required")
	}

	return &Driver{
		path:   c.Path,
		logger: logger,
	}, nil
}

// Rebuild writes vectors to the index file, replacing any previous contents.
func (d *Driver) Rebuild(_ context.Context, dimensions int, vectors [][]float32) error {
	if err := vector.CheckVectors(dimensions, vectors); err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.Grow(16 + len(vectors)*dimensions*4)
	buf.Write(magic[:])
	_ = binary.Write(&buf, binary.LittleEndian, uint32(dimensions))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(vectors)))
	for _, v := range vectors {
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := movie.WriteFileAtomic(d.path, buf.Bytes()); err != nil {
		return fmt.Errorf("writing flat index: %w", err)
	}

	d.dims = dimensions
	d.vectors = vectors
	d.loaded = true
	if info, err := os.Stat(d.path); err == nil {
		d.modTime, d.size = info.ModTime(), info.Size()
	}

	d.logger.Debug("flat index rebuilt",
		"path", d.path,
		"count", len(vectors),
		"dimensions", dimensions,
	)
	return nil
}

// Search scans every stored vector and returns the k closest.
// Ties keep insertion order.
func (d *Driver) Search(_ context.Context, query []float32, k int) (*vector.Neighbors, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.refresh(); err != nil {
		return nil, err
	}

	if k <= 0 {
		return vector.NewNeighbors(0), nil
	}

	if len(query) != d.dims {
		return nil, &vector.DimensionError{Position: -1, Want: d.dims, Got: len(query)}
	}

	type candidate struct {
		pos  int
		dist float32
	}
	candidates := make([]candidate, len(d.vectors))
	for i, v := range d.vectors {
		candidates[i] = candidate{pos: i, dist: vector.L2(query, v)}
	}
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		switch {
		case a.dist < b.dist:
			return -1
		case a.dist > b.dist:
			return 1
		default:
			return 0
		}
	})

	n := vector.NewNeighbors(min(k, len(candidates)))
	for i := range n.Len() {
		n.Positions[i] = int64(candidates[i].pos)
		n.Distances[i] = candidates[i].dist
	}
	return n, nil
}

// Count returns the stored vector count and dimensionality.
func (d *Driver) Count(_ context.Context) (int, int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.refresh(); err != nil {
		return 0, 0, err
	}
	return len(d.vectors), d.dims, nil
}

// Close drops the in-memory copy.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.vectors = nil
	d.loaded = false
	return nil
}

// refresh reloads the index file if it changed since the last load.
// Callers must hold d.mu.
func (d *Driver) refresh() error {
	info, err := os.Stat(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			d.vectors, d.dims, d.loaded = nil, 0, false
			return vector.ErrNotBuilt
		}
		return fmt.Errorf("reading flat index: %w", err)
	}

	if d.loaded && info.ModTime().Equal(d.modTime) && info.Size() == d.size {
		return nil
	}

	f, err := os.Open(d.path)
	if err != nil {
		return fmt.Errorf("opening flat index: %w", err)
	}
	defer f.Close()

	dims, vectors, err := decode(f)
	if err != nil {
		return fmt.Errorf("decoding flat index %s: %w", d.path, err)
	}

	d.dims, d.vectors, d.loaded = dims, vectors, true
	d.modTime, d.size = info.ModTime(), info.Size()

	d.logger.Debug("flat index loaded",
		"path", d.path,
		"count", len(vectors),
		"dimensions", dims,
	)
	return nil
}

func decode(r io.Reader) (int, [][]float32, error) {
	var header struct {
		Magic [8]byte
		Dims  uint32
		Count uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return 0, nil, fmt.Errorf("reading header: %w", err)
	}
	if header.Magic != magic {
		return 0, nil, errors.New("not a flat index file")
	}
	if header.Dims == 0 {
		return 0, nil, vector.ErrInvalidDimensions
	}

	vectors := make([][]float32, header.Count)
	for i := range vectors {
		v := make([]float32, header.Dims)
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return 0, nil, fmt.Errorf("reading vector %d: %w", i, err)
		}
		vectors[i] = v
	}
	return int(header.Dims), vectors, nil
}

var _ vector.Driver = (*Driver)(nil)
