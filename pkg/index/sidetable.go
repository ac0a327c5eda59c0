package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/papercomputeco/marquee/pkg/movie"
)

// SideTableFileName is the JSON side table written next to the vector index.
const SideTableFileName = "movie_embeddings.json"

var errSideTableMissing = errors.New("side table not found")

// Entry is a side table row, keyed by title in the persisted object.
type Entry struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Rating      float64 `json:"rating"`
	Watched     bool    `json:"watched"`
}

type sideTable struct {
	path string
}

func newSideTable(dataDir string) *sideTable {
	return &sideTable{path: filepath.Join(dataDir, SideTableFileName)}
}

func (s *sideTable) load() (map[string]Entry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errSideTableMissing
	}
	if err != nil {
		return nil, fmt.Errorf("reading side table: %w", err)
	}

	entries := map[string]Entry{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding side table %s: %w", s.path, err)
	}
	return entries, nil
}

func (s *sideTable) save(entries map[string]Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding side table: %w", err)
	}
	if err := movie.WriteFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("writing side table: %w", err)
	}
	return nil
}
