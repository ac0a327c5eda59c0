package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/papercomputeco/marquee/pkg/dotdir"
)

const defaultCatalogFile = "movies.json"

// Paths are the resolved on-disk locations used by the index and catalog.
type Paths struct {
	DataDir     string
	CatalogPath string
}

// ResolvePaths fills in storage locations left empty in cfg, relative to
// the .marquee/ directory selected by configDir.
func ResolvePaths(cfg *Config, configDir string) (*Paths, error) {
	ddm := dotdir.NewManager()
	p := &Paths{
		DataDir:     cfg.Storage.DataDir,
		CatalogPath: cfg.Storage.CatalogPath,
	}

	if p.DataDir == "" {
		dir, err := ddm.IndexDir(configDir)
		if err != nil {
			return nil, fmt.Errorf("resolving index directory: %w", err)
		}
		p.DataDir = dir
	} else if err := os.MkdirAll(p.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory %s: %w", p.DataDir, err)
	}

	if p.CatalogPath == "" {
		target, err := ddm.Target(configDir)
		if err != nil {
			return nil, fmt.Errorf("resolving catalog path: %w", err)
		}
		p.CatalogPath = filepath.Join(target, defaultCatalogFile)
	}

	return p, nil
}
