// Package vectorutils builds a vector.Driver from configuration.
package vectorutils

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/papercomputeco/marquee/pkg/logger"
	"github.com/papercomputeco/marquee/pkg/vector"
	"github.com/papercomputeco/marquee/pkg/vector/flat"
	"github.com/papercomputeco/marquee/pkg/vector/qdrant"
	"github.com/papercomputeco/marquee/pkg/vector/sqlitevec"
)

const (
	ProviderFlat   = "flat"
	ProviderSQLite = "sqlite"
	ProviderQdrant = "qdrant"
)

type NewVectorDriverOpts struct {
	ProviderType string

	// Target is the remote address for network-backed providers.
	Target string

	// DataDir holds the index file for file-backed providers.
	DataDir string

	Logger *slog.Logger
}

func NewVectorDriver(o *NewVectorDriverOpts) (vector.Driver, error) {
	log := o.Logger
	if log == nil {
		log = logger.Nop()
	}

	switch o.ProviderType {
	case ProviderFlat, "":
		if o.DataDir == "" {
			return nil, errors.New("data directory is required for the flat provider")
		}
		return flat.NewDriver(flat.Config{
			Path: filepath.Join(o.DataDir, flat.DefaultFileName),
		}, log)
	case ProviderSQLite:
		if o.DataDir == "" {
			return nil, errors.New("data directory is required for the sqlite provider")
		}
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath: filepath.Join(o.DataDir, sqlitevec.DefaultFileName),
		}, log)
	case ProviderQdrant:
		return qdrant.NewDriver(qdrant.Config{
			Target: o.Target,
		}, log)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
