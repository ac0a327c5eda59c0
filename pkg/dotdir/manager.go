// Package dotdir resolves the .marquee/ directory that holds the config file
// and, unless configured otherwise, the persisted index artifacts.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the marquee directory.
	dirName = ".marquee"

	// indexDirName is the subdirectory holding the vector index and side table.
	indexDirName = "index"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute path to a .marquee/ directory, creating it when
// needed. Order of precedence:
//  1. Provided override
//  2. Local ./.marquee/ dir
//  3. Home ~/.marquee/ dir
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating marquee directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// IndexDir returns the directory index artifacts are written to when
// storage.data_dir is not configured: <target>/index.
func (m *Manager) IndexDir(overrideDir string) (string, error) {
	target, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(target, indexDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating index directory %s: %w", dir, err)
	}
	return dir, nil
}

// localDirExists checks whether a .marquee/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
