// Package initcmder provides the init command for initializing a local
// .marquee directory in the current working directory.
package initcmder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/marquee/pkg/cliui"
	"github.com/papercomputeco/marquee/pkg/config"
	"github.com/papercomputeco/marquee/pkg/movie"
)

const (
	dirName     = ".marquee"
	catalogName = "movies.json"
)

const initLongDesc string = `Initialize a new .marquee/ directory in the current working directory.

Creates a local .marquee/ directory that takes precedence over the default
~/.marquee/ directory, holding config.toml, the movie catalog (movies.json),
and the built index.

An existing config.toml or catalog is never overwritten.

Presets pick a vector store:
  flat     in-process exact search persisted to a single file (default)
  sqlite   sqlite-vec virtual table in movie_vectors.db
  qdrant   a qdrant collection on localhost:6334, lookups cached in redis

Examples:
  marquee init
  marquee init --preset sqlite`

const initShortDesc string = "Initialize a local .marquee/ directory"

type initCommander struct {
	preset string
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return cmder.run(cmd.OutOrStdout(), configDir)
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "", "Vector store preset (flat, sqlite, qdrant)")

	return cmd
}

func (c *initCommander) run(w io.Writer, configDir string) error {
	cfg := config.NewDefaultConfig()
	if c.preset != "" {
		var err error
		cfg, err = config.PresetConfig(c.preset)
		if err != nil {
			return err
		}
	}

	dir := configDir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .marquee directory: %w", err)
	}
	fmt.Fprintf(w, "\n  %s %s\n", cliui.KeyStyle.Render("Directory:"), cliui.DimStyle.Render(dir))

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	wrote, err := writeIfMissing(cfger.GetTarget(), func() error {
		return cfger.SaveConfig(cfg)
	})
	if err != nil {
		return err
	}
	report(w, "config.toml", wrote)

	wrote, err = writeIfMissing(filepath.Join(dir, catalogName), func() error {
		return movie.SaveCatalog(filepath.Join(dir, catalogName), nil)
	})
	if err != nil {
		return err
	}
	report(w, catalogName, wrote)

	fmt.Fprintln(w)
	return nil
}

// writeIfMissing runs write only when path does not exist yet.
func writeIfMissing(path string, write func() error) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, os.ErrNotExist):
		return false, fmt.Errorf("checking %s: %w", path, err)
	}

	if err := write(); err != nil {
		return false, err
	}
	return true, nil
}

func report(w io.Writer, name string, wrote bool) {
	if wrote {
		fmt.Fprintf(w, "  %s Created %s\n", cliui.SuccessMark, cliui.ValueStyle.Render(name))
		return
	}
	fmt.Fprintf(w, "  %s %s\n", cliui.DimStyle.Render("-"), cliui.DimStyle.Render(name+" already exists, left unchanged"))
}
