// Package indexcmder provides the index command, which embeds the movie
// catalog and rebuilds the local vector index.
package indexcmder

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/marquee/pkg/cliui"
	"github.com/papercomputeco/marquee/pkg/config"
	"github.com/papercomputeco/marquee/pkg/engine"
	"github.com/papercomputeco/marquee/pkg/index"
)

type indexCommander struct {
	flags config.FlagSet

	catalog      string
	dataDir      string
	vectorStore  string
	vectorTarget string
	embProvider  string
	embTarget    string
	embModel     string
	embDims      uint
}

var indexFlags = []string{
	config.FlagCatalog,
	config.FlagDataDir,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagEventsProv,
	config.FlagEventsTopic,
}

const indexLongDesc string = `Build the vector index from the movie catalog.

Reads the JSON catalog, embeds each movie's "title: description" text with the
configured embedding provider, and replaces the stored index and side table.
An empty catalog leaves an existing index untouched; use "marquee reset" to
clear it.

Examples:
  marquee index
  marquee index --catalog ./movies.json
  marquee index --vector-store-provider sqlite`

const indexShortDesc string = "Build the vector index from the catalog"

func NewIndexCmd() *cobra.Command {
	cmder := &indexCommander{flags: config.Flags}

	var eventsProv, eventsTopic string

	cmd := &cobra.Command{
		Use:   "index",
		Short: indexShortDesc,
		Long:  indexLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, indexFlags...)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			debug, _ := cmd.Flags().GetBool("debug")
			configDir, _ := cmd.Flags().GetString("config-dir")

			return cmder.run(cmd.Context(), cmd.OutOrStdout(), cfg, configDir, debug)
		},
	}

	config.AddStringFlag(cmd, cmder.flags, config.FlagCatalog, &cmder.catalog)
	config.AddStringFlag(cmd, cmder.flags, config.FlagDataDir, &cmder.dataDir)
	config.AddStringFlag(cmd, cmder.flags, config.FlagVectorStoreProv, &cmder.vectorStore)
	config.AddStringFlag(cmd, cmder.flags, config.FlagVectorStoreTgt, &cmder.vectorTarget)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingProv, &cmder.embProvider)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingTgt, &cmder.embTarget)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingModel, &cmder.embModel)
	config.AddUintFlag(cmd, cmder.flags, config.FlagEmbeddingDims, &cmder.embDims)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEventsProv, &eventsProv)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEventsTopic, &eventsTopic)

	return cmd
}

func (c *indexCommander) run(ctx context.Context, w io.Writer, cfg *config.Config, configDir string, debug bool) error {
	e, err := engine.Open(engine.Options{
		Config:    cfg,
		ConfigDir: configDir,
		Logger:    cliui.NewLogger(debug),
	})
	if err != nil {
		return err
	}
	defer e.Close()

	fmt.Fprintln(w)

	var report *index.BuildReport
	err = cliui.Step(w, "Building index from "+e.Paths.CatalogPath, func() error {
		catalog, err := e.Catalog()
		if err != nil {
			return err
		}
		report, err = e.Index.Build(ctx, catalog)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprint(w, renderSummary(summary(report, cfg, e.Paths)))
	return nil
}

func summary(report *index.BuildReport, cfg *config.Config, paths *config.Paths) string {
	var b strings.Builder

	if report.Skipped {
		b.WriteString("## Nothing to index\n\nThe catalog is empty; the stored index was left untouched.\n\n")
	} else {
		fmt.Fprintf(&b, "## Indexed %d movies\n\n", report.Count)
	}

	b.WriteString("| | |\n|---|---|\n")
	if report.BuildID != "" {
		fmt.Fprintf(&b, "| Build | `%s` |\n", report.BuildID)
	}
	fmt.Fprintf(&b, "| Vector store | %s |\n", cfg.VectorStore.Provider)
	fmt.Fprintf(&b, "| Embedding model | %s |\n", cfg.Embedding.Model)
	if report.Dimensions > 0 {
		fmt.Fprintf(&b, "| Dimensions | %d |\n", report.Dimensions)
	}
	fmt.Fprintf(&b, "| Data directory | `%s` |\n", paths.DataDir)
	fmt.Fprintf(&b, "| Elapsed | %s |\n", cliui.FormatDuration(report.Duration))

	return b.String()
}

// renderSummary falls back to the raw markdown if glamour cannot render it.
func renderSummary(md string) string {
	out, err := cliui.RenderMarkdown(md)
	if err != nil {
		return md
	}
	return out
}
