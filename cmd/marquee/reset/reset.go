// Package resetcmder provides the reset command, which replaces the stored
// index with an empty one.
package resetcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/marquee/pkg/cliui"
	"github.com/papercomputeco/marquee/pkg/config"
	"github.com/papercomputeco/marquee/pkg/engine"
)

var resetFlags = []string{
	config.FlagDataDir,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagEmbeddingDims,
	config.FlagEventsProv,
	config.FlagEventsTopic,
}

const resetLongDesc string = `Reset the vector index to empty.

Writes an empty index of the configured embedding dimensionality and clears
the side table. The catalog file is not touched. Searches return no results
until the next "marquee index".

Examples:
  marquee reset
  marquee reset --vector-store-provider qdrant`

const resetShortDesc string = "Reset the vector index to empty"

func NewResetCmd() *cobra.Command {
	var (
		dataDir, vectorStore, vectorTarget string
		eventsProv, eventsTopic            string
		dims                               uint
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: resetShortDesc,
		Long:  resetLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, resetFlags...)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			debug, _ := cmd.Flags().GetBool("debug")
			configDir, _ := cmd.Flags().GetString("config-dir")

			e, err := engine.Open(engine.Options{
				Config:    cfg,
				ConfigDir: configDir,
				Logger:    cliui.NewLogger(debug),
			})
			if err != nil {
				return err
			}
			defer e.Close()

			w := cmd.OutOrStdout()
			fmt.Fprintln(w)
			err = cliui.Step(w, "Resetting index in "+e.Paths.DataDir, func() error {
				_, err := e.Index.Reset(cmd.Context())
				return err
			})
			fmt.Fprintln(w)
			return err
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagDataDir, &dataDir)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &vectorStore)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &vectorTarget)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &dims)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsProv, &eventsProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsTopic, &eventsTopic)

	return cmd
}
