// Package versioncmder
package versioncmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/marquee/pkg/cliui"
	"github.com/papercomputeco/marquee/pkg/utils"
)

func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "displays version",
		Long:  "displays the version, commit, and build time of this marquee binary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.OutOrStdout())
		},
	}

	return cmd
}

func run(w io.Writer) error {
	for _, row := range [][2]string{
		{"Version:", utils.Version},
		{"Sha:", utils.Sha},
		{"Built at:", utils.Buildtime},
	} {
		fmt.Fprintf(w, "%s %s\n", cliui.KeyStyle.Render(row[0]), cliui.ValueStyle.Render(row[1]))
	}
	return nil
}
