package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/marquee/pkg/cliui"
	"github.com/papercomputeco/marquee/pkg/config"
)

const listLongDesc string = `List all configuration values.

Displays every configuration key with its value from config.toml, or the
built-in default. The OMDb API key is masked.

Examples:
  marquee config list`

const listShortDesc string = "List all configuration values"

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runList(cmd.OutOrStdout(), configDir)
		},
	}

	return cmd
}

func runList(w io.Writer, configDir string) error {
	cfger, err := openConfiger(w, configDir)
	if err != nil {
		return err
	}

	keys := config.ValidConfigKeys()

	maxLen := 0
	for _, k := range keys {
		maxLen = max(maxLen, len(k))
	}

	for _, key := range keys {
		value, err := cfger.GetConfigValue(key)
		if err != nil {
			return err
		}

		name := cliui.KeyStyle.Render(fmt.Sprintf("%-*s", maxLen, key))
		switch {
		case value == "":
			fmt.Fprintf(w, "  %s  %s\n", name, cliui.DimStyle.Render("<not set>"))
		case key == "omdb.api_key":
			fmt.Fprintf(w, "  %s  %s\n", name, cliui.ValueStyle.Render(mask(value)))
		default:
			fmt.Fprintf(w, "  %s  %s\n", name, cliui.ValueStyle.Render(value))
		}
	}
	fmt.Fprintln(w)

	return nil
}

// mask keeps the last four characters of a secret.
func mask(s string) string {
	const visible = 4
	if len(s) <= visible {
		return "****"
	}
	return "****" + s[len(s)-visible:]
}
