// Package configcmder provides the config command for managing persistent
// marquee configuration stored in the .marquee/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/marquee/pkg/cliui"
	"github.com/papercomputeco/marquee/pkg/config"
)

const configLongDesc string = `Manage persistent marquee configuration.

Configuration is stored as config.toml in the .marquee/ directory and provides
default values for command flags. Precedence, highest first: CLI flags,
MARQUEE_* environment variables (MARQUEE_OMDB_API_KEY for omdb.api_key),
config.toml, built-in defaults.

Keys use dotted notation matching the TOML section structure:
  storage.data_dir, storage.catalog_path,
  api.listen, client.api_target,
  vector_store.provider, vector_store.target,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  omdb.api_key, omdb.base_url,
  cache.provider, cache.target, cache.ttl,
  resolver.patterns_file,
  events.provider, events.brokers, events.topic,
  mcp.disabled

Use subcommands to get, set, or list configuration values:
  marquee config set <key> <value>    Set a configuration value
  marquee config get <key>            Get a configuration value
  marquee config list                 List all configuration values

Examples:
  marquee config set omdb.api_key abc123
  marquee config set vector_store.provider sqlite
  marquee config get embedding.model
  marquee config list`

const configShortDesc string = "Manage persistent marquee configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func checkKey(key string) error {
	if config.IsValidConfigKey(key) {
		return nil
	}
	return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
		key, strings.Join(config.ValidConfigKeys(), ", "))
}

// openConfiger resolves the config file and prints where it lives.
func openConfiger(w io.Writer, configDir string) (*config.Configer, error) {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
	} else {
		fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
	}

	return cfger, nil
}
