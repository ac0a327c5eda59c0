// Package marqueecmder
package marqueecmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/marquee/cmd/marquee/config"
	fetchcmder "github.com/papercomputeco/marquee/cmd/marquee/fetch"
	indexcmder "github.com/papercomputeco/marquee/cmd/marquee/index"
	initcmder "github.com/papercomputeco/marquee/cmd/marquee/init"
	resetcmder "github.com/papercomputeco/marquee/cmd/marquee/reset"
	resolvecmder "github.com/papercomputeco/marquee/cmd/marquee/resolve"
	searchcmder "github.com/papercomputeco/marquee/cmd/marquee/search"
	servecmder "github.com/papercomputeco/marquee/cmd/marquee/serve"
	versioncmder "github.com/papercomputeco/marquee/cmd/version"
)

const marqueeLongDesc string = `Marquee is semantic search over your movie catalog.

Index a JSON catalog of movies, then query it by meaning rather than by title,
or describe a half-remembered film and let marquee find it on OMDb.

Get started:
  marquee init                         Create a local .marquee/ directory
  marquee index                        Embed and index the catalog
  marquee search "heist gone wrong"    Query the index
  marquee resolve "boy, boat, tiger"   Find movies from a vague description
  marquee serve                        Run the API and MCP server`

const marqueeShortDesc string = "Marquee - semantic movie search"

func NewMarqueeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "marquee",
		Short:        marqueeShortDesc,
		Long:         marqueeLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .marquee/ directory location")

	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(indexcmder.NewIndexCmd())
	cmd.AddCommand(resetcmder.NewResetCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(searchcmder.NewRecommendCmd())
	cmd.AddCommand(resolvecmder.NewResolveCmd())
	cmd.AddCommand(fetchcmder.NewFetchCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
