// Package resolvecmder provides the resolve command, which turns a vague
// description into concrete movies using OMDb.
package resolvecmder

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/marquee/pkg/cliui"
	"github.com/papercomputeco/marquee/pkg/config"
	"github.com/papercomputeco/marquee/pkg/engine"
	"github.com/papercomputeco/marquee/pkg/movie"
	"github.com/papercomputeco/marquee/pkg/omdb"
)

type resolveCommander struct {
	description string
	count       int
	jsonOut     bool

	apiKey      string
	baseURL     string
	cacheProv   string
	cacheTarget string
	patterns    string
}

var resolveFlags = []string{
	config.FlagOMDbAPIKey,
	config.FlagOMDbBaseURL,
	config.FlagCacheProv,
	config.FlagCacheTgt,
	config.FlagPatternsFile,
}

const resolveLongDesc string = `Find movies from a vague description.

Tries, in order: curated keyword patterns, quoted phrases, a combination of
the first keywords, individual keywords, and finally a list of popular titles,
until enough distinct movies are found. Requires an OMDb API key, set with
--omdb-api-key, "marquee config set omdb.api_key", or MARQUEE_OMDB_API_KEY.

Use --json to print the matches in catalog format.

Examples:
  marquee resolve "boy on a boat with a tiger"
  marquee resolve 'the one with "dream within a dream"' --count 3
  marquee resolve "space horror" --json >> found.json`

const resolveShortDesc string = "Find movies from a vague description"

func NewResolveCmd() *cobra.Command {
	cmder := &resolveCommander{}

	cmd := &cobra.Command{
		Use:   "resolve <description>",
		Short: resolveShortDesc,
		Long:  resolveLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.description = args[0]
			if cmder.count <= 0 {
				return fmt.Errorf("--count must be positive, got %d", cmder.count)
			}

			cfg, err := config.Load(cmd, resolveFlags...)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			debug, _ := cmd.Flags().GetBool("debug")

			return cmder.run(cmd.Context(), cmd.OutOrStdout(), cfg, debug)
		},
	}

	cmd.Flags().IntVarP(&cmder.count, "count", "n", 5, "Number of movies to return")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print matches as a JSON catalog")

	config.AddStringFlag(cmd, config.Flags, config.FlagOMDbAPIKey, &cmder.apiKey)
	config.AddStringFlag(cmd, config.Flags, config.FlagOMDbBaseURL, &cmder.baseURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagCacheProv, &cmder.cacheProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagCacheTgt, &cmder.cacheTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagPatternsFile, &cmder.patterns)

	return cmd
}

func (c *resolveCommander) run(ctx context.Context, w io.Writer, cfg *config.Config, debug bool) error {
	r, err := engine.OpenResolver(ctx, engine.ResolverOptions{
		Config: cfg,
		Logger: cliui.NewLogger(debug),
	})
	if errors.Is(err, omdb.ErrMissingAPIKey) {
		return fmt.Errorf("%w: set omdb.api_key or MARQUEE_OMDB_API_KEY", err)
	}
	if err != nil {
		return err
	}
	defer r.Close()

	records, err := r.Resolve(ctx, c.description, c.count)
	if err != nil {
		return err
	}

	if c.jsonOut {
		return cliui.WriteRecordsJSON(w, records)
	}
	printResolved(w, records)
	return nil
}

func printResolved(w io.Writer, records []movie.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No matching movies found. Try a different description.")
		return
	}

	fmt.Fprintf(w, "\n%s\n\n",
		cliui.HeaderStyle.Render(fmt.Sprintf("Found %d movies matching your description", len(records))),
	)
	cliui.PrintRecords(w, records)
}
