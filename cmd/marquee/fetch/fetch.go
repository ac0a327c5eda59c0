// Package fetchcmder provides the fetch command, which pulls movies from
// OMDb by keyword, or a popular set, and can merge them into the catalog.
package fetchcmder

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

type fetchCommander struct {
	keyword string
	count   int
	save    bool
	jsonOut bool

	catalog     string
	apiKey      string
	baseURL     string
	cacheProv   string
	cacheTarget string
	patterns    string
}

var fetchFlags = []string{
	config.FlagCatalog,
	config.FlagOMDbAPIKey,
	config.FlagOMDbBaseURL,
	config.FlagCacheProv,
	config.FlagCacheTgt,
	config.FlagPatternsFile,
}

const fetchLongDesc string = `Fetch movies from OMDb.

With a keyword, searches OMDb and returns up to --count movies with full
details. Without one, fetches the popular titles used as the resolver's
fallback list.

Use --save to merge the fetched movies into the catalog. Movies already in the
catalog, matched by title, are left as they are. Run "marquee index" afterwards
to embed them.

Examples:
  marquee fetch heist
  marquee fetch "time travel" --count 5 --save
  marquee fetch --save`

const fetchShortDesc string = "Fetch movies from OMDb"

func NewFetchCmd() *cobra.Command {
	cmder := &fetchCommander{}

	cmd := &cobra.Command{
		Use:   "fetch [keyword]",
		Short: fetchShortDesc,
		Long:  fetchLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cmder.keyword = args[0]
			}
			if cmder.count <= 0 {
				return fmt.Errorf("--count must be positive, got %d", cmder.count)
			}

			cfg, err := config.Load(cmd, fetchFlags...)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			debug, _ := cmd.Flags().GetBool("debug")
			configDir, _ := cmd.Flags().GetString("config-dir")

			return cmder.run(cmd.Context(), cmd.OutOrStdout(), cfg, configDir, debug)
		},
	}

	cmd.Flags().IntVarP(&cmder.count, "count", "n", 10, "Number of movies to fetch for a keyword")
	cmd.Flags().BoolVar(&cmder.save, "save", false, "Merge fetched movies into the catalog")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print movies as a JSON catalog")

	config.AddStringFlag(cmd, config.Flags, config.FlagCatalog, &cmder.catalog)
	config.AddStringFlag(cmd, config.Flags, config.FlagOMDbAPIKey, &cmder.apiKey)
	config.AddStringFlag(cmd, config.Flags, config.FlagOMDbBaseURL, &cmder.baseURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagCacheProv, &cmder.cacheProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagCacheTgt, &cmder.cacheTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagPatternsFile, &cmder.patterns)

	return cmd
}

func (c *fetchCommander) run(ctx context.Context, w io.Writer, cfg *config.Config, configDir string, debug bool) error {
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

	var records []movie.Record
	if c.keyword != "" {
		records = r.FetchByKeyword(ctx, c.keyword, c.count)
	} else {
		records = r.Popular(ctx)
	}

	if c.jsonOut {
		if err := cliui.WriteRecordsJSON(w, records); err != nil {
			return err
		}
	} else {
		c.print(w, records)
	}

	if !c.save || len(records) == 0 {
		return nil
	}

	paths, err := config.ResolvePaths(cfg, configDir)
	if err != nil {
		return err
	}
	added, err := mergeIntoCatalog(paths.CatalogPath, records)
	if err != nil {
		return err
	}
	if !c.jsonOut {
		fmt.Fprintf(w, "  %s Added %d movies to %s\n\n",
			cliui.SuccessMark, added, cliui.DimStyle.Render(paths.CatalogPath))
	}
	return nil
}

func (c *fetchCommander) print(w io.Writer, records []movie.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No movies found.")
		return
	}

	var header string
	if c.keyword != "" {
		header = fmt.Sprintf("Found %d movies matching '%s'", len(records), c.keyword)
	} else {
		header = fmt.Sprintf("Fetched %d popular movies", len(records))
	}
	fmt.Fprintf(w, "\n%s\n\n", cliui.HeaderStyle.Render(header))
	cliui.PrintRecords(w, records)
}

// mergeIntoCatalog appends records whose titles are not yet in the catalog
// and returns how many were added.
func mergeIntoCatalog(path string, records []movie.Record) (int, error) {
	catalog, err := movie.LoadCatalog(path)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]struct{}, len(catalog))
	for _, r := range catalog {
		seen[r.Title] = struct{}{}
	}

	added := 0
	for _, r := range records {
		if _, ok := seen[r.Title]; ok {
			continue
		}
		seen[r.Title] = struct{}{}
		catalog = append(catalog, r)
		added++
	}

	if added == 0 {
		return 0, nil
	}
	return added, movie.SaveCatalog(path, catalog)
}
