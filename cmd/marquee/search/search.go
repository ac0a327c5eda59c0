// Package searchcmder provides the search and recommend commands for
// semantic queries over the movie index.
package searchcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/marquee/api"
	"github.com/papercomputeco/marquee/pkg/cliui"
	"github.com/papercomputeco/marquee/pkg/config"
	"github.com/papercomputeco/marquee/pkg/engine"
	"github.com/papercomputeco/marquee/pkg/index"
)

type searchCommander struct {
	// endpoint is the API path used with --remote: "/v1/search" or "/v1/recommend".
	endpoint string

	query  string
	topK   int
	first  bool
	quiet  bool
	remote bool

	apiTarget    string
	catalog      string
	dataDir      string
	vectorStore  string
	vectorTarget string
	embProvider  string
	embTarget    string
	embModel     string
	embDims      uint
}

var searchFlags = []string{
	config.FlagAPITarget,
	config.FlagDataDir,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
}

const searchLongDesc string = `Search the movie index by meaning.

Embeds the query and returns the nearest catalog movies, best first, each with
a similarity score between 0 and 1. Queries run against the local index unless
--remote is given, in which case a running "marquee serve" is asked instead.

Use --first to print only the single best match.
Use --quiet to print only titles, one per line.

Examples:
  marquee search "a heist that goes wrong"
  marquee search "space horror" --top 3
  marquee search "space horror" --first --quiet
  marquee search "courtroom drama" --remote --api-target http://localhost:8081`

const searchShortDesc string = "Search the movie index"

func NewSearchCmd() *cobra.Command {
	return newQueryCmd("search <query>", searchShortDesc, searchLongDesc, "/v1/search")
}

func newQueryCmd(use, short, long, endpoint string) *cobra.Command {
	cmder := &searchCommander{endpoint: endpoint}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]
			if cmder.topK <= 0 {
				return fmt.Errorf("--top must be positive, got %d", cmder.topK)
			}

			cfg, err := config.Load(cmd, searchFlags...)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			debug, _ := cmd.Flags().GetBool("debug")
			configDir, _ := cmd.Flags().GetString("config-dir")

			results, err := cmder.fetch(cmd.Context(), cfg, configDir, debug)
			if err != nil {
				return err
			}
			return cmder.print(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().IntVarP(&cmder.topK, "top", "k", 5, "Number of results to return")
	cmd.Flags().BoolVar(&cmder.first, "first", false, "Return only the best match")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only titles, one per line")
	cmd.Flags().BoolVar(&cmder.remote, "remote", false, "Query a running marquee API server")

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagDataDir, &cmder.dataDir)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &cmder.vectorStore)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &cmder.vectorTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.embProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.embTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.embModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &cmder.embDims)

	return cmd
}

func (c *searchCommander) limit() int {
	if c.first {
		return 1
	}
	return c.topK
}

func (c *searchCommander) fetch(ctx context.Context, cfg *config.Config, configDir string, debug bool) ([]index.Result, error) {
	if c.remote {
		out, err := QueryAPI(ctx, cfg.Client.APITarget, c.endpoint, c.query, c.limit())
		if err != nil {
			return nil, err
		}
		return out.Results, nil
	}

	e, err := engine.Open(engine.Options{
		Config:    cfg,
		ConfigDir: configDir,
		Logger:    cliui.NewLogger(debug),
	})
	if err != nil {
		return nil, err
	}
	defer e.Close()

	if c.endpoint == recommendEndpoint {
		return e.Index.Recommend(ctx, c.query, c.limit())
	}
	return e.Index.Query(ctx, c.query, c.limit())
}

func (c *searchCommander) print(w io.Writer, results []index.Result) error {
	if len(results) == 0 {
		if c.quiet {
			return nil
		}
		if c.first {
			fmt.Fprintln(w, "No match found.")
		} else {
			fmt.Fprintln(w, "No results found.")
		}
		return nil
	}

	if c.quiet {
		for _, r := range results {
			fmt.Fprintln(w, r.Title)
		}
		return nil
	}

	fmt.Fprintf(w, "\n%s %s\n\n",
		cliui.HeaderStyle.Render("Results for:"),
		cliui.KeyStyle.Render(strconv.Quote(c.query)),
	)
	for i, r := range results {
		printResult(w, i+1, r)
	}
	return nil
}

func printResult(w io.Writer, rank int, r index.Result) {
	fmt.Fprintf(w, "  %s  %s  %s\n",
		cliui.RankStyle.Render(fmt.Sprintf("#%d", rank)),
		cliui.ValueStyle.Render(r.Title),
		cliui.StepStyle.Render(fmt.Sprintf("score: %.4f", r.Score)),
	)

	var meta []string
	if r.Rating > 0 {
		meta = append(meta, fmt.Sprintf("rating %.1f", r.Rating))
	}
	if r.Watched {
		meta = append(meta, "watched")
	}
	if len(meta) > 0 {
		fmt.Fprintf(w, "      %s\n", cliui.DimStyle.Render(strings.Join(meta, " · ")))
	}

	if r.Description != "" {
		desc := strings.ReplaceAll(r.Description, "\n", " ")
		fmt.Fprintf(w, "      %s\n", cliui.ValueStyle.Render(cliui.Truncate(desc, 76)))
	}
	fmt.Fprintln(w)
}

// QueryAPI calls /v1/search or /v1/recommend on a marquee API server.
func QueryAPI(ctx context.Context, apiTarget, endpoint, query string, topK int) (*api.SearchResponse, error) {
	u, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	u.Path = endpoint
	q := u.Query()
	q.Set("query", query)
	q.Set("top_k", strconv.Itoa(topK))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to marquee API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr api.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("search request failed (HTTP %d): %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("search request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var out api.SearchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	return &out, nil
}
