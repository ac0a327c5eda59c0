// Package servecmder provides the serve command, which runs the HTTP API and
// MCP server over the movie index, optionally rebuilding on catalog changes.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/papercomputeco/marquee/api"
	mcpapi "github.com/papercomputeco/marquee/api/mcp"
	"github.com/papercomputeco/marquee/pkg/config"
	"github.com/papercomputeco/marquee/pkg/engine"
	"github.com/papercomputeco/marquee/pkg/logger"
	"github.com/papercomputeco/marquee/pkg/omdb"
	"github.com/papercomputeco/marquee/pkg/rebuild"
	"github.com/papercomputeco/marquee/pkg/watch"
)

type ServeCommander struct {
	flags config.FlagSet

	watch   bool
	build   bool
	logFile string

	listen       string
	catalog      string
	dataDir      string
	vectorStore  string
	vectorTarget string
	embProvider  string
	embTarget    string
	embModel     string
	embDims      uint
	apiKey       string
	baseURL      string
	cacheProv    string
	cacheTarget  string
	patterns     string
	eventsProv   string
	eventsTopic  string

	logger *slog.Logger
}

var serveFlags = []string{
	config.FlagAPIListen,
	config.FlagCatalog,
	config.FlagDataDir,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagOMDbAPIKey,
	config.FlagOMDbBaseURL,
	config.FlagCacheProv,
	config.FlagCacheTgt,
	config.FlagPatternsFile,
	config.FlagEventsProv,
	config.FlagEventsTopic,
}

const serveLongDesc string = `Run the marquee API server.

Serves index search, recommendations, rebuilds and resets over HTTP under /v1,
the description resolver under /v1/resolve and /v1/movies, and an MCP endpoint
at /mcp unless mcp.disabled is set. Without an OMDb API key the resolver routes
answer 503 and the MCP resolve_description tool is not offered.

Index writes from HTTP requests and from the catalog watcher go through one
rebuild worker, so they never overlap.

Use --watch to rebuild whenever the catalog file changes, and --build to
rebuild once at startup.

Use --log-file to also write JSON logs to a file.

Examples:
  marquee serve
  marquee serve --listen :9000 --watch
  marquee serve --build --log-file marquee.log`

const serveShortDesc string = "Run the API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{flags: config.Flags}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, serveFlags...)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			debug, err := cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			configDir, _ := cmd.Flags().GetString("config-dir")

			closeLog, err := cmder.setupLogger(debug)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return cmder.run(ctx, cfg, configDir)
		},
	}

	cmd.Flags().BoolVar(&cmder.watch, "watch", false, "Rebuild the index when the catalog file changes")
	cmd.Flags().BoolVar(&cmder.build, "build", false, "Rebuild the index from the catalog at startup")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")

	config.AddStringFlag(cmd, cmder.flags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, cmder.flags, config.FlagCatalog, &cmder.catalog)
	config.AddStringFlag(cmd, cmder.flags, config.FlagDataDir, &cmder.dataDir)
	config.AddStringFlag(cmd, cmder.flags, config.FlagVectorStoreProv, &cmder.vectorStore)
	config.AddStringFlag(cmd, cmder.flags, config.FlagVectorStoreTgt, &cmder.vectorTarget)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingProv, &cmder.embProvider)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingTgt, &cmder.embTarget)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingModel, &cmder.embModel)
	config.AddUintFlag(cmd, cmder.flags, config.FlagEmbeddingDims, &cmder.embDims)
	config.AddStringFlag(cmd, cmder.flags, config.FlagOMDbAPIKey, &cmder.apiKey)
	config.AddStringFlag(cmd, cmder.flags, config.FlagOMDbBaseURL, &cmder.baseURL)
	config.AddStringFlag(cmd, cmder.flags, config.FlagCacheProv, &cmder.cacheProv)
	config.AddStringFlag(cmd, cmder.flags, config.FlagCacheTgt, &cmder.cacheTarget)
	config.AddStringFlag(cmd, cmder.flags, config.FlagPatternsFile, &cmder.patterns)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEventsProv, &cmder.eventsProv)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEventsTopic, &cmder.eventsTopic)

	return cmd
}

// setupLogger writes human readable logs to stderr and, with --log-file,
// JSON logs to the file as well.
func (c *ServeCommander) setupLogger(debug bool) (func(), error) {
	console := logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(term.IsTerminal(int(os.Stderr.Fd()))),
		logger.WithWriter(os.Stderr),
	)

	if c.logFile == "" {
		c.logger = console
		return func() {}, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	c.logger = logger.Multi(
		console,
		logger.New(logger.WithDebug(debug), logger.WithJSON(true), logger.WithWriter(f)),
	)
	return func() { _ = f.Close() }, nil
}

func (c *ServeCommander) run(ctx context.Context, cfg *config.Config, configDir string) error {
	e, err := engine.Open(engine.Options{
		Config:    cfg,
		ConfigDir: configDir,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := e.Close(); err != nil {
			c.logger.Warn("closing index", "error", err)
		}
	}()

	pool, err := rebuild.NewPool(&rebuild.Config{
		Index:   e.Index,
		Catalog: e.Catalog,
		Logger:  c.logger,
	})
	if err != nil {
		return err
	}
	// Registered after the engine's Close so queued jobs drain first.
	defer pool.Close()

	apiConfig := api.Config{
		ListenAddr: cfg.API.Listen,
		Index:      e.Index,
		Rebuilder:  pool,
		Logger:     c.logger,
	}
	mcpConfig := mcpapi.Config{
		Index:  e.Index,
		Logger: c.logger,
	}

	res, err := engine.OpenResolver(ctx, engine.ResolverOptions{Config: cfg, Logger: c.logger})
	switch {
	case errors.Is(err, omdb.ErrMissingAPIKey):
		c.logger.Warn("no OMDb API key, description resolver disabled")
	case err != nil:
		return err
	default:
		defer res.Close()
		apiConfig.Resolver = res
		mcpConfig.Resolver = res
	}

	if !cfg.MCP.Disabled {
		handler, err := newMCPHandler(mcpConfig)
		if err != nil {
			return err
		}
		apiConfig.MCP = handler
	}

	server, err := api.NewServer(apiConfig)
	if err != nil {
		return fmt.Errorf("creating api server: %w", err)
	}

	if c.build {
		pool.Enqueue(rebuild.Job{Kind: rebuild.KindBuild, Origin: "startup"})
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Run(); err != nil {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		c.logger.Info("shutting down")
		return server.Shutdown()
	})

	if c.watch {
		g.Go(func() error {
			return watch.Run(gctx, watch.Config{
				Path: e.Paths.CatalogPath,
				OnChange: func() {
					pool.Enqueue(rebuild.Job{Kind: rebuild.KindBuild, Origin: "watch"})
				},
				Logger: c.logger,
			})
		})
		c.logger.Info("watching catalog", "path", e.Paths.CatalogPath)
	}

	return g.Wait()
}

func newMCPHandler(c mcpapi.Config) (http.Handler, error) {
	s, err := mcpapi.NewServer(c)
	if err != nil {
		return nil, fmt.Errorf("creating mcp server: %w", err)
	}
	return s.Handler(), nil
}
