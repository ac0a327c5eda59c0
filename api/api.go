package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/papercomputeco/marquee/pkg/logger"
)

// Server is the API server for the movie index and description resolver.
type Server struct {
	config Config
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server. The index, rebuilder and resolver are
// injected so the CLI can share them with the catalog watcher.
func NewServer(config Config) (*Server, error) {
	if config.Index == nil {
		return nil, errors.New("api server requires an index")
	}

	log := config.Logger
	if log == nil {
		log = logger.Nop()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		logger: log,
		app:    app,
	}

	app.Use(fiberrecover.New())

	app.Get("/ping", s.handlePing)

	app.Get("/v1/index/stats", s.handleStats)
	app.Post("/v1/index/rebuild", s.handleRebuild)
	app.Post("/v1/index/reset", s.handleReset)

	app.Get("/v1/search", s.handleSearch)
	app.Get("/v1/recommend", s.handleRecommend)

	app.Get("/v1/resolve", s.handleResolve)
	app.Get("/v1/movies", s.handleMovies)

	if config.MCP != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCP))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
		"mcp", s.config.MCP != nil,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
