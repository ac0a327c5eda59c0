// Package mcp provides an MCP (Model Context Protocol) server exposing the
// movie index and the description resolver as tools.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/marquee/pkg/index"
	"github.com/papercomputeco/marquee/pkg/logger"
	"github.com/papercomputeco/marquee/pkg/movie"
	"github.com/papercomputeco/marquee/pkg/utils"
)

// Searcher is the read side of the embedding index.
type Searcher interface {
	Query(ctx context.Context, text string, topK int) ([]index.Result, error)
	Recommend(ctx context.Context, text string, topK int) ([]index.Result, error)
}

// Resolver maps a vague description to provider movies.
type Resolver interface {
	Resolve(ctx context.Context, phrase string, count int) ([]movie.Record, error)
}

type Config struct {
	// Index serves the search and recommend tools
	Index Searcher

	// Resolver for description lookups (optional, enables resolve_description)
	Resolver Resolver

	// Noop for empty MCP server
	Noop bool

	Logger *slog.Logger
}

type Server struct {
	config    Config
	logger    *slog.Logger
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the movie tools.
func NewServer(c Config) (*Server, error) {
	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	s := &Server{
		config: c,
		logger: log,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "marquee",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Index == nil {
			return nil, errors.New("index is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        searchToolName,
			Description: searchDescription,
		}, s.handleSearch)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        recommendToolName,
			Description: recommendDescription,
		}, s.handleRecommend)

		if c.Resolver != nil {
			mcp.AddTool(mcpServer, &mcp.Tool{
				Name:        resolveToolName,
				Description: resolveDescription,
			}, s.handleResolve)
		}
	}

	s.mcpServer = mcpServer

	// Stateless: every request is independent, nothing to resume.
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
