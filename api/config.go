// Package api provides the HTTP API for querying and rebuilding the movie
// index and for resolving vague descriptions against the metadata provider.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/papercomputeco/marquee/pkg/index"
	"github.com/papercomputeco/marquee/pkg/movie"
	"github.com/papercomputeco/marquee/pkg/rebuild"
)

// Searcher is the read side of the embedding index.
type Searcher interface {
	Query(ctx context.Context, text string, topK int) ([]index.Result, error)
	Recommend(ctx context.Context, text string, topK int) ([]index.Result, error)
	Stats(ctx context.Context) (*index.Stats, error)
}

// Rebuilder serializes index writes. Implemented by *rebuild.Pool.
type Rebuilder interface {
	Submit(ctx context.Context, job rebuild.Job) (*index.BuildReport, error)
}

// DescriptionResolver maps free text and keywords to provider movies.
// Implemented by *resolver.Resolver.
type DescriptionResolver interface {
	Resolve(ctx context.Context, phrase string, count int) ([]movie.Record, error)
	FetchByKeyword(ctx context.Context, keyword string, count int) []movie.Record
	Popular(ctx context.Context) []movie.Record
}

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// Index serves search, recommend and stats. Required.
	Index Searcher

	// Rebuilder runs rebuild and reset jobs. Without it those routes
	// answer 503.
	Rebuilder Rebuilder

	// Resolver backs /v1/resolve and /v1/movies. Without it those routes
	// answer 503.
	Resolver DescriptionResolver

	// MCP, when set, is mounted at /mcp.
	MCP http.Handler

	Logger *slog.Logger
}
