package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/marquee/pkg/index"
	"github.com/papercomputeco/marquee/pkg/movie"
)

const (
	defaultTopK  = 5
	defaultCount = 5
)

var (
	searchToolName    = "search_movies"
	searchDescription = "Search the local movie catalog using semantic search. Returns the catalog entries closest to the query text with a similarity score between 0 and 1."

	recommendToolName    = "recommend_movies"
	recommendDescription = "Recommend movies from the local catalog that match a description, best match first."

	resolveToolName    = "resolve_description"
	resolveDescription = "Find real movies matching a vague description (for example \"a boy on a boat with a tiger\") by searching the OMDb metadata service. Results are not limited to the local catalog."
)

// IndexInput is the input of the search and recommend tools.
type IndexInput struct {
	Query string `json:"query" jsonschema:"the text to match against movie titles and descriptions"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of results to return (default: 5)"`
}

// IndexOutput is the output of the search and recommend tools.
type IndexOutput struct {
	Query   string         `json:"query"`
	Results []index.Result `json:"results"`
	Count   int            `json:"count"`
}

// ResolveInput is the input of the resolve_description tool.
type ResolveInput struct {
	Description string `json:"description" jsonschema:"a vague description of the movie"`
	Count       int    `json:"count,omitempty" jsonschema:"number of movies to return (default: 5)"`
}

// ResolveOutput is the output of the resolve_description tool.
type ResolveOutput struct {
	Description string         `json:"description"`
	Movies      []movie.Record `json:"movies"`
	Count       int            `json:"count"`
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input IndexInput) (*mcp.CallToolResult, IndexOutput, error) {
	return s.runIndexTool(ctx, searchToolName, s.config.Index.Query, input)
}

func (s *Server) handleRecommend(ctx context.Context, _ *mcp.CallToolRequest, input IndexInput) (*mcp.CallToolResult, IndexOutput, error) {
	return s.runIndexTool(ctx, recommendToolName, s.config.Index.Recommend, input)
}

func (s *Server) runIndexTool(
	ctx context.Context,
	tool string,
	run func(ctx context.Context, text string, topK int) ([]index.Result, error),
	input IndexInput,
) (*mcp.CallToolResult, IndexOutput, error) {
	if input.Query == "" {
		return errorResult("query is required"), IndexOutput{}, nil
	}

	topK := input.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	s.logger.Debug("MCP index request", "tool", tool, "query", input.Query, "top_k", topK)

	results, err := run(ctx, input.Query, topK)
	if err != nil {
		s.logger.Error("failed to query index", "tool", tool, "error", err)
		return errorResult("Failed to query index: %v", err), IndexOutput{}, nil
	}

	output := IndexOutput{
		Query:   input.Query,
		Results: results,
		Count:   len(results),
	}
	return textResult(s, output)
}

func (s *Server) handleResolve(ctx context.Context, _ *mcp.CallToolRequest, input ResolveInput) (*mcp.CallToolResult, ResolveOutput, error) {
	if input.Description == "" {
		return errorResult("description is required"), ResolveOutput{}, nil
	}

	count := input.Count
	if count <= 0 {
		count = defaultCount
	}

	s.logger.Debug("MCP resolve request", "description", input.Description, "count", count)

	records, err := s.config.Resolver.Resolve(ctx, input.Description, count)
	if err != nil {
		return errorResult("Failed to resolve description: %v", err), ResolveOutput{}, nil
	}

	output := ResolveOutput{
		Description: input.Description,
		Movies:      records,
		Count:       len(records),
	}
	return textResult(s, output)
}

// textResult mirrors structured output as JSON text for clients that only
// read content blocks.
func textResult[T any](s *Server, output T) (*mcp.CallToolResult, T, error) {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		s.logger.Error("failed to marshal tool output", "error", err)
		var zero T
		return errorResult("Failed to serialize results: %v", err), zero, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}
