package api

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/marquee/pkg/index"
)

const defaultTopK = 5

// SearchResponse is returned by /v1/search and /v1/recommend.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []index.Result `json:"results"`
	Count   int            `json:"count"`
}

type indexQuery func(ctx context.Context, text string, topK int) ([]index.Result, error)

// handleSearch handles GET /v1/search requests.
// Query parameters:
//   - query (required): the search query text
//   - top_k (optional, default 5): number of results to return
//   - first (optional): when "true", only the best match is returned and
//     an empty index answers 404
func (s *Server) handleSearch(c *fiber.Ctx) error {
	return s.queryIndex(c, s.config.Index.Query)
}

// handleRecommend handles GET /v1/recommend requests. Same parameters as
// /v1/search.
func (s *Server) handleRecommend(c *fiber.Ctx) error {
	return s.queryIndex(c, s.config.Index.Recommend)
}

func (s *Server) queryIndex(c *fiber.Ctx, run indexQuery) error {
	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "query parameter is required",
		})
	}

	topK, err := positiveQuery(c, "top_k", defaultTopK)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	first := c.QueryBool("first", false)
	if first {
		topK = 1
	}

	results, err := run(c.UserContext(), query, topK)
	if err != nil {
		s.logger.Error("index query failed", "query", query, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	if first && len(results) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "no match found"})
	}

	return c.JSON(SearchResponse{
		Query:   query,
		Results: results,
		Count:   len(results),
	})
}
