package api

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/marquee/pkg/movie"
)

const (
	defaultResolveCount = 5
	defaultMoviesCount  = 10
)

// ResolveResponse is returned by /v1/resolve.
type ResolveResponse struct {
	Query           string         `json:"query"`
	Recommendations []movie.Record `json:"recommendations"`
	Message         string         `json:"message"`
}

// MoviesResponse is returned by /v1/movies.
type MoviesResponse struct {
	Keyword string         `json:"keyword,omitempty"`
	Movies  []movie.Record `json:"movies"`
	Message string         `json:"message"`
}

// handleResolve handles GET /v1/resolve?query=&count=. The description goes
// straight to the resolver; the local index is not consulted.
func (s *Server) handleResolve(c *fiber.Ctx) error {
	if s.config.Resolver == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "resolver is not configured: an OMDb API key is required",
		})
	}

	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "query parameter is required",
		})
	}

	count, err := positiveQuery(c, "count", defaultResolveCount)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	records, err := s.config.Resolver.Resolve(c.UserContext(), query, count)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	resp := ResolveResponse{Query: query, Recommendations: records}
	if len(records) > 0 {
		resp.Message = fmt.Sprintf("Found %d movies matching your description", len(records))
	} else {
		resp.Message = "No matching movies found. Try a different description."
	}
	return c.JSON(resp)
}

// handleMovies handles GET /v1/movies?keyword=&count=. Without a keyword the
// popular list is returned and count is ignored.
func (s *Server) handleMovies(c *fiber.Ctx) error {
	if s.config.Resolver == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "resolver is not configured: an OMDb API key is required",
		})
	}

	count, err := positiveQuery(c, "count", defaultMoviesCount)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	keyword := c.Query("keyword")
	resp := MoviesResponse{Keyword: keyword}

	if keyword != "" {
		resp.Movies = s.config.Resolver.FetchByKeyword(c.UserContext(), keyword, count)
		resp.Message = fmt.Sprintf("Found %d movies matching '%s'", len(resp.Movies), keyword)
	} else {
		resp.Movies = s.config.Resolver.Popular(c.UserContext())
		resp.Message = fmt.Sprintf("Fetched %d popular movies", len(resp.Movies))
	}

	if len(resp.Movies) == 0 {
		resp.Movies = []movie.Record{}
		resp.Message = "No movies found."
	}
	return c.JSON(resp)
}
