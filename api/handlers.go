package api

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/marquee/pkg/movie"
	"github.com/papercomputeco/marquee/pkg/rebuild"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleStats returns what the index currently holds.
func (s *Server) handleStats(c *fiber.Ctx) error {
	stats, err := s.config.Index.Stats(c.UserContext())
	if err != nil {
		s.logger.Error("failed to read index stats", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read index stats"})
	}
	return c.JSON(stats)
}

// handleRebuild handles POST /v1/index/rebuild. The body is a JSON array of
// records; an empty body rebuilds from the configured catalog file.
func (s *Server) handleRebuild(c *fiber.Ctx) error {
	if s.config.Rebuilder == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "rebuild is not configured",
		})
	}

	job := rebuild.Job{Kind: rebuild.KindBuild, Origin: "api"}

	if body := bytes.TrimSpace(c.Body()); len(body) > 0 {
		records, err := movie.ParseCatalog(body)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}
		job.Records = records
	}

	return s.submit(c, job)
}

// handleReset handles POST /v1/index/reset.
func (s *Server) handleReset(c *fiber.Ctx) error {
	if s.config.Rebuilder == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "reset is not configured",
		})
	}

	return s.submit(c, rebuild.Job{Kind: rebuild.KindReset, Origin: "api"})
}

func (s *Server) submit(c *fiber.Ctx, job rebuild.Job) error {
	report, err := s.config.Rebuilder.Submit(c.UserContext(), job)
	if err != nil {
		if errors.Is(err, rebuild.ErrClosed) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: err.Error()})
		}
		s.logger.Error("index job failed", "kind", job.Kind, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}
	return c.JSON(report)
}

// positiveQuery reads an optional positive integer query parameter.
func positiveQuery(c *fiber.Ctx, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return n, nil
}
