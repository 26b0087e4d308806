package httpapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/custodia-labs/pagewise/internal/core/domain"
)

// IngestRequest is the body of POST /v1/ingest.
type IngestRequest struct {
	URL string `json:"url"`
}

// IngestResponse is returned by POST /v1/ingest.
type IngestResponse struct {
	URL       string `json:"url"`
	Title     string `json:"title,omitempty"`
	Index     string `json:"index"`
	Chunks    int    `json:"chunks"`
	Upserted  int    `json:"upserted"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

// AskRequest is the body of POST /v1/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is returned by POST /v1/ask.
type AskResponse struct {
	Answer  string   `json:"answer"`
	Unknown bool     `json:"unknown"`
	Sources []string `json:"sources"`
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"index":  s.config.Index,
	})
}

// handleIngest handles POST /v1/ingest.
func (s *Server) handleIngest(c *fiber.Ctx) error {
	var req IngestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid JSON body"})
	}
	if strings.TrimSpace(req.URL) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "url is required"})
	}

	result, err := s.pipeline.Ingest(c.UserContext(), req.URL)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(IngestResponse{
		URL:       result.URL,
		Title:     result.Title,
		Index:     result.Index,
		Chunks:    result.Chunks,
		Upserted:  result.Upserted,
		ElapsedMS: result.Elapsed.Milliseconds(),
	})
}

// handleAsk handles POST /v1/ask.
func (s *Server) handleAsk(c *fiber.Ctx) error {
	var req AskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid JSON body"})
	}
	if strings.TrimSpace(req.Question) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "question is required"})
	}

	answer, err := s.pipeline.Answer(c.UserContext(), req.Question)
	if err != nil {
		return writeError(c, err)
	}

	sources := answer.Sources()
	if sources == nil {
		sources = []string{}
	}
	return c.JSON(AskResponse{
		Answer:  answer.Text,
		Unknown: answer.Unknown || answer.Text == domain.DontKnowAnswer,
		Sources: sources,
	})
}
