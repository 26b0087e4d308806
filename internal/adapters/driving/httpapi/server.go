// Package httpapi exposes the pipeline over a small JSON HTTP API.
package httpapi

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/ports/driving"
	"github.com/custodia-labs/pagewise/internal/logger"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = "127.0.0.1:8080"

// Config configures the HTTP API server.
type Config struct {
	// ListenAddr is the host:port to listen on (default: DefaultAddr).
	ListenAddr string

	// Index is reported by the health endpoint.
	Index string
}

// Server is the HTTP API server.
type Server struct {
	config   Config
	pipeline driving.Pipeline
	app      *fiber.App
}

// NewServer creates the API server and registers its routes.
func NewServer(config Config, pipeline driving.Pipeline) *Server {
	if config.ListenAddr == "" {
		config.ListenAddr = DefaultAddr
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		pipeline: pipeline,
		app:      app,
	}

	app.Get("/healthz", s.handleHealth)
	app.Post("/v1/ingest", s.handleIngest)
	app.Post("/v1/ask", s.handleAsk)

	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server listening on %s", s.config.ListenAddr)
		errCh <- s.app.Listen(s.config.ListenAddr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.app.Shutdown()
	}
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

// statusFor maps a pipeline error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrConfiguration):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrReadyTimeout), errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	case errors.Is(err, domain.ErrFetch),
		errors.Is(err, domain.ErrEmbedding),
		errors.Is(err, domain.ErrGeneration),
		errors.Is(err, domain.ErrIndex),
		errors.Is(err, domain.ErrIndexProvisioning):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func writeError(c *fiber.Ctx, err error) error {
	resp := ErrorResponse{Error: err.Error()}
	if stage, ok := domain.StageOf(err); ok {
		resp.Stage = stage.String()
	}
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		logger.Warn("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(resp)
}
