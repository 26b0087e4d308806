package services

import (
	"context"

	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/ports/driving"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// ChatService runs the pipeline for a caller-owned session.
// Only the current question reaches retrieval; history is for display.
type ChatService struct {
	pipeline driving.Pipeline
}

// NewChatService creates a chat service.
func NewChatService(pipeline driving.Pipeline) *ChatService {
	return &ChatService{pipeline: pipeline}
}

// Ingest indexes url and marks the session ready.
func (c *ChatService) Ingest(ctx context.Context, sess *domain.Session, url string) (*domain.IngestResult, error) {
	if sess == nil {
		return nil, domain.ConfigError(domain.StageConfig, "session is nil")
	}
	result, err := c.pipeline.Ingest(ctx, url)
	if err != nil {
		return nil, err
	}
	sess.MarkIngested(url)
	return result, nil
}

// Ask answers question and appends both sides of the exchange to the history.
// A failed answer records only the question.
func (c *ChatService) Ask(ctx context.Context, sess *domain.Session, question string) (*domain.Answer, error) {
	if sess == nil {
		return nil, domain.ConfigError(domain.StageConfig, "session is nil")
	}
	sess.Record(domain.RoleUser, question)

	answer, err := c.pipeline.Answer(ctx, question)
	if err != nil {
		return nil, err
	}
	sess.Record(domain.RoleAssistant, answer.Text)
	return answer, nil
}
