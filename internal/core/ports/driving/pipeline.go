package driving

import (
	"context"

	"github.com/custodia-labs/pagewise/internal/core/domain"
)

// Pipeline is the fixed contract of the question-answering core.
// Both operations block until done and keep no state between calls.
type Pipeline interface {
	// Ingest fetches url, chunks and embeds its text, and upserts the records.
	Ingest(ctx context.Context, url string) (*domain.IngestResult, error)

	// Answer retrieves context for question and returns a grounded answer.
	// An empty index yields domain.DontKnowAnswer, not an error.
	Answer(ctx context.Context, question string) (*domain.Answer, error)
}

// ChatService runs the pipeline on behalf of an explicit session.
type ChatService interface {
	// Ingest runs Pipeline.Ingest and marks the session ready on success.
	Ingest(ctx context.Context, sess *domain.Session, url string) (*domain.IngestResult, error)

	// Ask runs Pipeline.Answer for question and records the exchange.
	Ask(ctx context.Context, sess *domain.Session, question string) (*domain.Answer, error)
}
