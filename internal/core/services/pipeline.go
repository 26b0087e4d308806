package services

import (
	"context"

	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/ports/driving"
	"github.com/custodia-labs/pagewise/internal/logger"
)

// Ensure Pipeline implements the interface.
var _ driving.Pipeline = (*Pipeline)(nil)

// Pipeline wires the ingestion and query paths together.
type Pipeline struct {
	ingestor  *Ingestor
	retriever *Retriever
	answerer  *Answerer
	topK      int
}

// NewPipeline creates a pipeline. topK < 1 uses domain.DefaultTopK.
func NewPipeline(ingestor *Ingestor, retriever *Retriever, answerer *Answerer, topK int) *Pipeline {
	if topK < 1 {
		topK = domain.DefaultTopK
	}
	return &Pipeline{
		ingestor:  ingestor,
		retriever: retriever,
		answerer:  answerer,
		topK:      topK,
	}
}

// Ingest indexes the page at url.
func (p *Pipeline) Ingest(ctx context.Context, url string) (*domain.IngestResult, error) {
	return p.ingestor.Ingest(ctx, url)
}

// IngestDocument indexes already-fetched text.
func (p *Pipeline) IngestDocument(ctx context.Context, doc *domain.Document) (*domain.IngestResult, error) {
	return p.ingestor.IngestDocument(ctx, doc)
}

// Answer retrieves the top matches for question and generates a grounded answer.
func (p *Pipeline) Answer(ctx context.Context, question string) (*domain.Answer, error) {
	logger.Section("Answer")
	matches, err := p.retriever.Retrieve(ctx, question, p.topK)
	if err != nil {
		return nil, err
	}

	contextText := Assemble(matches)
	text, err := p.answerer.Answer(ctx, contextText, question)
	if err != nil {
		return nil, err
	}

	return &domain.Answer{
		Question: question,
		Text:     text,
		Matches:  matches,
		Unknown:  emptyContext(contextText),
	}, nil
}
