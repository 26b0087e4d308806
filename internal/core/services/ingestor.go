package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/ports/driven"
	"github.com/custodia-labs/pagewise/internal/logger"
)

// Ingestor runs the ingestion pipeline: fetch, chunk, ensure index, embed, upsert.
type Ingestor struct {
	fetcher     driven.Fetcher
	chunker     driven.Chunker
	provisioner *Provisioner
	embedder    driven.EmbeddingService
	store       driven.VectorStore
	spec        domain.IndexSpec
	batchSize   int
}

// NewIngestor creates an ingestor that writes into the index described by spec.
// A non-positive batchSize falls back to domain.DefaultBatchSize.
func NewIngestor(
	fetcher driven.Fetcher,
	chunker driven.Chunker,
	provisioner *Provisioner,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	spec domain.IndexSpec,
	batchSize int,
) *Ingestor {
	if batchSize <= 0 {
		batchSize = domain.DefaultBatchSize
	}
	return &Ingestor{
		fetcher:     fetcher,
		chunker:     chunker,
		provisioner: provisioner,
		embedder:    embedder,
		store:       store,
		spec:        spec,
		batchSize:   batchSize,
	}
}

// Ingest fetches rawURL and indexes its text.
func (i *Ingestor) Ingest(ctx context.Context, rawURL string) (*domain.IngestResult, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}
	if i.fetcher == nil {
		return nil, domain.ConfigError(domain.StageFetch, "no fetcher configured")
	}

	logger.Section("Ingest")
	logger.Info("Loading content from %s...", rawURL)
	doc, err := i.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, domain.AsStageError(domain.StageFetch, domain.ErrFetch, err)
	}
	return i.IngestDocument(ctx, doc)
}

// IngestDocument indexes an already-fetched document.
func (i *Ingestor) IngestDocument(ctx context.Context, doc *domain.Document) (*domain.IngestResult, error) {
	start := time.Now()
	if doc == nil {
		return nil, domain.ConfigError(domain.StageChunk, "document is nil")
	}

	logger.Info("Splitting 1 documents...")
	chunks, err := i.chunker.Chunk(*doc)
	if err != nil {
		return nil, domain.AsStageError(domain.StageChunk, domain.ErrConfiguration, err)
	}
	logger.Info("Created %d splits.", len(chunks))

	result := &domain.IngestResult{
		URL:    doc.URL,
		Title:  doc.Title,
		Chunks: len(chunks),
		Index:  i.spec.Name,
	}
	if len(chunks) == 0 {
		logger.Warn("no text extracted from %s, nothing to index", doc.URL)
		result.Elapsed = time.Since(start)
		return result, nil
	}

	logger.Info("Initializing index and embeddings...")
	if _, err := i.provisioner.Ensure(ctx, i.spec); err != nil {
		return nil, err
	}

	logger.Info("Indexing documents to %s...", i.spec.Name)
	for lo := 0; lo < len(chunks); lo += i.batchSize {
		hi := min(lo+i.batchSize, len(chunks))
		n, err := i.indexBatch(ctx, chunks[lo:hi])
		result.Upserted += n
		if err != nil {
			return result, err
		}
		logger.Debug("upserted %d/%d records", result.Upserted, len(chunks))
	}

	result.Elapsed = time.Since(start)
	logger.Info("Ingestion complete!")
	return result, nil
}

// indexBatch embeds one batch of chunks and upserts them.
func (i *Ingestor) indexBatch(ctx context.Context, chunks []domain.Chunk) (int, error) {
	texts := make([]string, len(chunks))
	for j, c := range chunks {
		texts[j] = c.Content
	}

	vectors, err := i.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, domain.AsStageError(domain.StageEmbed, domain.ErrEmbedding, err)
	}
	if len(vectors) != len(chunks) {
		return 0, domain.NewStageError(domain.StageEmbed, domain.ErrEmbedding,
			fmt.Errorf("got %d embeddings for %d chunks", len(vectors), len(chunks)))
	}

	records := make([]domain.VectorRecord, len(chunks))
	for j, c := range chunks {
		if len(vectors[j]) != i.spec.Dimension {
			return 0, domain.ConfigError(domain.StageEmbed,
				"embedding model %s produced %d dimensions but index %s expects %d",
				i.embedder.ModelName(), len(vectors[j]), i.spec.Name, i.spec.Dimension)
		}
		records[j] = domain.RecordFromChunk(c, vectors[j])
	}

	if err := i.store.Upsert(ctx, i.spec.Name, records); err != nil {
		return 0, domain.AsStageError(domain.StageUpsert, domain.ErrIndex, fmt.Errorf("upsert %d records: %w", len(records), err))
	}
	return len(records), nil
}

// validateURL accepts absolute http and https URLs only.
func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return domain.ConfigError(domain.StageFetch, "invalid URL %q: %v", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return domain.ConfigError(domain.StageFetch, "URL %q must use http or https", rawURL)
	}
	if u.Host == "" {
		return domain.ConfigError(domain.StageFetch, "URL %q has no host", rawURL)
	}
	return nil
}
