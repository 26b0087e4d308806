package driven

import (
	"context"

	"github.com/custodia-labs/pagewise/internal/core/domain"
)

// IndexManager is the control plane of a vector index service.
type IndexManager interface {
	// ListIndexes returns the names of existing indexes.
	ListIndexes(ctx context.Context) ([]string, error)

	// CreateIndex creates a new index. It does not wait for readiness.
	CreateIndex(ctx context.Context, spec domain.IndexSpec) error

	// DescribeIndex reports an index's configuration and readiness.
	// Returns domain.ErrNotFound if the index does not exist.
	DescribeIndex(ctx context.Context, name string) (*domain.IndexDescription, error)
}

// VectorStore is the data plane of a vector index service.
type VectorStore interface {
	// Upsert writes records. Writes are append-style and at-least-once.
	Upsert(ctx context.Context, index string, records []domain.VectorRecord) error

	// Query returns up to k records nearest to vector, most similar first.
	// Returns domain.ErrNotFound if the index does not exist.
	Query(ctx context.Context, index string, vector []float32, k int) ([]domain.Match, error)
}

// IndexService combines both planes of a vector index back end.
//
// Implementations may include:
//   - Pinecone serverless
//   - Qdrant
//   - PostgreSQL with pgvector
//   - SQLite (exact search, local)
//   - memory (tests)
type IndexService interface {
	IndexManager
	VectorStore

	// Close releases resources.
	Close() error
}
