package driven

import "github.com/custodia-labs/pagewise/internal/core/domain"

// Chunker splits a document into ordered, overlapping chunks.
// Implementations are pure: the same input always yields the same chunks
// apart from generated IDs.
type Chunker interface {
	// Name returns the strategy name.
	Name() string

	// Chunk splits doc.Content. Empty content yields no chunks.
	Chunk(doc domain.Document) ([]domain.Chunk, error)
}
