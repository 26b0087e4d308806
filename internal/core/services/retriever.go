package services

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/ports/driven"
	"github.com/custodia-labs/pagewise/internal/logger"
)

// Retriever finds the chunks most similar to a question.
// It keeps no state between calls.
type Retriever struct {
	embedder driven.EmbeddingService
	store    driven.VectorStore
	index    string
}

// NewRetriever creates a retriever over the named index.
func NewRetriever(embedder driven.EmbeddingService, store driven.VectorStore, index string) *Retriever {
	return &Retriever{embedder: embedder, store: store, index: index}
}

// Retrieve returns up to k matches ranked by descending score. Equal scores
// keep the order the index returned them in. A missing or empty index
// yields no matches. k < 1 uses domain.DefaultTopK.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) ([]domain.Match, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.ConfigError(domain.StageRetrieve, "question is empty")
	}
	if k < 1 {
		k = domain.DefaultTopK
	}

	vector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, domain.AsStageError(domain.StageEmbed, domain.ErrEmbedding, err)
	}

	matches, err := r.store.Query(ctx, r.index, vector, k)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		logger.Debug("index %s does not exist yet, no matches", r.index)
		return []domain.Match{}, nil
	case errors.Is(err, domain.ErrInvalidInput):
		return nil, domain.NewStageError(domain.StageRetrieve, domain.ErrConfiguration, err)
	case err != nil:
		return nil, domain.AsStageError(domain.StageRetrieve, domain.ErrIndex, err)
	}

	slices.SortStableFunc(matches, func(a, b domain.Match) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	if matches == nil {
		matches = []domain.Match{}
	}
	logger.Debug("retrieved %d matches from %s", len(matches), r.index)
	return matches, nil
}

// ContextSeparator separates chunk texts in an assembled context.
const ContextSeparator = "\n\n"

// Assemble joins match texts in rank order. No matches give an empty string.
func Assemble(matches []domain.Match) string {
	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Text
	}
	return strings.Join(texts, ContextSeparator)
}
