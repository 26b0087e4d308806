package driven

import (
	"context"

	"github.com/custodia-labs/pagewise/internal/core/domain"
)

// Fetcher retrieves a document and reduces it to plain text.
// Network failures, HTTP error statuses and non-text content are errors.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*domain.Document, error)
}
