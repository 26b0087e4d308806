package driven

import "github.com/custodia-labs/pagewise/internal/core/domain"

// Normaliser reduces a fetched body of one family of content types to plain
// text, keeping paragraph breaks as blank lines.
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Normalise converts body into a Document whose URL is sourceURL.
	Normalise(sourceURL string, body []byte, contentType string) (*domain.Document, error)
}
