package normalisers

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/ports/driven"
	"github.com/custodia-labs/pagewise/internal/normalisers/html"
	"github.com/custodia-labs/pagewise/internal/normalisers/markdown"
	"github.com/custodia-labs/pagewise/internal/normalisers/plaintext"
)

// DefaultMIMEType is assumed when a response carries no Content-Type.
const DefaultMIMEType = "text/html"

// Registry maps MIME types to normalisers.
type Registry struct {
	byMIME map[string]driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byMIME: make(map[string]driven.Normaliser)}
}

// Default returns a registry with the HTML, Markdown and plain text
// normalisers registered.
func Default() *Registry {
	r := NewRegistry()
	r.Register(html.New())
	r.Register(markdown.New())
	r.Register(plaintext.New())
	return r
}

// Register adds a normaliser for each MIME type it supports.
// A later registration replaces an earlier one for the same type.
func (r *Registry) Register(n driven.Normaliser) {
	for _, m := range n.SupportedMIMETypes() {
		r.byMIME[strings.ToLower(m)] = n
	}
}

// For returns the normaliser for a Content-Type header value.
func (r *Registry) For(contentType string) (driven.Normaliser, bool) {
	n, ok := r.byMIME[mediaType(contentType)]
	return n, ok
}

// Supports reports whether a Content-Type header value can be normalised.
func (r *Registry) Supports(contentType string) bool {
	_, ok := r.For(contentType)
	return ok
}

// MIMETypes returns the registered MIME types, sorted.
func (r *Registry) MIMETypes() []string {
	types := make([]string, 0, len(r.byMIME))
	for m := range r.byMIME {
		types = append(types, m)
	}
	sort.Strings(types)
	return types
}

// Normalise converts body to a Document using the normaliser registered
// for contentType.
func (r *Registry) Normalise(sourceURL string, body []byte, contentType string) (*domain.Document, error) {
	n, ok := r.For(contentType)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported content type %q", domain.ErrInvalidInput, contentType)
	}
	return n.Normalise(sourceURL, body, mediaType(contentType))
}

// MIMEForPath guesses a MIME type from a file extension.
func MIMEForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".htm", ".html", ".xhtml":
		return "text/html"
	case ".md", ".markdown":
		return "text/markdown"
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	default:
		return "text/plain"
	}
}

// mediaType strips parameters from a Content-Type value and lowercases it.
func mediaType(contentType string) string {
	m := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if m == "" {
		return DefaultMIMEType
	}
	return m
}
