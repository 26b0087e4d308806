// Package plaintext provides a Normaliser for plain text documents, along
// with the whitespace and title helpers the other normalisers share.
package plaintext

import (
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/csv",
		"text/x-rst",
		"text/asciidoc",
		"application/json",
	}
}

// Normalise converts a plain text body into a Document. The title is taken
// from the last path segment of the URL.
func (n *Normaliser) Normalise(sourceURL string, body []byte, _ string) (*domain.Document, error) {
	return &domain.Document{
		URL:       sourceURL,
		Title:     TitleFromURL(sourceURL),
		Content:   Collapse(string(body)),
		FetchedAt: time.Now(),
	}, nil
}

var (
	multiSpaces   = regexp.MustCompile(`[ \t\r\f\v]+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// Collapse normalises whitespace: single spaces within lines, trimmed lines,
// and at most one blank line between paragraphs.
func Collapse(content string) string {
	content = strings.ReplaceAll(content, "\u00a0", " ")
	content = multiSpaces.ReplaceAllString(content, " ")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	content = strings.Join(lines, "\n")
	content = multiNewlines.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}

// TitleFromURL extracts a human-readable title from a URL: the last path
// segment without its extension, or the host for a bare domain.
func TitleFromURL(sourceURL string) string {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return sourceURL
	}
	base := path.Base(strings.TrimSuffix(u.Path, "/"))
	if base == "." || base == "/" || base == "" {
		return u.Host
	}
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}

	// Replace underscores and dashes with spaces
	base = strings.ReplaceAll(base, "_", " ")
	return strings.ReplaceAll(base, "-", " ")
}
