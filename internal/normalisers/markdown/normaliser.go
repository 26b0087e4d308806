// Package markdown provides a Normaliser for Markdown documents.
package markdown

import (
	"regexp"
	"strings"
	"time"

	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/ports/driven"
	"github.com/custodia-labs/pagewise/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Normalise converts a markdown document to a Document.
// Formatting is simplified to plain text; code block contents are kept.
func (n *Normaliser) Normalise(sourceURL string, body []byte, _ string) (*domain.Document, error) {
	raw := string(body)

	return &domain.Document{
		URL:       sourceURL,
		Title:     extractMarkdownTitle(raw, sourceURL),
		Content:   stripMarkdown(raw),
		FetchedAt: time.Now(),
	}, nil
}

var (
	codeFence    = regexp.MustCompile("(?m)^[ \\t]*```.*$")
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	images       = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings     = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]+`)
	blockquote   = regexp.MustCompile(`(?m)^[ \t]*>[ \t]?`)
	hr           = regexp.MustCompile(`(?m)^[ \t]*[-*_]{3,}[ \t]*$`)
	listMarkers  = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	numberedList = regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+`)
	emphasis     = regexp.MustCompile(`(\*\*|__|\*|\b_|_\b)`)
)

// extractMarkdownTitle returns the first H1 heading, falling back to the URL.
func extractMarkdownTitle(content, sourceURL string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	return plaintext.TitleFromURL(sourceURL)
}

// stripMarkdown removes common markdown formatting.
func stripMarkdown(content string) string {
	content = codeFence.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = blockquote.ReplaceAllString(content, "")

	// Rules go before list markers, which would otherwise eat "- - -".
	content = hr.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "")
	content = numberedList.ReplaceAllString(content, "")
	content = emphasis.ReplaceAllString(content, "")

	return plaintext.Collapse(content)
}
