package html

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/ports/driven"
	"github.com/custodia-labs/pagewise/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Supports reports whether a Content-Type header value can be normalised.
// An empty value is accepted and treated as HTML.
func (n *Normaliser) Supports(contentType string) bool {
	mime := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if mime == "" {
		return true
	}
	for _, m := range n.SupportedMIMETypes() {
		if m == mime {
			return true
		}
	}
	return false
}

// Normalise converts a fetched body into a Document.
// Paragraph structure survives as blank lines so chunking can snap to it.
func (n *Normaliser) Normalise(sourceURL string, body []byte, contentType string) (*domain.Document, error) {
	if !n.Supports(contentType) {
		return nil, domain.ErrInvalidInput
	}

	raw := string(body)
	doc := &domain.Document{
		URL:       sourceURL,
		FetchedAt: time.Now(),
	}

	doc.Title = extractHTMLTitle(raw, sourceURL)
	doc.Content = stripHTML(raw)
	return doc, nil
}

// Pre-compiled regular expressions for HTML parsing performance.
var (
	titleTag          = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	scriptTag         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag       = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag           = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	svgTag            = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	navTag            = regexp.MustCompile(`(?is)<(nav|footer)[^>]*>.*?</(nav|footer)>`)
	htmlComments      = regexp.MustCompile(`(?s)<!--.*?-->`)
	paragraphElements = regexp.MustCompile(`(?i)</?(p|div|h[1-6]|blockquote|pre|table|section|article|ul|ol|main|header)[^>]*>`)
	lineElements      = regexp.MustCompile(`(?i)<(li|tr|dt|dd)(\s[^>]*)?>`)
	brTags            = regexp.MustCompile(`(?i)<br\s*/?>`)
	hrTags            = regexp.MustCompile(`(?i)<hr\s*/?>`)
	allTags           = regexp.MustCompile(`<[^>]+>`)
)

// extractHTMLTitle returns the <title> text, falling back to the URL.
func extractHTMLTitle(content, sourceURL string) string {
	matches := titleTag.FindStringSubmatch(content)
	if len(matches) > 1 {
		title := strings.TrimSpace(html.UnescapeString(matches[1]))
		title = strings.Join(strings.Fields(title), " ")
		if title != "" {
			return title
		}
	}
	return plaintext.TitleFromURL(sourceURL)
}

// stripHTML removes markup and returns readable text with paragraphs
// separated by a blank line.
func stripHTML(content string) string {
	for _, re := range []*regexp.Regexp{scriptTag, styleTag, noscriptTag, headTag, svgTag, navTag, htmlComments} {
		content = re.ReplaceAllString(content, "")
	}

	content = paragraphElements.ReplaceAllString(content, "\n\n")
	content = lineElements.ReplaceAllString(content, "\n")
	content = brTags.ReplaceAllString(content, "\n")
	content = hrTags.ReplaceAllString(content, "\n\n")
	content = allTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)

	return plaintext.Collapse(content)
}
