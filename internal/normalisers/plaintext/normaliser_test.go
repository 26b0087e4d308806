package plaintext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()

	require.NotEmpty(t, mimeTypes)
	assert.Contains(t, mimeTypes, "text/plain")
	assert.Contains(t, mimeTypes, "application/json")
}

func TestNormalise(t *testing.T) {
	body := []byte("First   paragraph\twith  gaps.\n\n\n\n  Second paragraph.  ")

	doc, err := New().Normalise("https://example.com/notes/release_notes.txt", body, "text/plain")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/notes/release_notes.txt", doc.URL)
	assert.Equal(t, "release notes", doc.Title)
	assert.Equal(t, "First paragraph with gaps.\n\nSecond paragraph.", doc.Content)
	assert.False(t, doc.FetchedAt.IsZero())
}

func TestNormalise_Empty(t *testing.T) {
	doc, err := New().Normalise("https://example.com/empty.txt", nil, "text/plain")
	require.NoError(t, err)

	assert.Empty(t, doc.Content)
}

func TestCollapse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"spaces and tabs", "a  \t b", "a b"},
		{"non-breaking space", "a b", "a b"},
		{"trims lines", "  a  \n  b  ", "a\nb"},
		{"caps blank lines", "a\n\n\n\nb", "a\n\nb"},
		{"carriage returns", "a\r\nb", "a\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Collapse(tt.input))
		})
	}
}

func TestTitleFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/blog/my-first-post.html", "my first post"},
		{"https://example.com/docs/getting_started/", "getting started"},
		{"https://example.com/", "example.com"},
		{"https://example.com", "example.com"},
		{"file:///tmp/notes.txt", "notes"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, TitleFromURL(tt.url))
		})
	}
}
