package tiktoken

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordEncoder treats each space-separated word as a token.
type wordEncoder struct {
	words []string
}

func (w *wordEncoder) Encode(text string, _, _ []string) []int {
	w.words = strings.Fields(text)
	out := make([]int, len(w.words))
	for i := range out {
		out[i] = i
	}
	return out
}

func (w *wordEncoder) Decode(tokens []int) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = w.words[tok]
	}
	return strings.Join(parts, " ")
}

// byteEncoder treats each byte as a token, the way byte-level BPE can
// split a multi-byte character.
type byteEncoder struct{}

func (byteEncoder) Encode(text string, _, _ []string) []int {
	out := make([]int, len(text))
	for i := range len(text) {
		out[i] = int(text[i])
	}
	return out
}

func (byteEncoder) Decode(tokens []int) string {
	b := make([]byte, len(tokens))
	for i, tok := range tokens {
		b[i] = byte(tok)
	}
	return string(b)
}

func newTestCounter() *Counter {
	c := New("")
	c.once.Do(func() {})
	c.enc = &wordEncoder{}
	return c
}

func TestCount(t *testing.T) {
	c := newTestCounter()
	n, err := c.Count("the quick brown fox")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestTruncate(t *testing.T) {
	c := newTestCounter()

	out, err := c.Truncate("the quick brown fox", 2)
	require.NoError(t, err)
	assert.Equal(t, "the quick", out)

	out, err = c.Truncate("short", 10)
	require.NoError(t, err)
	assert.Equal(t, "short", out)

	out, err = c.Truncate("anything", 0)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestTruncate_KeepsValidUTF8(t *testing.T) {
	c := newTestCounter()
	c.enc = byteEncoder{}

	out, err := c.Truncate("héllo", 2)
	require.NoError(t, err)
	assert.Equal(t, "h", out)

	out, err = c.Truncate("héllo", 3)
	require.NoError(t, err)
	assert.Equal(t, "hé", out)

	out, err = c.Truncate("日本", 2)
	require.NoError(t, err)
	assert.Empty(t, out)

	for max := 1; max <= len("Paris, 日本 и Café"); max++ {
		out, err := c.Truncate("Paris, 日本 и Café", max)
		require.NoError(t, err)
		assert.True(t, utf8.ValidString(out), "max=%d gave %q", max, out)
	}
}

func TestInitError(t *testing.T) {
	c := New("cl100k_base")
	c.once.Do(func() {})
	c.err = errors.New("offline")

	_, err := c.Count("x")
	assert.EqualError(t, err, "offline")
	_, err = c.Truncate("x", 1)
	assert.Error(t, err)
}

func TestForModel(t *testing.T) {
	c := ForModel("gpt-4o-mini")
	assert.Equal(t, "gpt-4o-mini", c.model)
	assert.Equal(t, DefaultEncoding, c.encoding)
}
