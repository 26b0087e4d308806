// Package tiktoken counts and truncates text in OpenAI BPE tokens.
package tiktoken

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/custodia-labs/pagewise/internal/core/ports/driven"
)

// Ensure Counter implements the interface.
var _ driven.TokenCounter = (*Counter)(nil)

// DefaultEncoding is used by gpt-4o-mini era chat and embedding models.
const DefaultEncoding = "cl100k_base"

// encoder is the subset of tiktoken.Tiktoken used here.
type encoder interface {
	Encode(text string, allowedSpecial, disallowedSpecial []string) []int
	Decode(tokens []int) string
}

// Counter is a lazily initialised tiktoken encoder.
// The BPE ranks are fetched on first use, so construction never fails.
type Counter struct {
	encoding string
	model    string

	once sync.Once
	enc  encoder
	err  error
}

// New creates a counter for the named encoding (default cl100k_base).
func New(encoding string) *Counter {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	return &Counter{encoding: encoding}
}

// ForModel uses the encoding tiktoken associates with model, falling back
// to DefaultEncoding for unknown names.
func ForModel(model string) *Counter {
	return &Counter{encoding: DefaultEncoding, model: model}
}

func (c *Counter) init() error {
	c.once.Do(func() {
		if c.model != "" {
			if tk, err := tiktoken.EncodingForModel(c.model); err == nil {
				c.enc = tk
				return
			}
		}
		tk, err := tiktoken.GetEncoding(c.encoding)
		if err != nil {
			c.err = fmt.Errorf("tiktoken: load %s: %w", c.encoding, err)
			return
		}
		c.enc = tk
	})
	return c.err
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) (int, error) {
	if err := c.init(); err != nil {
		return 0, err
	}
	return len(c.enc.Encode(text, nil, nil)), nil
}

// Truncate returns the longest token prefix of text that fits in max tokens.
// Tokens that would end the prefix inside a multi-byte character are dropped.
func (c *Counter) Truncate(text string, max int) (string, error) {
	if max <= 0 {
		return "", nil
	}
	if err := c.init(); err != nil {
		return "", err
	}
	tokens := c.enc.Encode(text, nil, nil)
	if len(tokens) <= max {
		return text, nil
	}
	out := c.enc.Decode(tokens[:max])
	for n := max - 1; n > 0 && !utf8.ValidString(out); n-- {
		out = c.enc.Decode(tokens[:n])
	}
	if !utf8.ValidString(out) {
		return "", nil
	}
	return out, nil
}
