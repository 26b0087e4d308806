// Package chunker splits document text into overlapping chunks.
package chunker

import (
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// Processor cuts fixed windows of at most chunkSize characters. Each cut is
// pulled back to the best natural boundary inside the lookback window
// (paragraph break, then sentence end, then whitespace) and the next window
// starts exactly overlap characters before the cut.
type Processor struct {
	chunkSize int
	overlap   int
	lookback  int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// WithLookback sets how far back from a hard cut a boundary is searched for.
// Zero disables boundary snapping.
func WithLookback(n int) Option {
	return func(p *Processor) {
		p.lookback = n
	}
}

// New creates a new chunker processor with the given options.
// Returns a ConfigurationError when overlap is not smaller than the chunk size.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		lookback:  -1,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.chunkSize < 1 {
		return nil, domain.ConfigError(domain.StageChunk, "chunk size must be positive, got %d", p.chunkSize)
	}
	if p.overlap < 0 || p.overlap >= p.chunkSize {
		return nil, domain.ConfigError(domain.StageChunk,
			"overlap %d must be smaller than chunk size %d", p.overlap, p.chunkSize)
	}

	step := p.chunkSize - p.overlap
	if p.lookback < 0 {
		p.lookback = step / 4
	}
	if p.lookback >= step {
		p.lookback = step - 1
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return string(domain.ChunkStrategyWindow)
}

// Chunk splits the document content into chunks.
// Content, offsets and positions are deterministic for a given document;
// chunk IDs are random and differ on every call.
func (p *Processor) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	text := []rune(doc.Content)
	n := len(text)
	if n == 0 {
		return nil, nil
	}

	chunks := make([]domain.Chunk, 0, n/(p.chunkSize-p.overlap)+1)
	start := 0

	for {
		end := start + p.chunkSize
		if end >= n {
			chunks = append(chunks, newChunk(doc, text, start, n, len(chunks)))
			break
		}

		end = p.snap(text, start, end)
		chunks = append(chunks, newChunk(doc, text, start, end, len(chunks)))

		// snap never returns a cut at or before start+overlap, so this advances.
		start = end - p.overlap
	}

	return chunks, nil
}

// snap returns the cut position for the window [start, end).
func (p *Processor) snap(text []rune, start, end int) int {
	floor := end - p.lookback
	if floor <= start+p.overlap {
		floor = start + p.overlap + 1
	}
	if floor > end {
		return end
	}

	// paragraph
	for i := end; i >= floor; i-- {
		if i-2 >= start && text[i-1] == '\n' && text[i-2] == '\n' {
			return i
		}
	}

	// sentence
	for i := end; i >= floor; i-- {
		if isSentenceEnd(text[i-1]) && unicode.IsSpace(text[i]) {
			return i
		}
	}

	// word
	for i := end; i >= floor; i-- {
		if unicode.IsSpace(text[i-1]) {
			return i
		}
	}

	return end
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	default:
		return false
	}
}

func newChunk(doc domain.Document, text []rune, start, end, position int) domain.Chunk {
	meta := map[string]any{
		"start": start,
		"end":   end,
	}
	if doc.Title != "" {
		meta[domain.MetaTitle] = doc.Title
	}

	return domain.Chunk{
		ID:       uuid.New().String(),
		Source:   doc.URL,
		Content:  string(text[start:end]),
		Position: position,
		Start:    start,
		End:      end,
		Metadata: meta,
	}
}
