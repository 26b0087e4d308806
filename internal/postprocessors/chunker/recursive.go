package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/ports/driven"
)

// Ensure Recursive implements the interface.
var _ driven.Chunker = (*Recursive)(nil)

// Recursive splits on a separator hierarchy ("\n\n", "\n", " ", "") and merges
// the pieces back up to the chunk size with overlap.
type Recursive struct {
	splitter  textsplitter.RecursiveCharacter
	chunkSize int
	overlap   int
}

// NewRecursive creates a recursive chunker. It accepts WithChunkSize and
// WithOverlap; WithLookback has no effect.
func NewRecursive(opts ...Option) (*Recursive, error) {
	p, err := New(opts...)
	if err != nil {
		return nil, err
	}

	return &Recursive{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(p.chunkSize),
			textsplitter.WithChunkOverlap(p.overlap),
		),
		chunkSize: p.chunkSize,
		overlap:   p.overlap,
	}, nil
}

// Name returns the processor name.
func (r *Recursive) Name() string {
	return string(domain.ChunkStrategyRecursive)
}

// Chunk splits the document content into chunks.
// As with Processor.Chunk, only the IDs change between calls.
func (r *Recursive) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return nil, nil
	}

	pieces, err := r.splitter.SplitText(doc.Content)
	if err != nil {
		return nil, domain.NewStageError(domain.StageChunk, domain.ErrInvalidInput, err)
	}

	text := []rune(doc.Content)
	chunks := make([]domain.Chunk, 0, len(pieces))
	from := 0 // byte offset where the previous piece started

	for _, piece := range pieces {
		if piece == "" {
			continue
		}

		// Pieces may be trimmed by the splitter; fall back to the previous offset.
		if offset := strings.Index(doc.Content[from:], piece); offset >= 0 {
			from += offset
		}
		start := utf8.RuneCountInString(doc.Content[:from])
		end := start + utf8.RuneCountInString(piece)
		if end > len(text) {
			end = len(text)
		}

		c := newChunk(doc, text, start, end, len(chunks))
		c.Content = piece
		chunks = append(chunks, c)
	}

	return chunks, nil
}
