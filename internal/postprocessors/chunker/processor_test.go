package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/custodia-labs/pagewise/internal/core/domain"
)

func mustNew(t *testing.T, opts ...Option) *Processor {
	t.Helper()
	p, err := New(opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := mustNew(t)
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, p.overlap)
		}
		if p.lookback != 200 {
			t.Errorf("expected lookback 200, got %d", p.lookback)
		}
	})

	t.Run("custom values", func(t *testing.T) {
		p := mustNew(t, WithChunkSize(500), WithOverlap(100), WithLookback(10))
		if p.chunkSize != 500 || p.overlap != 100 || p.lookback != 10 {
			t.Errorf("unexpected config %+v", p)
		}
	})

	t.Run("overlap equal to chunk size fails fast", func(t *testing.T) {
		_, err := New(WithChunkSize(100), WithOverlap(100))
		if !errors.Is(err, domain.ErrConfiguration) {
			t.Fatalf("expected configuration error, got %v", err)
		}
		if stage, _ := domain.StageOf(err); stage != domain.StageChunk {
			t.Errorf("expected chunk stage, got %q", stage)
		}
	})

	t.Run("overlap exceeds chunk size fails fast", func(t *testing.T) {
		if _, err := New(WithChunkSize(100), WithOverlap(150)); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("non-positive size fails fast", func(t *testing.T) {
		if _, err := New(WithChunkSize(0)); err == nil {
			t.Error("expected error")
		}
		if _, err := New(WithOverlap(-1)); err == nil {
			t.Error("expected error for negative overlap")
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	if name := mustNew(t).Name(); name != "window" {
		t.Errorf("expected 'window', got %q", name)
	}
}

func TestChunk_EmptyContent(t *testing.T) {
	chunks, err := mustNew(t).Chunk(domain.Document{URL: "https://example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks, got %d", len(chunks))
	}
}

func TestChunk_ShortContent(t *testing.T) {
	doc := domain.Document{URL: "https://example.com", Title: "Greeting", Content: "Hello world."}

	chunks, err := mustNew(t).Chunk(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}

	c := chunks[0]
	if c.Content != "Hello world." {
		t.Errorf("expected content to equal input, got %q", c.Content)
	}
	if c.Source != "https://example.com" {
		t.Errorf("expected source to be inherited, got %q", c.Source)
	}
	if c.Position != 0 || c.Start != 0 || c.End != 12 {
		t.Errorf("unexpected offsets: pos=%d start=%d end=%d", c.Position, c.Start, c.End)
	}
	if c.Metadata[domain.MetaTitle] != "Greeting" {
		t.Errorf("expected title metadata, got %v", c.Metadata[domain.MetaTitle])
	}
	if c.ID == "" {
		t.Error("expected chunk ID")
	}
}

func TestChunk_ExactlyChunkSize(t *testing.T) {
	chunks, _ := mustNew(t).Chunk(domain.Document{Content: strings.Repeat("x", 1000)})
	if len(chunks) != 1 {
		t.Errorf("expected 1 chunk, got %d", len(chunks))
	}
}

func TestChunk_NoBoundaries(t *testing.T) {
	content := strings.Repeat("a", 2500)

	chunks, err := mustNew(t).Chunk(domain.Document{Content: content})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantStarts := []int{0, 800, 1600}
	wantLens := []int{1000, 1000, 900}
	if len(chunks) != len(wantStarts) {
		t.Fatalf("expected %d chunks, got %d", len(wantStarts), len(chunks))
	}
	for i, c := range chunks {
		if c.Start != wantStarts[i] {
			t.Errorf("chunk %d: expected start %d, got %d", i, wantStarts[i], c.Start)
		}
		if len([]rune(c.Content)) != wantLens[i] {
			t.Errorf("chunk %d: expected length %d, got %d", i, wantLens[i], len(c.Content))
		}
		if c.Position != i {
			t.Errorf("chunk %d: expected position %d, got %d", i, i, c.Position)
		}
	}
}

func TestChunk_ProseInvariants(t *testing.T) {
	sentence := "The quick brown fox jumps over the lazy dog. "
	var b strings.Builder
	for b.Len() < 2500 {
		b.WriteString(sentence)
		if b.Len()%7 == 0 {
			b.WriteString("\n\n")
		}
	}
	content := b.String()[:2500]

	chunks, err := mustNew(t).Chunk(domain.Document{Content: content})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 && len(chunks) != 4 {
		t.Fatalf("expected 3 or 4 chunks, got %d", len(chunks))
	}

	if chunks[0].Start != 0 {
		t.Errorf("first chunk must start at 0, got %d", chunks[0].Start)
	}
	if last := chunks[len(chunks)-1]; last.End != len(content) {
		t.Errorf("last chunk must end at %d, got %d", len(content), last.End)
	}

	for i, c := range chunks {
		if c.Len() > 1000 {
			t.Errorf("chunk %d exceeds chunk size: %d", i, c.Len())
		}
		if c.Content != content[c.Start:c.End] {
			t.Errorf("chunk %d content does not match its offsets", i)
		}
		if i == 0 {
			continue
		}
		prev := chunks[i-1]
		if c.Start != prev.End-200 {
			t.Errorf("chunk %d: expected start %d, got %d", i, prev.End-200, c.Start)
		}
		if !strings.HasSuffix(prev.Content, content[c.Start:prev.End]) {
			t.Errorf("chunk %d does not share the overlap with chunk %d", i, i-1)
		}
		if c.Start >= prev.End {
			t.Errorf("chunk %d starts outside chunk %d", i, i-1)
		}
	}
}

func TestChunk_BoundaryPriority(t *testing.T) {
	p := mustNew(t, WithChunkSize(100), WithOverlap(20))

	tests := []struct {
		name    string
		content string
		wantEnd int
	}{
		{
			name:    "paragraph before sentence",
			content: strings.Repeat("a", 85) + "\n\n" + "bbbbb. " + strings.Repeat("c", 200),
			wantEnd: 87,
		},
		{
			name:    "sentence before word",
			content: strings.Repeat("a", 90) + ". " + strings.Repeat("c", 300),
			wantEnd: 91,
		},
		{
			name:    "word before raw cut",
			content: strings.Repeat("a", 90) + " " + strings.Repeat("c", 300),
			wantEnd: 91,
		},
		{
			name:    "raw cut when nothing in lookback",
			content: strings.Repeat("a", 10) + " " + strings.Repeat("c", 300),
			wantEnd: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := p.Chunk(domain.Document{Content: tt.content})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if chunks[0].End != tt.wantEnd {
				t.Errorf("expected first cut at %d, got %d", tt.wantEnd, chunks[0].End)
			}
			if chunks[1].Start != tt.wantEnd-20 {
				t.Errorf("expected second chunk at %d, got %d", tt.wantEnd-20, chunks[1].Start)
			}
		})
	}
}

func TestChunk_CountsCharactersNotBytes(t *testing.T) {
	content := strings.Repeat("é", 150)
	p := mustNew(t, WithChunkSize(100), WithOverlap(10), WithLookback(0))

	chunks, _ := p.Chunk(domain.Document{Content: content})

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if n := len([]rune(chunks[0].Content)); n != 100 {
		t.Errorf("expected 100 characters, got %d", n)
	}
	if n := len([]rune(chunks[1].Content)); n != 60 {
		t.Errorf("expected 60 characters, got %d", n)
	}
}

func TestChunk_Deterministic(t *testing.T) {
	content := strings.Repeat("Sentence one. Another sentence here!\n\n", 80)
	p := mustNew(t)

	first, _ := p.Chunk(domain.Document{Content: content})
	second, _ := p.Chunk(domain.Document{Content: content})

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Content != second[i].Content || first[i].Start != second[i].Start ||
			first[i].End != second[i].End || first[i].Position != second[i].Position {
			t.Errorf("chunk %d differs between runs", i)
		}
		if first[i].ID == second[i].ID {
			t.Errorf("chunk %d reused ID %s", i, first[i].ID)
		}
	}
}
