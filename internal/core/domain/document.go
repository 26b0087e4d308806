package domain

import "time"

// Document is a fetched source reduced to plain text.
// It is created at fetch time and is not persisted beyond chunking.
type Document struct {
	// URL identifies the source and is inherited by every chunk.
	URL string

	// Title is the page title, when one could be extracted.
	Title string

	// Content is the extracted plain text.
	Content string

	// FetchedAt is when the content was retrieved.
	FetchedAt time.Time
}

// Chunk is a contiguous substring of a Document's text.
// Chunks are the unit of embedding and retrieval.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// Source is the URL of the parent Document.
	Source string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Start and End are rune offsets into the document text.
	Start int
	End   int

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// Len returns the chunk length in characters.
func (c Chunk) Len() int {
	return c.End - c.Start
}

// VectorRecord is what the ingestion pipeline writes to an index.
type VectorRecord struct {
	ID       string
	Text     string
	Vector   []float32
	Metadata map[string]any
}

// Metadata keys written alongside every record.
const (
	MetaSource   = "source"
	MetaTitle    = "title"
	MetaPosition = "position"
	MetaText     = "text"
)

// RecordFromChunk pairs a chunk with its embedding.
func RecordFromChunk(c Chunk, vector []float32) VectorRecord {
	meta := make(map[string]any, len(c.Metadata)+2)
	for k, v := range c.Metadata {
		meta[k] = v
	}
	meta[MetaSource] = c.Source
	meta[MetaPosition] = c.Position
	return VectorRecord{
		ID:       c.ID,
		Text:     c.Content,
		Vector:   vector,
		Metadata: meta,
	}
}

// Match is a single ranked record returned by a similarity query.
type Match struct {
	ID       string
	Text     string
	Score    float64
	Metadata map[string]any
}

// Source returns the source URL recorded for the match, if any.
func (m Match) Source() string {
	if m.Metadata == nil {
		return ""
	}
	s, _ := m.Metadata[MetaSource].(string)
	return s
}

// IngestResult summarises one completed ingestion.
type IngestResult struct {
	URL      string
	Title    string
	Chunks   int
	Upserted int
	Index    string
	Elapsed  time.Duration
}

// DontKnowAnswer is returned when the retrieved context cannot support an answer.
const DontKnowAnswer = "I don't know. The indexed content does not answer this question."

// Answer is the grounded response to a question.
type Answer struct {
	// Question is the question that was asked.
	Question string

	// Text is the model output, or DontKnowAnswer.
	Text string

	// Matches are the retrieved chunks the answer was grounded on, best first.
	Matches []Match

	// Unknown is true when no context was available.
	Unknown bool
}

// Sources returns the distinct source URLs behind the answer in rank order.
func (a *Answer) Sources() []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range a.Matches {
		s := m.Source()
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
