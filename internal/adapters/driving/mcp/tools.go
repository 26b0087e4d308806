package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// IngestInput is the input schema for the ingest_url tool.
type IngestInput struct {
	URL string `json:"url" jsonschema:"the http or https URL of the page to index"`
}

// IngestOutput is the output schema for the ingest_url tool.
type IngestOutput struct {
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
	Index    string `json:"index"`
	Chunks   int    `json:"chunks"`
	Upserted int    `json:"upserted"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from indexed pages"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string        `json:"answer"`
	Unknown bool          `json:"unknown"`
	Sources []string      `json:"sources,omitempty"`
	Matches []MatchOutput `json:"matches,omitempty"`
}

// MatchOutput represents a single retrieved chunk.
type MatchOutput struct {
	Source string  `json:"source,omitempty"`
	Score  float64 `json:"score"`
	Text   string  `json:"text"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_url",
		Description: "Fetch a web page, split it into chunks and add it to the vector index",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using only content from ingested pages",
	}, s.handleAsk)
}

// handleIngest handles the ingest_url tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.ports.Chat.Ingest(ctx, s.session, input.URL)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		URL:      result.URL,
		Title:    result.Title,
		Index:    result.Index,
		Chunks:   result.Chunks,
		Upserted: result.Upserted,
	}, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	answer, err := s.ports.Chat.Ask(ctx, s.session, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:  answer.Text,
		Unknown: answer.Unknown,
		Sources: answer.Sources(),
		Matches: make([]MatchOutput, len(answer.Matches)),
	}
	for i, m := range answer.Matches {
		output.Matches[i] = MatchOutput{
			Source: m.Source(),
			Score:  m.Score,
			Text:   m.Text,
		}
	}

	return nil, output, nil
}
