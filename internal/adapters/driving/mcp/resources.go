package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for pagewise resources.
const uriScheme = "pagewise://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "session",
		Name:        "session",
		Description: "Pages ingested and questions asked through this server",
		MIMEType:    "application/json",
	}, s.handleSessionResource)
}

type sessionInfo struct {
	ID           string     `json:"id"`
	Ready        bool       `json:"ready"`
	Sources      []string   `json:"sources"`
	LastQuestion string     `json:"last_question,omitempty"`
	History      []turnInfo `json:"history"`
}

type turnInfo struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// handleSessionResource returns the shared session as JSON.
func (s *Server) handleSessionResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	s.mu.Lock()
	info := sessionInfo{
		ID:           s.session.ID,
		Ready:        s.session.Ready,
		Sources:      append([]string{}, s.session.Sources...),
		LastQuestion: s.session.LastQuestion,
		History:      make([]turnInfo, len(s.session.History)),
	}
	for i, t := range s.session.History {
		info.History[i] = turnInfo{Role: t.Role, Content: t.Content}
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling session: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
