// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants ingest pages and ask grounded questions.
package mcp

import "errors"

// ErrMissingChatService is returned when the chat service is not provided.
var ErrMissingChatService = errors.New("mcp: chat service is required")
