// Package tui provides an interactive terminal chat for pagewise.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the TUI.
type Ports struct {
	// Chat runs ingestion and questions against a session.
	Chat driving.ChatService

	// Session is the conversation the TUI drives. A fresh one is created
	// when nil.
	Session *domain.Session
}

// NewPorts creates a new Ports aggregate.
func NewPorts(chat driving.ChatService) *Ports {
	return &Ports{Chat: chat}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}
