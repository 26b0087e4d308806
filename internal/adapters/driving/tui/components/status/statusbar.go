// Package status provides the status bar component for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/pagewise/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/pagewise/internal/adapters/driving/tui/styles"
)

// State represents the current application state for display.
type State string

const (
	StateWaiting   State = "waiting"
	StateIngesting State = "ingesting"
	StateThinking  State = "thinking"
	StateReady     State = "ready"
	StateError     State = "error"
)

// Bar displays pipeline readiness and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	pages   int
	chunks  int
	chat    bool
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateWaiting,
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	// Bar is passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	switch s.state {
	case StateIngesting:
		return s.styles.Warning.Render("Ingesting " + s.message + "...")
	case StateThinking:
		return s.styles.Muted.Render("Thinking...")
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		}
		return s.styles.Error.Render("Error")
	case StateReady:
		return s.styles.Success.Render(fmt.Sprintf("Ready: %d chunks from %d page(s)", s.chunks, s.pages))
	case StateWaiting:
	}
	return s.styles.Muted.Render("Enter a URL to get started")
}

func (s *Bar) renderRight() string {
	var bindings []key.Binding
	if s.chat {
		bindings = s.keymap.ChatHelp()
	} else {
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets the URL being ingested or the error text.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// AddIngested records one completed ingestion of chunks chunks.
func (s *Bar) AddIngested(chunks int) {
	s.pages++
	s.chunks += chunks
}

// Pages returns the number of pages ingested.
func (s *Bar) Pages() int {
	return s.pages
}

// Chunks returns the number of chunks ingested.
func (s *Bar) Chunks() int {
	return s.chunks
}

// SetChatMode selects which keybinding hints are shown.
func (s *Bar) SetChatMode(chat bool) {
	s.chat = chat
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Settle returns the bar to Ready after ingestion, or Waiting before it.
func (s *Bar) Settle() {
	s.message = ""
	if s.pages > 0 {
		s.state = StateReady
		return
	}
	s.state = StateWaiting
}
