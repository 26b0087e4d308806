// Package input provides the text prompt component for the TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/pagewise/internal/adapters/driving/tui/styles"
)

// Labels and placeholders for the two prompt modes.
const (
	URLLabel       = "URL: "
	URLPlaceholder = "https://example.com/article"

	QuestionLabel       = "Ask: "
	QuestionPlaceholder = "Ask a question about the page..."
)

// Prompt wraps a bubbles textinput with a label that changes with the mode.
type Prompt struct {
	textinput textinput.Model
	styles    *styles.Styles
	label     string
	width     int
}

// NewPrompt creates a focused prompt in URL entry mode.
func NewPrompt(s *styles.Styles) *Prompt {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = URLPlaceholder
	ti.Focus()
	ti.CharLimit = 2048
	ti.Width = 50

	return &Prompt{
		textinput: ti,
		styles:    s,
		label:     URLLabel,
		width:     50,
	}
}

// Init starts the cursor blinking.
func (p *Prompt) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (p *Prompt) Update(msg tea.Msg) (*Prompt, tea.Cmd) {
	var cmd tea.Cmd
	p.textinput, cmd = p.textinput.Update(msg)
	return p, cmd
}

// View renders the prompt.
func (p *Prompt) View() string {
	label := p.styles.Title.Render(p.label)
	field := p.styles.InputField.Render(p.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

// AskURL switches the prompt to URL entry and clears it.
func (p *Prompt) AskURL() {
	p.label = URLLabel
	p.textinput.Placeholder = URLPlaceholder
	p.textinput.Reset()
}

// AskQuestion switches the prompt to question entry and clears it.
func (p *Prompt) AskQuestion() {
	p.label = QuestionLabel
	p.textinput.Placeholder = QuestionPlaceholder
	p.textinput.Reset()
}

// Label returns the current label.
func (p *Prompt) Label() string {
	return p.label
}

// Value returns the current input value.
func (p *Prompt) Value() string {
	return p.textinput.Value()
}

// SetValue sets the input value.
func (p *Prompt) SetValue(value string) {
	p.textinput.SetValue(value)
}

// Focus sets focus on the input.
func (p *Prompt) Focus() tea.Cmd {
	return p.textinput.Focus()
}

// Blur removes focus from the input.
func (p *Prompt) Blur() {
	p.textinput.Blur()
}

// Focused returns whether the input is focused.
func (p *Prompt) Focused() bool {
	return p.textinput.Focused()
}

// SetWidth sets the width of the prompt.
func (p *Prompt) SetWidth(width int) {
	p.width = width
	// Account for label and border
	inputWidth := width - 12
	if inputWidth < 20 {
		inputWidth = 20
	}
	p.textinput.Width = inputWidth
}

// Width returns the current width.
func (p *Prompt) Width() int {
	return p.width
}

// Reset clears the input.
func (p *Prompt) Reset() {
	p.textinput.Reset()
}
