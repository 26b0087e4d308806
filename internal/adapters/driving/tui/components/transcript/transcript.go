// Package transcript renders the scrolling chat history.
package transcript

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/pagewise/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/pagewise/internal/core/domain"
)

// Kind classifies a transcript entry.
type Kind int

const (
	KindQuestion Kind = iota
	KindAnswer
	KindNotice
	KindError
)

// Entry is one rendered block of the transcript.
type Entry struct {
	Kind    Kind
	Text    string
	Sources []string
}

// Transcript is a viewport over the chat history that follows the newest entry.
type Transcript struct {
	styles   *styles.Styles
	viewport viewport.Model
	entries  []Entry
}

// New creates an empty transcript.
func New(s *styles.Styles) *Transcript {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &Transcript{
		styles:   s,
		viewport: viewport.New(80, 10),
	}
}

// Update forwards scrolling messages to the viewport.
func (t *Transcript) Update(msg tea.Msg) (*Transcript, tea.Cmd) {
	var cmd tea.Cmd
	t.viewport, cmd = t.viewport.Update(msg)
	return t, cmd
}

// View renders the visible part of the transcript.
func (t *Transcript) View() string {
	return t.viewport.View()
}

// SetSize resizes the viewport and rewraps the content.
func (t *Transcript) SetSize(width, height int) {
	if width < 10 {
		width = 10
	}
	if height < 1 {
		height = 1
	}
	t.viewport.Width = width
	t.viewport.Height = height
	t.refresh()
}

// AddQuestion appends a user question.
func (t *Transcript) AddQuestion(question string) {
	t.add(Entry{Kind: KindQuestion, Text: question})
}

// AddAnswer appends an answer with its source URLs.
func (t *Transcript) AddAnswer(answer *domain.Answer) {
	if answer == nil {
		return
	}
	t.add(Entry{Kind: KindAnswer, Text: answer.Text, Sources: answer.Sources()})
}

// AddNotice appends an informational line.
func (t *Transcript) AddNotice(format string, args ...any) {
	t.add(Entry{Kind: KindNotice, Text: fmt.Sprintf(format, args...)})
}

// AddError appends an error, prefixed with its pipeline stage when known.
func (t *Transcript) AddError(err error) {
	if err == nil {
		return
	}
	t.add(Entry{Kind: KindError, Text: ErrorText(err)})
}

// Entries returns the transcript entries in order.
func (t *Transcript) Entries() []Entry {
	return t.entries
}

// ScrollUp scrolls back one page.
func (t *Transcript) ScrollUp() {
	t.viewport.LineUp(t.viewport.Height)
}

// ScrollDown scrolls forward one page.
func (t *Transcript) ScrollDown() {
	t.viewport.LineDown(t.viewport.Height)
}

// AtBottom reports whether the newest entry is visible.
func (t *Transcript) AtBottom() bool {
	return t.viewport.AtBottom()
}

// ErrorText formats err for display, naming the stage it came from.
func ErrorText(err error) string {
	var se *domain.StageError
	if errors.As(err, &se) {
		return fmt.Sprintf("[%s] %v", se.Stage, se.Err)
	}
	return err.Error()
}

func (t *Transcript) add(e Entry) {
	t.entries = append(t.entries, e)
	t.refresh()
}

func (t *Transcript) refresh() {
	t.viewport.SetContent(t.render())
	t.viewport.GotoBottom()
}

func (t *Transcript) render() string {
	wrap := lipgloss.NewStyle().Width(t.viewport.Width)
	blocks := make([]string, 0, len(t.entries))

	for _, e := range t.entries {
		var b strings.Builder
		switch e.Kind {
		case KindQuestion:
			b.WriteString(t.styles.UserLabel.Render("You: "))
			b.WriteString(t.styles.Normal.Render(e.Text))
		case KindAnswer:
			b.WriteString(t.styles.AssistantLabel.Render("Pagewise: "))
			b.WriteString(t.styles.Normal.Render(e.Text))
			for _, src := range e.Sources {
				b.WriteString("\n")
				b.WriteString(t.styles.Source.Render("  source: " + src))
			}
		case KindNotice:
			b.WriteString(t.styles.Muted.Render(e.Text))
		case KindError:
			b.WriteString(t.styles.Error.Render("Error " + e.Text))
		}
		blocks = append(blocks, wrap.Render(b.String()))
	}
	return strings.Join(blocks, "\n\n")
}
