// Package chat provides the single chat view of the TUI: a URL prompt that
// turns into a question prompt once a page has been ingested.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/pagewise/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/pagewise/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/pagewise/internal/adapters/driving/tui/components/transcript"
	"github.com/custodia-labs/pagewise/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/pagewise/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/pagewise/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/ports/driving"
)

// NotReadyHint is shown when a question is asked before any page is ingested.
const NotReadyHint = "No page has been ingested yet. Enter a URL to get started."

// chrome is the number of rows used by everything except the transcript:
// title, transcript border, prompt border and line, status bar.
const chrome = 7

// View is the chat screen.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	prompt     *input.Prompt
	transcript *transcript.Transcript
	statusbar  *status.Bar

	chat    driving.ChatService
	session *domain.Session
	ctx     context.Context

	mode   messages.ViewType
	busy   bool
	width  int
	height int
}

// NewView creates a chat view over session. It starts in URL entry mode.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	chat driving.ChatService,
	session *domain.Session,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	if session == nil {
		session = domain.NewSession("")
	}

	v := &View{
		styles:     s,
		keymap:     km,
		prompt:     input.NewPrompt(s),
		transcript: transcript.New(s),
		statusbar:  status.NewBar(s, km),
		chat:       chat,
		session:    session,
		ctx:        context.Background(),
		mode:       messages.ViewURL,
		width:      80,
		height:     24,
	}
	if session.Ready {
		v.setMode(messages.ViewChat)
		v.statusbar.Settle()
	}
	return v
}

// WithContext sets the context used for pipeline calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the cursor blinking.
func (v *View) Init() tea.Cmd {
	return v.prompt.Init()
}

// Start ingests rawURL immediately, as if it had been typed into the prompt.
func (v *View) Start(rawURL string) tea.Cmd {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil
	}
	return v.beginIngest(rawURL)
}

// Update handles key presses and pipeline results.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)

	case messages.IngestRequested:
		return v, v.beginIngest(msg.URL)

	case messages.QuestionAsked:
		return v, v.beginAsk(msg.Question)

	case messages.IngestCompleted:
		v.busy = false
		if msg.Err != nil {
			v.fail(msg.Err)
			return v, nil
		}
		chunks := 0
		elapsed := time.Duration(0)
		if msg.Result != nil {
			chunks = msg.Result.Chunks
			elapsed = msg.Result.Elapsed
		}
		v.transcript.AddNotice("Ingested %s: %d chunks in %s. Ask away.", msg.URL, chunks, elapsed.Round(time.Millisecond))
		v.statusbar.AddIngested(chunks)
		v.statusbar.Settle()
		v.setMode(messages.ViewChat)
		return v, nil

	case messages.AnswerCompleted:
		v.busy = false
		if msg.Err != nil {
			v.fail(msg.Err)
			return v, nil
		}
		v.transcript.AddAnswer(msg.Answer)
		v.statusbar.Settle()
		return v, nil

	case messages.ViewChanged:
		v.setMode(msg.View)
		return v, nil

	case messages.ErrorOccurred:
		v.fail(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.prompt, cmd = v.prompt.Update(msg)
	return v, cmd
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()

	switch {
	case keymap.Matches(k, v.keymap.ScrollUp):
		v.transcript.ScrollUp()
		return v, nil

	case keymap.Matches(k, v.keymap.ScrollDown):
		v.transcript.ScrollDown()
		return v, nil

	case keymap.Matches(k, v.keymap.NewURL):
		if !v.busy {
			v.setMode(messages.ViewURL)
		}
		return v, nil

	case keymap.Matches(k, v.keymap.Cancel):
		if v.mode == messages.ViewURL && v.session.Ready && !v.busy {
			v.setMode(messages.ViewChat)
		}
		return v, nil

	case keymap.Matches(k, v.keymap.Submit):
		if v.busy {
			return v, nil
		}
		value := strings.TrimSpace(v.prompt.Value())
		if value == "" {
			return v, nil
		}
		v.prompt.Reset()
		if v.mode == messages.ViewURL {
			return v, v.beginIngest(value)
		}
		return v, v.beginAsk(value)
	}

	if v.busy {
		return v, nil
	}
	var cmd tea.Cmd
	v.prompt, cmd = v.prompt.Update(msg)
	return v, cmd
}

func (v *View) beginIngest(rawURL string) tea.Cmd {
	v.busy = true
	v.statusbar.SetState(status.StateIngesting)
	v.statusbar.SetMessage(rawURL)
	v.transcript.AddNotice("Loading content from %s...", rawURL)

	ctx, chat, sess := v.ctx, v.chat, v.session
	return func() tea.Msg {
		result, err := chat.Ingest(ctx, sess, rawURL)
		return messages.IngestCompleted{URL: rawURL, Result: result, Err: err}
	}
}

func (v *View) beginAsk(question string) tea.Cmd {
	if !v.session.Ready {
		v.transcript.AddNotice(NotReadyHint)
		v.setMode(messages.ViewURL)
		return nil
	}

	v.busy = true
	v.statusbar.SetState(status.StateThinking)
	v.transcript.AddQuestion(question)

	ctx, chat, sess := v.ctx, v.chat, v.session
	return func() tea.Msg {
		answer, err := chat.Ask(ctx, sess, question)
		return messages.AnswerCompleted{Question: question, Answer: answer, Err: err}
	}
}

func (v *View) fail(err error) {
	if err == nil {
		return
	}
	v.transcript.AddError(err)
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(transcript.ErrorText(err))
}

func (v *View) setMode(mode messages.ViewType) {
	v.mode = mode
	if mode == messages.ViewChat {
		v.prompt.AskQuestion()
	} else {
		v.prompt.AskURL()
	}
	v.statusbar.SetChatMode(mode == messages.ViewChat)
}

// View renders the title, transcript, prompt and status bar.
func (v *View) View() string {
	title := v.styles.Title.Render("pagewise")
	if n := len(v.session.Sources); n > 0 {
		title += v.styles.Muted.Render(fmt.Sprintf("  %s", v.session.Sources[n-1]))
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		v.styles.Transcript.Render(v.transcript.View()),
		v.prompt.View(),
		v.statusbar.View(),
	)
}

// SetDimensions sizes every component to the terminal.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.prompt.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.transcript.SetSize(width-4, height-chrome)
}

// Mode returns what the prompt is currently collecting.
func (v *View) Mode() messages.ViewType {
	return v.mode
}

// Busy reports whether a pipeline call is in flight.
func (v *View) Busy() bool {
	return v.busy
}

// Status returns the status bar state.
func (v *View) Status() status.State {
	return v.statusbar.State()
}

// Transcript returns the transcript entries.
func (v *View) Transcript() []transcript.Entry {
	return v.transcript.Entries()
}

// Session returns the session the view drives.
func (v *View) Session() *domain.Session {
	return v.session
}
