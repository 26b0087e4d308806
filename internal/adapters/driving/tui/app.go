package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/custodia-labs/pagewise/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/pagewise/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/pagewise/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/pagewise/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/pagewise/internal/core/domain"
)

// App is the TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports    *Ports
	ctx      context.Context
	styles   *styles.Styles
	chatView *chat.View

	// startURL is ingested as soon as the program starts.
	startURL string

	width  int
	height int

	// ready indicates the terminal size is known.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	if ports.Session == nil {
		ports.Session = domain.NewSession(uuid.NewString())
	}

	s := styles.DefaultStyles()
	return &App{
		ports:    ports,
		ctx:      context.Background(),
		styles:   s,
		chatView: chat.NewView(s, keymap.DefaultKeyMap(), ports.Chat, ports.Session),
	}, nil
}

// WithContext sets the context for the app and its pipeline calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	return a
}

// WithURL ingests rawURL on startup.
func (a *App) WithURL(rawURL string) *App {
	a.startURL = rawURL
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("pagewise - ask a web page"),
		a.chatView.Init(),
		a.chatView.Start(a.startURL),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.chatView.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

	case messages.Quit:
		return a, tea.Quit
	}

	var cmd tea.Cmd
	a.chatView, cmd = a.chatView.Update(msg)
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	return a.chatView.View()
}

// Session returns the session the app drives.
func (a *App) Session() *domain.Session {
	return a.ports.Session
}

// ChatView returns the chat view.
func (a *App) ChatView() *chat.View {
	return a.chatView
}

// Width returns the terminal width.
func (a *App) Width() int {
	return a.width
}

// Height returns the terminal height.
func (a *App) Height() int {
	return a.height
}

// Ready reports whether the terminal size is known.
func (a *App) Ready() bool {
	return a.ready
}
