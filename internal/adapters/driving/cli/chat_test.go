package cli

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pagewise/internal/adapters/driving/tui"
)

func stubProgram(t *testing.T, err error) *tea.Model {
	t.Helper()
	var got tea.Model
	original := runProgram
	runProgram = func(m tea.Model) error {
		got = m
		return err
	}
	t.Cleanup(func() { runProgram = original })
	return &got
}

func TestChatCmd_Use(t *testing.T) {
	assert.Equal(t, "chat", chatCmd.Use)
	assert.Contains(t, chatCmd.Long, "Ctrl+U")
	require.NotNil(t, chatCmd.Flags().Lookup("url"))
}

func TestChatCmd_RunsApp(t *testing.T) {
	setupTestRuntime(t)
	got := stubProgram(t, nil)

	_, err := runCLI(t, t.TempDir(), "chat", "--url", "https://example.com")

	require.NoError(t, err)
	app, ok := (*got).(*tui.App)
	require.True(t, ok)
	assert.NotNil(t, app.Session())
	assert.False(t, app.Session().Ready)
}

func TestChatCmd_ProgramError(t *testing.T) {
	setupTestRuntime(t)
	stubProgram(t, errors.New("no tty"))

	_, err := runCLI(t, t.TempDir(), "chat")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "TUI error: no tty")
}

func TestChatCmd_ConfigurationError(t *testing.T) {
	setupTestRuntime(t)
	t.Setenv("PINECONE_INDEX_NAME", "")
	got := stubProgram(t, nil)

	_, err := runCLI(t, t.TempDir(), "chat")

	assert.Error(t, err)
	assert.Nil(t, *got)
}

func TestServeAndMCPCommands(t *testing.T) {
	assert.Equal(t, "serve", serveCmd.Use)
	require.NotNil(t, serveCmd.Flags().Lookup("addr"))

	require.NotNil(t, mcpServeCmd.Flags().Lookup("port"))
	assert.Equal(t, "p", mcpServeCmd.Flags().Lookup("port").Shorthand)
	assert.Contains(t, mcpServeCmd.Long, "ingest_url")
}
