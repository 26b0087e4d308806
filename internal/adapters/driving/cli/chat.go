package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/pagewise/internal/adapters/driving/tui"
	"github.com/custodia-labs/pagewise/internal/logger"
)

var chatURL string

// runProgram runs a bubbletea program. Tests replace it to skip the terminal.
var runProgram = func(model tea.Model) error {
	_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with web pages in the terminal UI",
	Long: `Launch the interactive terminal chat.

Enter a URL to ingest it, then ask questions. Each answer lists the pages it
was drawn from.

Controls:
  Enter    - Ingest URL / Ask question
  Ctrl+U   - Ingest another URL
  Esc      - Back to questions
  PgUp/Dn  - Scroll the transcript
  Ctrl+C   - Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatURL, "url", "u", "", "ingest this page on startup")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	// Progress output would corrupt the alternate screen.
	logger.SetVerbose(false)

	app, err := tui.NewApp(tui.NewPorts(rt.Chat))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context()).WithURL(chatURL)

	if err := runProgram(app); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
