// Package cli provides the command-line interface for pagewise.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/pagewise/internal/adapters/driven/config/file"
	"github.com/custodia-labs/pagewise/internal/app"
	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/services"
	"github.com/custodia-labs/pagewise/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

var (
	verbose   bool
	configDir string
	envFile   string
)

// settingsService is created before every command from the config directory.
var settingsService *services.SettingsService

// buildRuntime builds the pipeline for commands that need one.
// Tests replace it to avoid network-backed providers.
var buildRuntime = app.Build

var rootCmd = &cobra.Command{
	Use:   "pagewise",
	Short: "Ask questions about web pages",
	Long: `pagewise fetches a web page, splits it into overlapping chunks, embeds
them into a vector index and answers questions grounded in what was indexed.

Answers are at most three sentences. When the indexed content does not
support an answer, pagewise says it does not know.

Settings are read from ~/.pagewise/config.toml and overridden by environment
variables such as OPENAI_API_KEY, PINECONE_API_KEY and PAGEWISE_INDEX_NAME.
A .env file in the working directory is loaded first.`,
	SilenceUsage:      true,
	PersistentPreRunE: initCommand,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show progress and debug output")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.pagewise)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading settings")
}

func initCommand(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	logger.SetOutput(cmd.ErrOrStderr())

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return domain.ConfigError(domain.StageConfig, "load %s: %v", envFile, err)
		}
	}

	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return domain.ConfigError(domain.StageConfig, "open config: %v", err)
	}
	settingsService = services.NewSettingsService(store)
	return nil
}

// openRuntime resolves settings and builds the pipeline. Callers must Close it.
func openRuntime(cmd *cobra.Command) (*app.Runtime, error) {
	settings, err := settingsService.Resolve()
	if err != nil {
		return nil, err
	}
	return buildRuntime(cmd.Context(), settings, configDir)
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command until it completes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
