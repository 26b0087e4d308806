package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/services"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change the index, embedding, language model, chunking and fetch
settings stored in config.toml. Environment variables override stored values.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a setting",
	Long: `Store a setting in config.toml. Run 'pagewise settings keys' for the list
of keys. Values are validated before they are written.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, k := range services.SettingKeys() {
			cmd.Println(k)
		}
	},
}

var settingsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Println(settingsService.Path())
	},
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the configured providers are reachable",
	Args:  cobra.NoArgs,
	RunE:  runSettingsCheck,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to choose the index, embedding and LLM providers.`,
	Args:  cobra.NoArgs,
	RunE:  runSettingsWizard,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsPathCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	settings := settingsService.Load()

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Printf("(%s)\n\n", settingsService.Path())
	for _, line := range services.Describe(settings) {
		cmd.Printf("  %s\n", line)
	}
	cmd.Println()

	if err := settings.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'pagewise settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return err
	}
	value := args[1]
	if strings.HasSuffix(args[0], "api_key") {
		value = services.MaskSecret(value)
	}
	cmd.Printf("Set %s = %s\n", args[0], value)
	return nil
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	cmd.Print("Validating configuration... ")
	if err := rt.Services.Validate(cmd.Context()); err != nil {
		cmd.Println("FAILED")
		return err
	}
	cmd.Println("OK")
	return nil
}

var (
	wizardIndexProviders = []domain.IndexProvider{
		domain.IndexProviderPinecone,
		domain.IndexProviderQdrant,
		domain.IndexProviderPGVector,
		domain.IndexProviderSQLite,
		domain.IndexProviderMemory,
	}
	wizardEmbeddingProviders = []domain.AIProvider{domain.AIProviderOpenAI, domain.AIProviderOllama}
	wizardLLMProviders       = []domain.AIProvider{
		domain.AIProviderOpenAI,
		domain.AIProviderAnthropic,
		domain.AIProviderOllama,
	}
)

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Pagewise Settings Wizard")
	cmd.Println("========================")
	cmd.Println()

	if err := configureIndex(cmd, reader); err != nil {
		return err
	}
	if err := configureEmbedding(cmd, reader); err != nil {
		return err
	}
	if err := configureLLM(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Load().Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}
	return nil
}

func configureIndex(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Step 1: Vector Index")
	cmd.Println("--------------------")
	for i, p := range wizardIndexProviders {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	provider := wizardIndexProviders[parseChoice(readLine(reader), len(wizardIndexProviders), 1)-1]

	current := settingsService.Load().Index
	cmd.Printf("Index name [%s]: ", current.Name)
	name := readLine(reader)
	if name == "" {
		name = current.Name
	}

	values := [][2]string{
		{services.KeyIndexProvider, string(provider)},
		{services.KeyIndexName, name},
	}

	switch provider {
	case domain.IndexProviderPinecone, domain.IndexProviderQdrant:
		cmd.Print("Enter index API key (blank to use the environment): ")
		if key := readPassword(cmd, reader); key != "" {
			values = append(values, [2]string{services.KeyIndexAPIKey, key})
		}
		cmd.Println()
		if provider == domain.IndexProviderQdrant {
			cmd.Printf("Qdrant address [%s]: ", current.URL)
			if u := readLine(reader); u != "" {
				values = append(values, [2]string{services.KeyIndexURL, u})
			}
		}
	case domain.IndexProviderPGVector:
		cmd.Print("PostgreSQL DSN: ")
		if dsn := readLine(reader); dsn != "" {
			values = append(values, [2]string{services.KeyIndexDSN, dsn})
		}
	case domain.IndexProviderSQLite, domain.IndexProviderMemory:
	}

	if err := setAll(values); err != nil {
		return fmt.Errorf("failed to configure index: %w", err)
	}
	cmd.Printf("Index configured: %s (%s)\n\n", provider.Description(), name)
	return nil
}

func configureEmbedding(cmd *cobra.Command, reader *bufio.Reader) error {
	return configureAI(cmd, reader, "Step 2: Embedding Provider", wizardEmbeddingProviders,
		services.KeyEmbedProvider, services.KeyEmbedModel, services.KeyEmbedAPIKey,
		func(s domain.Settings) string { return s.Embedding.Model })
}

func configureLLM(cmd *cobra.Command, reader *bufio.Reader) error {
	return configureAI(cmd, reader, "Step 3: LLM Provider", wizardLLMProviders,
		services.KeyLLMProvider, services.KeyLLMModel, services.KeyLLMAPIKey,
		func(s domain.Settings) string { return s.LLM.Model })
}

func configureAI(
	cmd *cobra.Command,
	reader *bufio.Reader,
	title string,
	providers []domain.AIProvider,
	providerKey, modelKey, apiKeyKey string,
	model func(domain.Settings) string,
) error {
	cmd.Println(title)
	cmd.Println(strings.Repeat("-", len(title)))
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	provider := providers[parseChoice(readLine(reader), len(providers), 1)-1]

	if err := settingsService.Set(providerKey, string(provider)); err != nil {
		return err
	}

	// The default model depends on the provider just chosen.
	defaultModel := model(settingsService.Load())
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	chosen := readLine(reader)
	if chosen == "" {
		chosen = defaultModel
	}
	values := [][2]string{{modelKey, chosen}}

	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key (blank to use the environment): ")
		if key := readPassword(cmd, reader); key != "" {
			values = append(values, [2]string{apiKeyKey, key})
		}
		cmd.Println()
	}

	if err := setAll(values); err != nil {
		return err
	}
	cmd.Printf("Configured: %s (%s)\n\n", provider.Description(), chosen)
	return nil
}

func setAll(values [][2]string) error {
	for _, kv := range values {
		if err := settingsService.Set(kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads a secret without echo when stdin is a terminal.
func readPassword(cmd *cobra.Command, reader *bufio.Reader) string {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}
