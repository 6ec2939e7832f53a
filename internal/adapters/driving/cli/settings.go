package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driving"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, chunking, retrieval, and storage.

Values live in ~/.benchbook/config.toml. API keys may instead come from
OPENAI_API_KEY, and the Postgres DSN from BENCHBOOK_POSTGRES_DSN.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Configure the embedding and LLM providers step by step.`,
	RunE:  runSettingsWizard,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider used for ingest and search.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider used to answer evaluation queries.`,
	RunE:  runSettingsLLM,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func settingsFor(cmd *cobra.Command) (driving.SettingsService, func(), error) {
	svc, release, err := loadServices(cmd, Needs{})
	if err != nil {
		return nil, release, err
	}
	if svc.Settings == nil {
		release()
		return nil, func() {}, errors.New("settings service not configured")
	}
	return svc.Settings, release, nil
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	settingsService, release, err := settingsFor(cmd)
	if err != nil {
		return err
	}
	defer release()

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println(headingStyle.Render("Current Settings"))
	cmd.Println()

	c := settings.Chunking
	cmd.Println("[Chunking]")
	cmd.Printf("  Target size: %d chars, overlap %d, min %d\n", c.TargetSize, c.Overlap, c.MinSize)
	cmd.Printf("  Max chunks per document: %d\n", c.MaxChunksPerDoc)
	cmd.Printf("  Hard max unit: %d chars\n", c.HardMaxChars)
	cmd.Println()

	b := settings.Batching
	cmd.Println("[Batching]")
	cmd.Printf("  Max items: %d, max tokens: %d\n", b.MaxItems, b.MaxTokens)
	cmd.Printf("  Concurrency: %d, requests/s: %g\n", b.Concurrency, b.RequestsPerSecond)
	cmd.Println()

	r := settings.Retrieval
	cmd.Println("[Retrieval]")
	cmd.Printf("  Top k: %d (max %d)\n", r.DefaultTopK, r.MaxTopK)
	cmd.Printf("  Query cache: %d\n", r.QueryCacheSize)
	cmd.Println()

	cmd.Println("[Embedding]")
	printProvider(cmd, settings.Embedding.Provider, settings.Embedding.Model,
		settings.Embedding.BaseURL, settings.Embedding.APIKey, settings.Embedding.IsConfigured())
	if settings.Embedding.Dimensions > 0 {
		cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	}
	cmd.Println()

	cmd.Println("[LLM]")
	printProvider(cmd, settings.LLM.Provider, settings.LLM.Model,
		settings.LLM.BaseURL, settings.LLM.APIKey, settings.LLM.IsConfigured())
	cmd.Printf("  Temperature: %g, max tokens: %d\n", settings.LLM.Temperature, settings.LLM.MaxTokens)
	cmd.Println()

	st := settings.Storage
	cmd.Println("[Storage]")
	cmd.Printf("  Backend: %s\n", st.Backend)
	if st.DataDir != "" {
		cmd.Printf("  Data dir: %s\n", st.DataDir)
	}
	if st.Backend == domain.StoragePostgres {
		if st.PostgresDSN != "" {
			cmd.Printf("  Postgres DSN: %s\n", maskAPIKey(st.PostgresDSN))
		} else {
			cmd.Printf("  Postgres DSN: (not set)\n")
		}
	}
	cmd.Println()

	e := settings.Evaluation
	cmd.Println("[Evaluation]")
	cmd.Printf("  Pass threshold: %g, concurrency: %d, top k: %d\n", e.PassThreshold, e.Concurrency, e.TopK)
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", settings.Server.Addr)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'benchbook settings wizard' or edit config.toml to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func printProvider(cmd *cobra.Command, p domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	cmd.Printf("  Provider: %s\n", p.Description())
	cmd.Printf("  Model: %s\n", model)
	if p == domain.AIProviderOllama {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if p.RequiresAPIKey() {
		if apiKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	settingsService, release, err := settingsFor(cmd)
	if err != nil {
		return err
	}
	defer release()

	cmd.Println(headingStyle.Render("BenchBook Settings Wizard"))
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Embedding Provider")
	cmd.Println("--------------------------")
	if err := configureEmbeddingProvider(cmd, settingsService, reader); err != nil {
		return err
	}

	cmd.Println("Step 2: LLM Provider")
	cmd.Println("--------------------")
	if err := configureLLMProvider(cmd, settingsService, reader); err != nil {
		return err
	}

	cmd.Println("Configuration Complete!")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	settingsService, release, err := settingsFor(cmd)
	if err != nil {
		return err
	}
	defer release()
	return configureEmbeddingProvider(cmd, settingsService, bufio.NewReader(cmd.InOrStdin()))
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	settingsService, release, err := settingsFor(cmd)
	if err != nil {
		return err
	}
	defer release()
	return configureLLMProvider(cmd, settingsService, bufio.NewReader(cmd.InOrStdin()))
}

// providerChoice prompts for a provider, model and, when needed, API key.
// An empty key keeps the key already configured or set in the environment.
func providerChoice(
	cmd *cobra.Command,
	reader *bufio.Reader,
	providers []domain.AIProvider,
	defaults map[domain.AIProvider]string,
) (provider domain.AIProvider, model, apiKey string) {
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	provider = providers[idx-1]

	defaultModel := defaults[provider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model = readLine(reader)
	if model == "" {
		model = defaultModel
	}

	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key (blank to use OPENAI_API_KEY): ")
		apiKey = readPassword(reader)
		cmd.Println()
	}
	return provider, model, apiKey
}

func configureEmbeddingProvider(cmd *cobra.Command, settingsService driving.SettingsService, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	provider, model, apiKey := providerChoice(cmd, reader,
		domain.AllEmbeddingProviders(), domain.DefaultEmbeddingModels())

	if err := settingsService.SetEmbeddingProvider(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n\n", provider.Description(), model)
	return nil
}

func configureLLMProvider(cmd *cobra.Command, settingsService driving.SettingsService, reader *bufio.Reader) error {
	cmd.Println("Select LLM Provider")
	provider, model, apiKey := providerChoice(cmd, reader,
		domain.AllLLMProviders(), domain.DefaultLLMModels())

	if err := settingsService.SetLLMProvider(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n\n", provider.Description(), model)
	return nil
}

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

// readPassword reads without echo on a terminal and falls back to the reader.
func readPassword(reader *bufio.Reader) string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
