package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Provider roles accepted by the settings service.
const (
	roleEmbedding = "embedding"
	roleLLM       = "llm"
	roleRerank    = "rerank"
)

// validateTimeout bounds the provider ping after a settings change.
const validateTimeout = 10 * time.Second

var providerModel string

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure pipeline settings, AI providers, and the vector backend.

Use subcommands to configure specific settings or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"list"},
	Short:   "Show current settings",
	RunE:    runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration key",
	Long: `Set a single configuration key. Lists take comma-separated values.
Run 'sercha-rag settings keys' for the full list.

Examples:
  sercha-rag settings set pipeline.chunk_size 800
  sercha-rag settings set vector.backend qdrant
  sercha-rag settings set server.allowed_origins http://localhost:3000,https://app.example.com`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset [key]",
	Short: "Reset a configuration key to its default",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsReset,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List configuration keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsProviderCmd = &cobra.Command{
	Use:   "provider [role] [provider]",
	Short: "Configure an AI provider",
	Long: `Configure the provider for a role and check that it responds.

Roles and providers:
  embedding  ollama, openai
  llm        ollama, openai, anthropic, gemini
  rerank     cohere

Cloud providers prompt for an API key.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsProvider,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure all providers step by step.`,
	RunE:  runSettingsWizard,
}

func init() {
	settingsProviderCmd.Flags().StringVarP(&providerModel, "model", "m", "", "model name (default per provider)")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsResetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsProviderCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	if path := settingsService.ConfigPath(); path != "" {
		cmd.Printf("File: %s\n", path)
	}
	cmd.Println()

	p := settings.Pipeline
	cmd.Println("[Pipeline]")
	cmd.Printf("  Chunk size: %d (overlap %d)\n", p.ChunkSize, p.ChunkOverlap)
	cmd.Printf("  Top K: %d retrieve, %d after rerank (max %d)\n", p.RetrievalTopK, p.RerankTopK, p.MaxTopK)
	cmd.Printf("  Max file size: %d MB\n", p.MaxFileSizeMB)
	cmd.Printf("  Generation: %d tokens, temperature %.2f\n", p.MaxOutputTokens, p.Temperature)
	cmd.Println()

	showProvider(cmd, "Embedding", settings.Embedding)
	showProvider(cmd, "LLM", settings.LLM)
	showProvider(cmd, "Rerank", settings.Rerank)

	cmd.Println("[Vector Index]")
	cmd.Printf("  Backend: %s\n", settings.Vector.Backend)
	if settings.Vector.Address != "" {
		cmd.Printf("  Address: %s\n", settings.Vector.Address)
	}
	cmd.Printf("  Collection: %s\n", settings.Vector.Collection)
	if settings.Vector.Dimensions > 0 {
		cmd.Printf("  Dimensions: %d\n", settings.Vector.Dimensions)
	}
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", settings.Server.Address)
	cmd.Printf("  Allowed origins: %s\n", strings.Join(settings.Server.AllowedOrigins, ", "))
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'sercha-rag settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func showProvider(cmd *cobra.Command, label string, s domain.ProviderSettings) {
	cmd.Printf("[%s]\n", label)
	cmd.Printf("  Provider: %s\n", s.Provider.Description())
	if s.Model != "" {
		cmd.Printf("  Model: %s\n", s.Model)
	}
	if s.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", s.BaseURL)
	}
	if s.Provider.RequiresAPIKey() {
		if s.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(s.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !s.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	display := value
	if strings.HasSuffix(key, "api_key") {
		display = maskAPIKey(value)
	}
	cmd.Printf("Set %s = %s\n", key, display)
	return nil
}

func runSettingsReset(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Reset(args[0]); err != nil {
		return fmt.Errorf("failed to reset %s: %w", args[0], err)
	}
	cmd.Printf("Reset %s to default\n", args[0])
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, k := range settingsService.Keys() {
		cmd.Println(k)
	}
	return nil
}

func runSettingsProvider(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	role, provider := args[0], domain.AIProvider(strings.ToLower(args[1]))
	if !provider.IsValid() {
		return fmt.Errorf("unknown provider %q", args[1])
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(cmd.InOrStdin())
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	return applyProvider(cmd, role, provider, providerModel, apiKey)
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println("Sercha RAG Settings Wizard")
	cmd.Println("==========================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Embedding Provider")
	cmd.Println("--------------------------")
	if err := configureProvider(cmd, reader, roleEmbedding,
		domain.AllEmbeddingProviders(), domain.DefaultEmbeddingModels()); err != nil {
		return err
	}

	cmd.Println("Step 2: LLM Provider")
	cmd.Println("--------------------")
	if err := configureProvider(cmd, reader, roleLLM,
		domain.AllLLMProviders(), domain.DefaultLLMModels()); err != nil {
		return err
	}

	cmd.Println("Step 3: Rerank Provider (optional)")
	cmd.Println("----------------------------------")
	cmd.Print("Configure Cohere reranking? [y/N]: ")
	if answer := strings.ToLower(readLine(reader)); answer == "y" || answer == "yes" {
		if err := configureProvider(cmd, reader, roleRerank,
			[]domain.AIProvider{domain.AIProviderCohere},
			map[domain.AIProvider]string{domain.AIProviderCohere: "rerank-english-v3.0"}); err != nil {
			return err
		}
	} else {
		cmd.Println("Skipped. Results will keep similarity order.")
		cmd.Println()
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}

	return nil
}

func configureProvider(
	cmd *cobra.Command,
	reader *bufio.Reader,
	role string,
	providers []domain.AIProvider,
	defaults map[domain.AIProvider]string,
) error {
	cmd.Printf("Select %s provider\n", role)
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	selected := providers[idx-1]

	defaultModel := defaults[selected]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selected.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readLine(reader)
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	return applyProvider(cmd, role, selected, model, apiKey)
}

// applyProvider saves the provider for role, then pings it when a
// validator is available.
func applyProvider(cmd *cobra.Command, role string, provider domain.AIProvider, model, apiKey string) error {
	if err := settingsService.SetProvider(role, provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", role, err)
	}

	if providerValidator != nil {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		ps, err := providerForRole(settings, role)
		if err != nil {
			return err
		}

		cmd.Print("Validating configuration... ")
		ctx, cancel := context.WithTimeout(cmd.Context(), validateTimeout)
		defer cancel()
		if err := providerValidator.ValidateProvider(ctx, role, ps); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			return fmt.Errorf("%s configuration validation failed: %w", role, err)
		}
		cmd.Println("OK")
	}

	if model == "" {
		cmd.Printf("%s provider configured: %s\n\n", role, provider.Description())
	} else {
		cmd.Printf("%s provider configured: %s (%s)\n\n", role, provider.Description(), model)
	}
	return nil
}

func providerForRole(settings *domain.AppSettings, role string) (domain.ProviderSettings, error) {
	switch role {
	case roleEmbedding:
		return settings.Embedding, nil
	case roleLLM:
		return settings.LLM, nil
	case roleRerank:
		return settings.Rerank, nil
	default:
		return domain.ProviderSettings{}, fmt.Errorf("unknown provider role %q", role)
	}
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

// readPassword reads without echo when in is a terminal.
func readPassword(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(bufio.NewReader(in))
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
