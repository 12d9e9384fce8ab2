package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docindex/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change docindex settings.

Settings are stored in ~/.docindex/config.toml. Any key can be overridden
with an environment variable, e.g. DOCINDEX_SEARCH_TOP_K=10.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a single setting",
	Long: `Change a single setting. Run 'docindex settings keys' for the list of keys.

Examples:
  docindex settings set index.root ./docs
  docindex settings set search.lexical_mode bm25`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the configurable keys",
	Args:  cobra.NoArgs,
	Run:   runSettingsKeys,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure the embedding provider interactively",
	Args:  cobra.NoArgs,
	RunE:  runSettingsEmbedding,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	rootCmd.AddCommand(settingsCmd)
}

// settingSetters applies a string value to one settings field.
var settingSetters = map[string]func(s *domain.AppSettings, v string) error{
	"index.root":          func(s *domain.AppSettings, v string) error { s.Index.Root = v; return nil },
	"index.chunk_size":    intSetter(func(s *domain.AppSettings, n int) { s.Index.ChunkSize = n }),
	"index.chunk_overlap": intSetter(func(s *domain.AppSettings, n int) { s.Index.ChunkOverlap = n }),
	"index.batch_size":    intSetter(func(s *domain.AppSettings, n int) { s.Index.BatchSize = n }),
	"index.workers":       intSetter(func(s *domain.AppSettings, n int) { s.Index.Workers = n }),
	"embedding.provider": func(s *domain.AppSettings, v string) error {
		p := domain.AIProvider(strings.ToLower(v))
		if v != "" && !p.IsValid() {
			return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidInput, v)
		}
		s.Embedding.Provider = p
		return nil
	},
	"embedding.model":        func(s *domain.AppSettings, v string) error { s.Embedding.Model = v; return nil },
	"embedding.base_url":     func(s *domain.AppSettings, v string) error { s.Embedding.BaseURL = v; return nil },
	"embedding.api_key":      func(s *domain.AppSettings, v string) error { s.Embedding.APIKey = v; return nil },
	"embedding.query_prefix": func(s *domain.AppSettings, v string) error { s.Embedding.QueryPrefix = v; return nil },
	"embedding.timeout_seconds": intSetter(func(s *domain.AppSettings, n int) {
		s.Embedding.Timeout = time.Duration(n) * time.Second
	}),
	"embedding.requests_per_second": floatSetter(func(s *domain.AppSettings, f float64) {
		s.Embedding.RequestsPerSecond = f
	}),
	"search.top_k":            intSetter(func(s *domain.AppSettings, n int) { s.Search.TopK = n }),
	"search.bm25_weight":      floatSetter(func(s *domain.AppSettings, f float64) { s.Search.BM25Weight = f }),
	"search.embedding_weight": floatSetter(func(s *domain.AppSettings, f float64) { s.Search.EmbeddingWeight = f }),
	"search.lexical_mode": func(s *domain.AppSettings, v string) error {
		s.Search.LexicalMode = domain.LexicalMode(strings.ToLower(v))
		return nil
	},
	"store.data_dir": func(s *domain.AppSettings, v string) error { s.Store.DataDir = v; return nil },
}

func intSetter(set func(*domain.AppSettings, int)) func(*domain.AppSettings, string) error {
	return func(s *domain.AppSettings, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %q is not an integer", domain.ErrInvalidInput, v)
		}
		set(s, n)
		return nil
	}
}

func floatSetter(set func(*domain.AppSettings, float64)) func(*domain.AppSettings, string) error {
	return func(s *domain.AppSettings, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %q is not a number", domain.ErrInvalidInput, v)
		}
		set(s, f)
		return nil
	}
}

// applySetting sets key on settings from its string form.
func applySetting(settings *domain.AppSettings, key, value string) error {
	set, ok := settingSetters[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	return set(settings, value)
}

func settingKeys() []string {
	keys := make([]string, 0, len(settingSetters))
	for k := range settingSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	out := cmd.OutOrStdout()

	cmd.Println(render(out, headerStyle, "[Index]"))
	cmd.Printf("  Root: %s\n", settings.Index.Root)
	cmd.Printf("  Chunk size: %d (overlap %d)\n", settings.Index.ChunkSize, settings.Index.ChunkOverlap)
	cmd.Printf("  Upload batch: %d\n", settings.Index.BatchSize)
	cmd.Printf("  Workers: %d\n", settings.Index.Workers)
	cmd.Println()

	cmd.Println(render(out, headerStyle, "[Embedding]"))
	if settings.Embedding.Provider == "" {
		cmd.Println("  Provider: (none, search is lexical only)")
	} else {
		cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
		cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	}
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		if settings.Embedding.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Embedding.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	cmd.Printf("  Timeout: %s\n", settings.Embedding.Timeout)
	if settings.Embedding.RequestsPerSecond > 0 {
		cmd.Printf("  Rate limit: %.1f req/s\n", settings.Embedding.RequestsPerSecond)
	}
	status := "configured"
	if !settings.Embedding.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println(render(out, headerStyle, "[Search]"))
	cmd.Printf("  Top K: %d\n", settings.Search.TopK)
	cmd.Printf("  Weights: bm25 %.2f, embedding %.2f\n", settings.Search.BM25Weight, settings.Search.EmbeddingWeight)
	cmd.Printf("  Lexical mode: %s\n", settings.Search.LexicalMode)
	cmd.Println()

	cmd.Println(render(out, headerStyle, "[Store]"))
	dataDir := settings.Store.DataDir
	if dataDir == "" {
		dataDir = "(default ~/.docindex/data)"
	}
	cmd.Printf("  Data dir: %s\n", dataDir)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Println(render(out, warnStyle, fmt.Sprintf("Warning: %v", err)))
		cmd.Println("Run 'docindex settings set <key> <value>' to fix it.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	key, value := args[0], args[1]

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if err := applySetting(settings, key, value); err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}

	cmd.Printf("%s = %s\n", strings.ToLower(key), displayValue(key, value))
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) {
	for _, k := range settingKeys() {
		cmd.Println(k)
	}
}

func displayValue(key, value string) string {
	if strings.EqualFold(key, "embedding.api_key") {
		return maskAPIKey(value)
	}
	return value
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureEmbeddingProvider(cmd, reader)
}

func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	defaults := domain.DefaultEmbeddingModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetEmbeddingProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	// Ping the provider so a typo surfaces now rather than at index time.
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n", selectedProvider.Description(), model)
	cmd.Println("Run 'docindex index' to embed existing content.")
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

// readPassword reads without echo when in is a terminal, otherwise a plain line.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(password)
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
