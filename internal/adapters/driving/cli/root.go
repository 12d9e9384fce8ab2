// Package cli provides the cobra command tree for docindex.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docindex/internal/core/domain"
	"github.com/custodia-labs/docindex/internal/core/ports/driving"
	"github.com/custodia-labs/docindex/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Watcher reports changes to files under the content root.
type Watcher interface {
	Watch(ctx context.Context) (<-chan domain.FileChange, error)
}

// Services holds the driving ports used by commands.
type Services struct {
	Index  driving.IndexService
	Search driving.SearchService

	// Watcher is optional; index --watch requires it.
	Watcher Watcher

	// Metrics is optional; it is served at /metrics by mcp serve --port.
	Metrics http.Handler

	// Close releases stores and backends. Optional.
	Close func() error
}

// Builder constructs services from the effective settings.
type Builder func(ctx context.Context, settings domain.AppSettings) (*Services, error)

var (
	settingsService driving.SettingsService
	buildServices   Builder
	services        *Services

	flagVerbose bool
	flagQuiet   bool
	flagDataDir string
	flagRoot    string
)

var rootCmd = &cobra.Command{
	Use:   "docindex",
	Short: "Hybrid lexical and semantic search over a document tree",
	Long: `docindex chunks markdown, SQL, text, JSON and YAML files under a content
root, embeds the chunks and stores them in a local SQLite index. Searches
combine a tiered lexical containment score with embedding similarity.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
		logger.SetQuiet(flagQuiet)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "print debug and progress logs")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress warnings")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "directory holding the index database")
}

// Configure injects the settings service and the builder used to create
// the remaining services on first use.
func Configure(settings driving.SettingsService, build Builder) {
	settingsService = settings
	buildServices = build
}

// Execute runs the root command. Command output goes to stdout so results
// can be piped; logs stay on stderr.
func Execute(ctx context.Context) error {
	defer closeServices()
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

// effectiveSettings returns stored settings with command-line overrides applied.
func effectiveSettings() (domain.AppSettings, error) {
	if settingsService == nil {
		return domain.AppSettings{}, errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return domain.AppSettings{}, fmt.Errorf("loading settings: %w", err)
	}
	if flagDataDir != "" {
		settings.Store.DataDir = flagDataDir
	}
	if flagRoot != "" {
		settings.Index.Root = flagRoot
	}
	return *settings, nil
}

// requireServices returns the injected services, building them on first use.
func requireServices(cmd *cobra.Command) (*Services, error) {
	if services != nil {
		return services, nil
	}
	if buildServices == nil {
		return nil, errors.New("services not configured")
	}

	settings, err := effectiveSettings()
	if err != nil {
		return nil, err
	}

	built, err := buildServices(commandContext(cmd), settings)
	if err != nil {
		return nil, err
	}
	services = built
	return services, nil
}

func closeServices() {
	if services == nil || services.Close == nil {
		return
	}
	if err := services.Close(); err != nil {
		logger.Warn("closing services: %v", err)
	}
	services = nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
