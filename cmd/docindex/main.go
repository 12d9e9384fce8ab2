// Command docindex indexes a document tree and serves hybrid search over it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/docindex/internal/adapters/driven/ai"
	"github.com/custodia-labs/docindex/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docindex/internal/adapters/driving/cli"
	"github.com/custodia-labs/docindex/internal/core/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	settings := services.NewSettingsService(configStore, ai.NewConfigValidator())
	cli.Configure(settings, buildServices)

	return cli.Execute(ctx)
}
