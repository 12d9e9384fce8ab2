package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docindex/internal/core/domain"
	"github.com/custodia-labs/docindex/internal/logger"
)

var (
	indexWatch    bool
	indexDebounce time.Duration
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the search index from the content root",
	Long: `Walks the content root, chunks and tokenises every supported file, embeds
the chunks when an embedding provider is configured and uploads them as a
new index run. The previous run stays searchable until the new one completes.

With --watch, the index is rebuilt whenever files under the root change.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVarP(&flagRoot, "root", "r", "", "content root (overrides index.root)")
	indexCmd.Flags().BoolVarP(&indexWatch, "watch", "w", false, "re-index when files change")
	indexCmd.Flags().DurationVar(&indexDebounce, "debounce", 2*time.Second, "quiet period before re-indexing in watch mode")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices(cmd)
	if err != nil {
		return err
	}
	if svc.Index == nil {
		return errors.New("index service not configured")
	}

	ctx := commandContext(cmd)
	if err := indexOnce(ctx, cmd, svc); err != nil {
		if !indexWatch {
			return err
		}
		logger.Error("%v", err)
	}
	if !indexWatch {
		return nil
	}

	if svc.Watcher == nil {
		return errors.New("watching is not supported by this configuration")
	}
	return watchAndIndex(ctx, cmd, svc)
}

func indexOnce(ctx context.Context, cmd *cobra.Command, svc *Services) error {
	report, err := svc.Index.IndexAll(ctx)
	printIndexReport(cmd, report)
	if err != nil {
		if errors.Is(err, domain.ErrRootNotFound) {
			return fmt.Errorf("content root not found: %w", err)
		}
		return fmt.Errorf("indexing failed: %w", err)
	}
	return nil
}

// watchAndIndex re-runs the index after changes settle for indexDebounce.
func watchAndIndex(ctx context.Context, cmd *cobra.Command, svc *Services) error {
	changes, err := svc.Watcher.Watch(ctx)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	cmd.Println("Watching for changes (Ctrl+C to stop)...")

	timer := time.NewTimer(indexDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := 0

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			logger.Debug("change: %s (removed=%t)", change.RelativePath, change.Removed)
			pending++
			timer.Reset(indexDebounce)
		case <-timer.C:
			cmd.Printf("\n%d change(s) detected, re-indexing...\n", pending)
			pending = 0
			if err := indexOnce(ctx, cmd, svc); err != nil {
				logger.Error("%v", err)
			}
		}
	}
}

func printIndexReport(cmd *cobra.Command, report *domain.IndexReport) {
	if report == nil || report.Process == nil {
		return
	}
	out := cmd.OutOrStdout()
	p := report.Process

	if p.RootMissing {
		cmd.Printf("%s %s\n", render(out, warnStyle, "Content root does not exist:"), p.Root)
		return
	}

	cmd.Println(render(out, headerStyle, "Index run"))
	cmd.Printf("  %s %s\n", render(out, labelStyle, "Root:"), p.Root)
	cmd.Printf("  %s %d processed, %d skipped (of %d)\n",
		render(out, labelStyle, "Files:"), p.FilesProcessed, p.FilesSkipped(), p.FilesSeen)
	cmd.Printf("  %s %d\n", render(out, labelStyle, "Chunks:"), p.ChunksProduced)

	if report.EmbeddingsEnabled {
		cmd.Printf("  %s %d embedded, %d failed\n",
			render(out, labelStyle, "Embeddings:"), report.ChunksEmbedded, report.EmbeddingFailures)
	} else {
		cmd.Printf("  %s disabled (no embedding backend)\n", render(out, labelStyle, "Embeddings:"))
	}

	if u := report.Upload; u != nil {
		status := "completed"
		if !u.Completed {
			status = fmt.Sprintf("failed at batch %d", u.FailedBatch)
		}
		cmd.Printf("  %s %s, %d records in %d batches (%s)\n",
			render(out, labelStyle, "Run:"), u.RunID, u.RecordsWritten, u.BatchesWritten, status)
	}
	cmd.Printf("  %s %s\n", render(out, labelStyle, "Duration:"), report.Duration.Round(time.Millisecond))

	if len(p.Errors) > 0 {
		cmd.Println(render(out, warnStyle, "Skipped files:"))
		for _, e := range p.Errors {
			cmd.Printf("  %s [%s]: %v\n", e.Path, e.Kind, e.Err)
		}
	}
}
