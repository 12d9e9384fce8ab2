package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics about the current index",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices(cmd)
	if err != nil {
		return err
	}
	if svc.Index == nil {
		return errors.New("index service not configured")
	}

	stats, err := svc.Index.Stats(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("reading index stats: %w", err)
	}

	out := cmd.OutOrStdout()
	if stats.TotalChunks == 0 {
		cmd.Println("The index is empty. Run 'docindex index' to build it.")
		return nil
	}

	cmd.Println(render(out, headerStyle, "Index statistics"))
	cmd.Printf("  %s %s\n", render(out, labelStyle, "Run:"), stats.RunID)
	cmd.Printf("  %s %d\n", render(out, labelStyle, "Chunks:"), stats.TotalChunks)
	cmd.Printf("  %s %d\n", render(out, labelStyle, "Files:"), stats.DistinctFiles)
	cmd.Printf("  %s %d\n", render(out, labelStyle, "Categories:"), stats.DistinctCategory)
	cmd.Printf("  %s %.1f bytes\n", render(out, labelStyle, "Avg chunk:"), stats.AvgContentLength)
	if !stats.FirstProcessedAt.IsZero() {
		cmd.Printf("  %s %s to %s\n", render(out, labelStyle, "Processed:"),
			stats.FirstProcessedAt.Format(time.RFC3339), stats.LastProcessedAt.Format(time.RFC3339))
	}
	return nil
}
