package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docindex/internal/core/domain"
)

var showMetadata bool

var showCmd = &cobra.Command{
	Use:   "show <document-id>",
	Short: "Print the full content of an indexed document",
	Long: `Reassembles every chunk of a document in chunk order, removing the
overlap between consecutive chunks. Document IDs are printed by search.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVarP(&showMetadata, "metadata", "m", false, "print document metadata before the content")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	svc, err := requireServices(cmd)
	if err != nil {
		return err
	}
	if svc.Search == nil {
		return errors.New("search service not configured")
	}

	docID := args[0]
	records := svc.Search.GetFullDocumentContent(commandContext(cmd), docID)
	if len(records) == 0 {
		return fmt.Errorf("document %s: %w", docID, domain.ErrNotFound)
	}

	if showMetadata {
		printDocumentMetadata(cmd, records)
	}
	cmd.Println(domain.ReconstructContent(records))
	return nil
}

func printDocumentMetadata(cmd *cobra.Command, records []domain.Record) {
	out := cmd.OutOrStdout()
	doc := records[0].Document

	cmd.Println(render(out, headerStyle, doc.RelativePath))
	if doc.Title != "" {
		cmd.Printf("  %s %s\n", render(out, labelStyle, "Title:"), doc.Title)
	}
	cmd.Printf("  %s %s\n", render(out, labelStyle, "Category:"), doc.Category.Description())
	cmd.Printf("  %s %d\n", render(out, labelStyle, "Chunks:"), len(records))
	if t := doc.Table; t != nil {
		cmd.Printf("  %s %s\n", render(out, labelStyle, "Table:"), t.FullName())
	}
	if q := doc.Query; q != nil {
		cmd.Printf("  %s %s\n", render(out, labelStyle, "Query type:"), q.Type)
	}
	cmd.Println()
}
