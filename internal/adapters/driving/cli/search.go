package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docindex/internal/core/domain"
)

var (
	searchTopK            int
	searchCategory        string
	searchBM25Weight      float64
	searchEmbeddingWeight float64
	searchLexicalMode     string
	searchJSON            bool
	searchFull            bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Performs hybrid search across all indexed documents.
Combines a lexical score (tiered containment, or BM25 with --lexical-mode bm25)
with semantic similarity from the embedding model. Without an embedding
provider, results are ranked lexically.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "maximum number of results (default search.top_k)")
	searchCmd.Flags().StringVarP(&searchCategory, "category", "c", "",
		"restrict to general, table_context, pod_queries or user_context")
	searchCmd.Flags().Float64Var(&searchBM25Weight, "bm25-weight", 0, "lexical score weight (default search.bm25_weight)")
	searchCmd.Flags().Float64Var(&searchEmbeddingWeight, "embedding-weight", 0,
		"embedding similarity weight (default search.embedding_weight)")
	searchCmd.Flags().StringVar(&searchLexicalMode, "lexical-mode", "", "containment or bm25 (default search.lexical_mode)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchFull, "full", false, "print the full report with reconstructed documents")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	opts, err := searchOptionsFromFlags(cmd)
	if err != nil {
		return err
	}

	svc, err := requireServices(cmd)
	if err != nil {
		return err
	}
	if svc.Search == nil {
		return errors.New("search service not configured")
	}

	ctx := commandContext(cmd)
	resp := svc.Search.SearchDocuments(ctx, query, opts)

	if searchJSON {
		return outputSearchJSON(cmd, resp)
	}
	if searchFull {
		cmd.Print(svc.Search.FormatSearchResults(ctx, resp.Results, query))
		return nil
	}
	return outputSearchTable(cmd, resp)
}

// searchOptionsFromFlags builds search options from the flags. Weights
// that were not passed stay nil so the service applies each default.
func searchOptionsFromFlags(cmd *cobra.Command) (domain.SearchOptions, error) {
	opts := domain.SearchOptions{TopK: searchTopK}
	if searchTopK < 0 {
		return opts, fmt.Errorf("%w: --top-k must be positive", domain.ErrInvalidInput)
	}
	if searchBM25Weight < 0 || searchEmbeddingWeight < 0 {
		return opts, fmt.Errorf("%w: weights must not be negative", domain.ErrInvalidInput)
	}
	if cmd.Flags().Changed("bm25-weight") {
		opts.BM25Weight = domain.Weight(searchBM25Weight)
	}
	if cmd.Flags().Changed("embedding-weight") {
		opts.EmbeddingWeight = domain.Weight(searchEmbeddingWeight)
	}
	if searchCategory != "" {
		c, err := domain.ParseCategory(searchCategory)
		if err != nil {
			return opts, fmt.Errorf("unknown category %q: %w", searchCategory, err)
		}
		opts.Category = &c
	}
	if searchLexicalMode != "" {
		mode := domain.LexicalMode(searchLexicalMode)
		if !mode.IsValid() {
			return opts, fmt.Errorf("%w: unknown lexical mode %q", domain.ErrInvalidInput, searchLexicalMode)
		}
		opts.LexicalMode = mode
	}
	return opts, nil
}

// jsonResult is the JSON shape of one search hit.
type jsonResult struct {
	DocumentID     string  `json:"document_id"`
	RelativePath   string  `json:"relative_path"`
	Category       string  `json:"category"`
	ChunkID        int     `json:"chunk_id"`
	ChunkCount     int     `json:"chunk_count"`
	LexicalScore   float64 `json:"bm25_score"`
	EmbeddingScore float64 `json:"embedding_score"`
	CombinedScore  float64 `json:"combined_score"`
	Content        string  `json:"content"`
}

type jsonResponse struct {
	Mode              string       `json:"mode"`
	Results           []jsonResult `json:"results"`
	SkippedEmbeddings int          `json:"skipped_embeddings"`
	Unavailable       bool         `json:"unavailable"`
	Warnings          []string     `json:"warnings,omitempty"`
}

func outputSearchJSON(cmd *cobra.Command, resp domain.SearchResponse) error {
	out := jsonResponse{
		Mode:              string(resp.Mode),
		Results:           make([]jsonResult, len(resp.Results)),
		SkippedEmbeddings: resp.SkippedEmbeddings,
		Unavailable:       resp.Unavailable,
		Warnings:          resp.Warnings,
	}
	for i, r := range resp.Results {
		out.Results[i] = jsonResult{
			DocumentID:     r.Record.Document.ID,
			RelativePath:   r.Record.Document.RelativePath,
			Category:       string(r.Record.Document.Category),
			ChunkID:        r.Record.Chunk.ChunkID,
			ChunkCount:     r.Record.Chunk.ChunkCount,
			LexicalScore:   r.LexicalScore,
			EmbeddingScore: r.EmbeddingScore,
			CombinedScore:  r.CombinedScore,
			Content:        r.Record.Chunk.Content,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, resp domain.SearchResponse) error {
	w := cmd.OutOrStdout()

	for _, warning := range resp.Warnings {
		cmd.Println(render(w, warnStyle, "Warning: "+warning))
	}
	if resp.Unavailable {
		cmd.Println("The index is unavailable. Run 'docindex index' first.")
		return nil
	}
	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println(render(w, headerStyle, "Results") + " " + render(w, labelStyle, "("+resp.Mode.Description()+")"))
	cmd.Println()
	for i, r := range resp.Results {
		doc := r.Record.Document
		// Format: [N] path#chunk (combined)
		cmd.Printf("  [%d] %s#%d %s\n", i+1, doc.RelativePath, r.Record.Chunk.ChunkID,
			render(w, scoreStyle, fmt.Sprintf("(%.3f)", r.CombinedScore)))
		cmd.Printf("      %s %s  %s %.2f  %s %.3f\n",
			render(w, labelStyle, "category"), doc.Category,
			render(w, labelStyle, "bm25"), r.LexicalScore,
			render(w, labelStyle, "embedding"), r.EmbeddingScore)
		cmd.Printf("      %s %s\n", render(w, labelStyle, "id"), doc.ID)
		if snippet := snippetOf(r.Record.Chunk.Content, 160); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}
	return nil
}

// snippetOf collapses whitespace and truncates to n runes.
func snippetOf(content string, n int) string {
	s := strings.Join(strings.Fields(content), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
