package postprocessors

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/docindex/internal/core/domain"
	"github.com/custodia-labs/docindex/internal/core/ports/driven"
	"github.com/custodia-labs/docindex/internal/logger"
	"github.com/custodia-labs/docindex/internal/postprocessors/chunker"
	"github.com/custodia-labs/docindex/internal/postprocessors/lexical"
)

// DefaultOrder is the processor order used for indexing.
var DefaultOrder = []string{"chunker", "lexical"}

// RegisterDefaults registers the chunker and lexical stages.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
	r.Register("lexical", buildLexical)
}

// NewDefaultPipeline builds the chunk-then-tokenise pipeline from index settings.
func NewDefaultPipeline(settings domain.IndexSettings) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)

	cfg := map[string]any{
		"chunk_size": settings.ChunkSize,
		"overlap":    settings.ChunkOverlap,
	}

	p, err := r.Pipeline(DefaultOrder, cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("Chunk pipeline: %s", strings.Join(p.Names(), " -> "))
	return p, nil
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Bytes per chunk (default: 2000)
//   - overlap (int): Overlapping bytes between chunks (default: 200)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if size, ok := getIntFromConfig(cfg, "chunk_size"); ok && size > 0 {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := getIntFromConfig(cfg, "overlap"); ok {
		if overlap < 0 {
			return nil, fmt.Errorf("%w: overlap must not be negative", domain.ErrInvalidInput)
		}
		opts = append(opts, chunker.WithOverlap(overlap))
	}

	return chunker.New(opts...), nil
}

// buildLexical creates the lexical token processor. It takes no config.
func buildLexical(_ map[string]any) (driven.PostProcessor, error) {
	return lexical.New(), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
