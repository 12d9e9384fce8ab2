package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/docindex/internal/core/domain"
	"github.com/custodia-labs/docindex/internal/core/ports/driven"
	"github.com/custodia-labs/docindex/internal/logger"
)

// defaultEmbeddingTimeout bounds each backend call when none is configured.
const defaultEmbeddingTimeout = 30 * time.Second

// errCallerDone marks calls abandoned because the caller's context ended.
// The breaker does not count them as backend failures.
var errCallerDone = errors.New("caller context done")

// EmbeddingGenerator wraps an embedding backend with lazy loading,
// per-call timeouts, rate limiting and a circuit breaker. All failures are
// reported as errors wrapping domain.ErrEmbeddingUnavailable so callers
// can degrade to lexical-only behaviour.
type EmbeddingGenerator struct {
	loader    driven.EmbeddingLoader
	timeout   time.Duration
	batchSize int
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker

	mu      sync.Mutex
	service driven.EmbeddingService
}

// NewEmbeddingGenerator creates a generator. The loader is not called
// until LoadModel or the first embedding request.
func NewEmbeddingGenerator(loader driven.EmbeddingLoader, settings domain.EmbeddingSettings) *EmbeddingGenerator {
	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = defaultEmbeddingTimeout
	}
	batchSize := settings.BatchSize
	if batchSize <= 0 {
		batchSize = domain.DefaultEmbedBatchSize
	}

	limit := rate.Inf
	burst := 1
	if settings.RequestsPerSecond > 0 {
		limit = rate.Limit(settings.RequestsPerSecond)
		burst = max(1, int(settings.RequestsPerSecond))
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "embedding",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errCallerDone)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return &EmbeddingGenerator{
		loader:    loader,
		timeout:   timeout,
		batchSize: batchSize,
		limiter:   rate.NewLimiter(limit, burst),
		breaker:   breaker,
	}
}

// LoadModel creates and pings the backend on first use and memoises the
// result. It returns false when no backend is configured or reachable.
// A failed load is retried on the next call.
func (g *EmbeddingGenerator) LoadModel(ctx context.Context) bool {
	_, err := g.backend(ctx)
	if err != nil {
		logger.Debug("Embedding model unavailable: %v", err)
		return false
	}
	return true
}

// ModelName returns the loaded model name, or "" before a successful load.
func (g *EmbeddingGenerator) ModelName() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.service == nil {
		return ""
	}
	return g.service.ModelName()
}

func (g *EmbeddingGenerator) backend(ctx context.Context) (driven.EmbeddingService, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.service != nil {
		return g.service, nil
	}
	if g.loader == nil {
		return nil, fmt.Errorf("%w: no loader", domain.ErrEmbeddingUnavailable)
	}

	svc, err := g.loader(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, fmt.Errorf("%w: not configured", domain.ErrEmbeddingUnavailable)
	}

	pingCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	if err := svc.Ping(pingCtx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}

	logger.Info("Loaded embedding model %s (%d dimensions)", svc.ModelName(), svc.Dimensions())
	g.service = svc
	return svc, nil
}

// GenerateEmbeddings embeds texts in batches and returns one unit-length
// vector per text. Any failure fails the whole call.
func (g *EmbeddingGenerator) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	svc, err := g.backend(ctx)
	if err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += g.batchSize {
		end := min(start+g.batchSize, len(texts))
		batch := texts[start:end]

		vecs, err := g.call(ctx, func(callCtx context.Context) ([][]float32, error) {
			return svc.EmbedBatch(callCtx, batch)
		})
		if err != nil {
			return nil, err
		}
		if len(vecs) != len(batch) {
			return nil, fmt.Errorf("%w: got %d embeddings for %d texts", domain.ErrEmbeddingUnavailable, len(vecs), len(batch))
		}
		for _, v := range vecs {
			out = append(out, normalize(v))
		}
	}
	return out, nil
}

// GenerateSingleEmbedding embeds prefix+text and returns a unit-length vector.
func (g *EmbeddingGenerator) GenerateSingleEmbedding(ctx context.Context, text, prefix string) ([]float32, error) {
	svc, err := g.backend(ctx)
	if err != nil {
		return nil, err
	}

	vecs, err := g.call(ctx, func(callCtx context.Context) ([][]float32, error) {
		v, err := svc.Embed(callCtx, prefix+text)
		if err != nil {
			return nil, err
		}
		return [][]float32{v}, nil
	})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", domain.ErrEmbeddingUnavailable)
	}
	return normalize(vecs[0]), nil
}

// call runs fn under the rate limiter, the circuit breaker and a timeout.
func (g *EmbeddingGenerator) call(
	ctx context.Context, fn func(context.Context) ([][]float32, error),
) ([][]float32, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}

	res, err := g.breaker.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		vecs, err := fn(callCtx)
		if err != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", errCallerDone, ctx.Err())
		}
		return vecs, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", domain.ErrEmbeddingUnavailable)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return res.([][]float32), nil
}

// Close releases the backend if it was loaded.
func (g *EmbeddingGenerator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.service == nil {
		return nil
	}
	err := g.service.Close()
	g.service = nil
	return err
}
