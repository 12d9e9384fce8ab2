// Package metrics provides the Prometheus implementation of driven.Metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/docindex/internal/core/ports/driven"
)

// Ensure Recorder implements the interface.
var _ driven.Metrics = (*Recorder)(nil)

// Namespace prefixes every exported metric.
const Namespace = "docindex"

// Recorder records indexing and search metrics in a Prometheus registry.
type Recorder struct {
	gatherer prometheus.Gatherer

	filesProcessed    prometheus.Counter
	filesSkipped      *prometheus.CounterVec
	chunksUploaded    prometheus.Counter
	embeddingFailures prometheus.Counter
	indexRuns         *prometheus.CounterVec
	searchLatency     *prometheus.HistogramVec
}

// NewRecorder registers the metrics in a fresh registry.
func NewRecorder() *Recorder {
	return NewRecorderWithRegistry(prometheus.NewRegistry())
}

// NewRecorderWithRegistry registers the metrics in reg.
func NewRecorderWithRegistry(reg *prometheus.Registry) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		gatherer: reg,
		filesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "files_processed_total",
			Help:      "Files that produced at least one chunk",
		}),
		filesSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "files_skipped_total",
			Help:      "Files skipped during processing, by error kind",
		}, []string{"kind"}),
		chunksUploaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "chunks_uploaded_total",
			Help:      "Index records committed to the store",
		}),
		embeddingFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "embedding_failures_total",
			Help:      "Chunks or queries left without an embedding",
		}),
		indexRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "index_runs_total",
			Help:      "Index runs by outcome",
		}, []string{"status"}),
		searchLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_duration_seconds",
			Help:      "Search latency by ranking mode",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"mode"}),
	}
}

// FilesProcessed adds files that produced chunks.
func (r *Recorder) FilesProcessed(n int) {
	r.filesProcessed.Add(float64(n))
}

// FilesSkipped adds files skipped with the given error kind.
func (r *Recorder) FilesSkipped(kind string, n int) {
	r.filesSkipped.WithLabelValues(kind).Add(float64(n))
}

// ChunksUploaded adds records committed to the store.
func (r *Recorder) ChunksUploaded(n int) {
	r.chunksUploaded.Add(float64(n))
}

// EmbeddingFailures adds chunks or queries left without an embedding.
func (r *Recorder) EmbeddingFailures(n int) {
	r.embeddingFailures.Add(float64(n))
}

// IndexRun records the outcome of an index run.
func (r *Recorder) IndexRun(status string) {
	r.indexRuns.WithLabelValues(status).Inc()
}

// ObserveSearch records a search latency for the given mode.
func (r *Recorder) ObserveSearch(mode string, d time.Duration) {
	r.searchLatency.WithLabelValues(mode).Observe(d.Seconds())
}

// Handler returns an HTTP handler exposing the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
