package services

import (
	"time"

	"github.com/custodia-labs/docindex/internal/core/ports/driven"
)

// nopMetrics discards all measurements.
type nopMetrics struct{}

func (nopMetrics) FilesProcessed(int) {}
func (nopMetrics) FilesSkipped(string, int) {}
func (nopMetrics) ChunksUploaded(int) {}
func (nopMetrics) EmbeddingFailures(int) {}
func (nopMetrics) IndexRun(string) {}
func (nopMetrics) ObserveSearch(string, time.Duration) {}

func metricsOrNop(m driven.Metrics) driven.Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}
