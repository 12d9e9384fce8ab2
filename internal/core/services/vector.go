package services

import (
	"fmt"
	"math"

	"github.com/custodia-labs/docindex/internal/core/domain"
)

// normalize scales v to unit length in place and returns it.
// A zero vector is returned unchanged.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		v[i] = float32(float64(x) / norm)
	}
	return v
}

// dot returns the dot product of two vectors of equal length. On unit
// vectors this is the cosine similarity.
func dot(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: dimension %d, want %d", domain.ErrMalformedEmbedding, len(b), len(a))
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	if math.IsNaN(sum) || math.IsInf(sum, 0) {
		return 0, fmt.Errorf("%w: non-finite similarity", domain.ErrMalformedEmbedding)
	}
	return sum, nil
}
