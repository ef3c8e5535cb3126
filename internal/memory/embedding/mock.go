package embedding

import (
	"context"
	"crypto/sha256"
	"math"
)

// Mock is a deterministic, content-derived pseudo-embedding: the same text
// always yields the same vector, and different texts yield different
// vectors, but there is no semantic relationship to genuine embeddings.
// Default for development and the one Provider exercised by tests, per
// spec.md §6's "deterministic pseudo-embedding (hash-based, L2-normalized)".
type Mock struct {
	dim int
}

// NewMock builds a Mock producing vectors of the given dimension.
func NewMock(dim int) *Mock {
	return &Mock{dim: dim}
}

func (m *Mock) Dim() int { return m.dim }

// Embed hashes text into a repeating byte stream, maps each dimension to a
// signed float from one hash byte, then L2-normalizes the result.
func (m *Mock) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, m.dim)
	seed := sha256.Sum256([]byte(text))

	block := seed
	for i := 0; i < m.dim; i++ {
		if i > 0 && i%len(block) == 0 {
			block = sha256.Sum256(block[:])
		}
		b := block[i%len(block)]
		vec[i] = float32(int(b)-128) / 128.0
	}

	normalize(vec)
	return vec, nil
}

func normalize(v []float32) {
	var sumSquares float64
	for _, f := range v {
		sumSquares += float64(f) * float64(f)
	}
	if sumSquares == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSquares))
	for i := range v {
		v[i] /= norm
	}
}
