package memory

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/patheras/prometheus-core/internal/convlog"
	"github.com/patheras/prometheus-core/internal/memory/embedding"
	"github.com/patheras/prometheus-core/internal/store"
)

const testEmbeddingDim = 8

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "prometheus.db"), store.Options{EmbeddingDim: testEmbeddingDim})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	l, err := convlog.Open(t.TempDir())
	require.NoError(t, err)

	e, err := New(Options{Store: s, Log: l, Embedder: embedding.NewMock(testEmbeddingDim)})
	require.NoError(t, err)
	return e
}
