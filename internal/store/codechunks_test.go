package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertCodeChunkAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	chunk := CodeChunk{
		ID: "chunk1", FilePath: "main.go", StartLine: 1, EndLine: 10,
		Text: "func main() {}", Symbols: []string{"main"}, Imports: []string{"fmt"},
		ContentHash: "hash1", Kind: "function",
	}
	require.NoError(t, s.WithinTx(ctx, func(tx *Tx) error { return UpsertCodeChunk(ctx, tx, chunk) }))

	got, err := s.GetCodeChunk(ctx, "chunk1")
	require.NoError(t, err)
	assert.Equal(t, chunk.Text, got.Text)
	assert.Equal(t, []string{"main"}, got.Symbols)

	id, err := s.FindChunkIDByPathAndHash(ctx, "main.go", "hash1")
	require.NoError(t, err)
	assert.Equal(t, "chunk1", id)

	_, err = s.FindChunkIDByPathAndHash(ctx, "main.go", "wronghash")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUpsertCodeChunkReplacesOnConflict(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WithinTx(ctx, func(tx *Tx) error {
		return UpsertCodeChunk(ctx, tx, CodeChunk{ID: "c1", FilePath: "a.go", Text: "v1", ContentHash: "h1"})
	}))
	require.NoError(t, s.WithinTx(ctx, func(tx *Tx) error {
		return UpsertCodeChunk(ctx, tx, CodeChunk{ID: "c1", FilePath: "a.go", Text: "v2", ContentHash: "h2"})
	}))

	got, err := s.GetCodeChunk(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Text)
	assert.Equal(t, "h2", got.ContentHash)
}

func TestDeleteChunksForFileCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WithinTx(ctx, func(tx *Tx) error {
		if err := UpsertCodeChunk(ctx, tx, CodeChunk{ID: "c1", FilePath: "a.go", Text: "v1", ContentHash: "h1"}); err != nil {
			return err
		}
		return s.UpsertChunkEmbedding(ctx, tx, ChunkEmbedding{ChunkID: "c1", Vector: make([]float32, 8), Dim: 8})
	}))

	require.NoError(t, s.WithinTx(ctx, func(tx *Tx) error { return DeleteChunksForFile(ctx, tx, "a.go") }))

	_, err := s.GetCodeChunk(ctx, "c1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStreamChunksWithEmbeddingsRoundTripsVector(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	vec := []float32{0.5, -0.25, 1.75, 0, 0.1, -0.1, 0.2, -0.2}

	require.NoError(t, s.WithinTx(ctx, func(tx *Tx) error {
		if err := UpsertCodeChunk(ctx, tx, CodeChunk{ID: "c1", FilePath: "a.go", Text: "v1", ContentHash: "h1"}); err != nil {
			return err
		}
		return s.UpsertChunkEmbedding(ctx, tx, ChunkEmbedding{ChunkID: "c1", Vector: vec, Dim: len(vec)})
	}))

	var seen []ChunkWithEmbedding
	err := s.StreamChunksWithEmbeddings(ctx, func(cwe ChunkWithEmbedding) bool {
		seen = append(seen, cwe)
		return true
	})
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, vec, seen[0].Vector)
}

func TestStreamChunksWithEmbeddingsStopsEarly(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WithinTx(ctx, func(tx *Tx) error {
		for _, id := range []string{"a", "b", "c"} {
			if err := UpsertCodeChunk(ctx, tx, CodeChunk{ID: id, FilePath: id + ".go", Text: id, ContentHash: id}); err != nil {
				return err
			}
			if err := s.UpsertChunkEmbedding(ctx, tx, ChunkEmbedding{ChunkID: id, Vector: make([]float32, 8), Dim: 8}); err != nil {
				return err
			}
		}
		return nil
	}))

	count := 0
	err := s.StreamChunksWithEmbeddings(ctx, func(ChunkWithEmbedding) bool {
		count++
		return count < 2
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSearchCodeChunksFTSRanksMatches(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WithinTx(ctx, func(tx *Tx) error {
		if err := UpsertCodeChunk(ctx, tx, CodeChunk{ID: "c1", FilePath: "a.go", Text: "parses configuration files", Symbols: []string{"ParseConfig"}, ContentHash: "h1"}); err != nil {
			return err
		}
		return UpsertCodeChunk(ctx, tx, CodeChunk{ID: "c2", FilePath: "b.go", Text: "writes log entries", Symbols: []string{"WriteLog"}, ContentHash: "h2"})
	}))

	hits, err := s.SearchCodeChunksFTS(ctx, "configuration", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].ChunkID)
}
