package memory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/patheras/prometheus-core/internal/store"
)

// IndexStats summarizes one IndexCodebase pass.
type IndexStats struct {
	FilesScanned  int
	FilesIndexed  int
	FilesSkipped  int
	ChunksWritten int
}

// IndexCodebase walks root, excluding conventional vendor/VCS directories
// and any caller-configured exclusion, and for every source file: splits
// it into chunks, computes a content hash, and writes/replaces the file's
// chunk set (plus FTS mirror and embedding) when the hash has changed.
// Files whose content is unchanged since the last pass are skipped.
func (e *Engine) IndexCodebase(ctx context.Context, root string) (IndexStats, error) {
	var stats IndexStats

	err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			if e.excludeDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !isSourceFile(path) {
			return nil
		}

		stats.FilesScanned++
		n, indexed, err := e.indexFile(ctx, path)
		if err != nil {
			return fmt.Errorf("index %s: %w", path, err)
		}
		if indexed {
			stats.FilesIndexed++
			stats.ChunksWritten += n
		} else {
			stats.FilesSkipped++
		}
		return nil
	})
	if err != nil {
		return stats, err
	}
	return stats, nil
}

var sourceExtensions = map[string]bool{
	".go": true, ".ts": true, ".tsx": true, ".js": true, ".jsx": true,
	".py": true, ".java": true, ".rs": true, ".rb": true, ".c": true, ".cc": true, ".cpp": true, ".h": true,
}

func isSourceFile(path string) bool {
	return sourceExtensions[filepath.Ext(path)]
}

// indexFile re-chunks path if its content has changed since the last
// index, writing the whole (chunk, fts, embedding) set atomically per
// chunk. Returns the chunk count written and whether the file was
// actually re-indexed.
func (e *Engine) indexFile(ctx context.Context, path string) (int, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false, err
	}
	text := string(data)
	hash := contentHash(text)

	_, err = e.store.FindChunkIDByPathAndHash(ctx, path, hash)
	if err == nil {
		return 0, false, nil // unchanged since last index
	}
	if err != sql.ErrNoRows {
		return 0, false, err
	}

	chunks := chunkFile(text)
	err = e.store.WithinTx(ctx, func(tx *store.Tx) error {
		if delErr := store.DeleteChunksForFile(ctx, tx, path); delErr != nil {
			return delErr
		}
		for _, c := range chunks {
			id := uuid.NewString()
			if upErr := store.UpsertCodeChunk(ctx, tx, store.CodeChunk{
				ID: id, FilePath: path, StartLine: c.StartLine, EndLine: c.EndLine,
				Text: c.Text, Symbols: c.Symbols, Imports: c.Imports, ContentHash: hash, Kind: c.Kind,
			}); upErr != nil {
				return upErr
			}
			vec, embErr := e.embedder.Embed(ctx, c.Text)
			if embErr != nil {
				return fmt.Errorf("embed chunk: %w", embErr)
			}
			if embErr := e.store.UpsertChunkEmbedding(ctx, tx, store.ChunkEmbedding{ChunkID: id, Vector: vec, Dim: len(vec)}); embErr != nil {
				return embErr
			}
		}
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return len(chunks), true, nil
}
