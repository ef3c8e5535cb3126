package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/patheras/prometheus-core/internal/errs"
)

// FindChunkIDByPathAndHash returns the id of an existing chunk for filePath
// whose stored content_hash matches, or sql.ErrNoRows if it needs (re)indexing.
func (s *Store) FindChunkIDByPathAndHash(ctx context.Context, filePath, contentHash string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM code_chunks WHERE file_path = ? AND content_hash = ?`, filePath, contentHash,
	).Scan(&id)
	if err != nil {
		return "", err // sql.ErrNoRows is a legitimate "not indexed yet" signal
	}
	return id, nil
}

// DeleteChunksForFile removes every chunk (and its FTS/embedding rows)
// belonging to filePath, inside tx — used before re-inserting a changed file's chunks.
func DeleteChunksForFile(ctx context.Context, tx *Tx, filePath string) error {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM code_chunks WHERE file_path = ?`, filePath)
	if err != nil {
		return fmt.Errorf("select chunks for file: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()

	for _, id := range ids {
		if err := deleteChunk(ctx, tx, id); err != nil {
			return err
		}
	}
	return nil
}

func deleteChunk(ctx context.Context, tx *Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM code_chunks_vec WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete chunk embedding: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM code_chunks_fts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete chunk fts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM code_chunks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete chunk: %w", err)
	}
	return nil
}

// UpsertCodeChunk replaces any existing chunk at the same id and writes its
// FTS mirror inside tx. Embedding is written separately via UpsertChunkEmbedding
// so index_codebase can commit the whole (chunk, fts, embedding) triple atomically.
func UpsertCodeChunk(ctx context.Context, tx *Tx, c CodeChunk) error {
	symbolsJSON, err := json.Marshal(c.Symbols)
	if err != nil {
		return fmt.Errorf("marshal symbols: %w", err)
	}
	importsJSON, err := json.Marshal(c.Imports)
	if err != nil {
		return fmt.Errorf("marshal imports: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO code_chunks(id, file_path, start_line, end_line, text, symbols, imports, content_hash, kind)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			file_path = excluded.file_path, start_line = excluded.start_line, end_line = excluded.end_line,
			text = excluded.text, symbols = excluded.symbols, imports = excluded.imports,
			content_hash = excluded.content_hash, kind = excluded.kind`,
		c.ID, c.FilePath, c.StartLine, c.EndLine, c.Text, string(symbolsJSON), string(importsJSON), c.ContentHash, c.Kind)
	if err != nil {
		return fmt.Errorf("upsert code chunk: %w", err)
	}

	// FTS mirror includes symbols for better recall, per spec §4.1.
	ftsContent := c.Text + " " + joinWords(c.Symbols)
	if _, err := tx.ExecContext(ctx, `DELETE FROM code_chunks_fts WHERE id = ?`, c.ID); err != nil {
		return fmt.Errorf("clear stale chunk fts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO code_chunks_fts(id, content) VALUES (?, ?)`, c.ID, ftsContent); err != nil {
		return fmt.Errorf("mirror chunk into fts: %w", err)
	}
	return nil
}

// UpsertChunkEmbedding writes or replaces the embedding for a chunk inside
// tx, rejecting vectors whose dimension disagrees with the database's
// pinned embedding dimension.
func (s *Store) UpsertChunkEmbedding(ctx context.Context, tx *Tx, e ChunkEmbedding) error {
	if e.Dim != s.EmbeddingDim() {
		return errs.Validation("embedding dim %d does not match pinned dim %d", e.Dim, s.EmbeddingDim())
	}
	blob := EncodeVector(e.Vector)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO code_chunks_vec(id, embedding, dim) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET embedding = excluded.embedding, dim = excluded.dim`,
		e.ChunkID, blob, e.Dim)
	if err != nil {
		return fmt.Errorf("upsert chunk embedding: %w", err)
	}
	return nil
}

// GetCodeChunk fetches one chunk by id.
func (s *Store) GetCodeChunk(ctx context.Context, id string) (CodeChunk, error) {
	return scanChunkRow(s.db.QueryRowContext(ctx,
		`SELECT id, file_path, start_line, end_line, text, symbols, imports, content_hash, kind FROM code_chunks WHERE id = ?`, id))
}

func scanChunkRow(row *sql.Row) (CodeChunk, error) {
	var c CodeChunk
	var symbolsJSON, importsJSON string
	if err := row.Scan(&c.ID, &c.FilePath, &c.StartLine, &c.EndLine, &c.Text, &symbolsJSON, &importsJSON, &c.ContentHash, &c.Kind); err != nil {
		return CodeChunk{}, err
	}
	_ = json.Unmarshal([]byte(symbolsJSON), &c.Symbols)
	_ = json.Unmarshal([]byte(importsJSON), &c.Imports)
	return c, nil
}

// ChunkWithEmbedding pairs a chunk with its vector for the vector scan pass.
type ChunkWithEmbedding struct {
	Chunk  CodeChunk
	Vector []float32
}

// StreamChunksWithEmbeddings calls fn for every chunk that has an embedding,
// in id order, stopping early if fn returns false. This backs the hybrid
// search vector pass's exact in-memory cosine scan (spec's stated Non-goal
// on ANN indexes: the candidate set is scored in full, not approximated).
func (s *Store) StreamChunksWithEmbeddings(ctx context.Context, fn func(ChunkWithEmbedding) bool) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.file_path, c.start_line, c.end_line, c.text, c.symbols, c.imports, c.content_hash, c.kind, v.embedding, v.dim
		FROM code_chunks c JOIN code_chunks_vec v ON v.id = c.id
		ORDER BY c.id ASC`)
	if err != nil {
		return fmt.Errorf("stream chunks with embeddings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c CodeChunk
		var symbolsJSON, importsJSON string
		var blob []byte
		var dim int
		if err := rows.Scan(&c.ID, &c.FilePath, &c.StartLine, &c.EndLine, &c.Text, &symbolsJSON, &importsJSON, &c.ContentHash, &c.Kind, &blob, &dim); err != nil {
			return err
		}
		_ = json.Unmarshal([]byte(symbolsJSON), &c.Symbols)
		_ = json.Unmarshal([]byte(importsJSON), &c.Imports)
		if !fn(ChunkWithEmbedding{Chunk: c, Vector: DecodeVector(blob, dim)}) {
			break
		}
	}
	return rows.Err()
}

// FTSChunkHit is one ranked row from the code_chunks_fts keyword pass.
type FTSChunkHit struct {
	ChunkID string
	Rank    float64 // raw bm25() rank, negative and more negative = more relevant
}

// SearchCodeChunksFTS runs ftsQuery against code_chunks_fts and returns the
// top `limit` rows ranked by bm25.
func (s *Store) SearchCodeChunksFTS(ctx context.Context, ftsQuery string, limit int) ([]FTSChunkHit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, bm25(code_chunks_fts) AS rank FROM code_chunks_fts
		WHERE code_chunks_fts MATCH ? ORDER BY rank LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("search code chunks fts: %w", err)
	}
	defer rows.Close()

	var out []FTSChunkHit
	for rows.Next() {
		var h FTSChunkHit
		if err := rows.Scan(&h.ChunkID, &h.Rank); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func joinWords(words []string) string {
	out := ""
	for i, w := range words {
		if i > 0 {
			out += " "
		}
		out += w
	}
	return out
}
