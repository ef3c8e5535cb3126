// Package store implements the embedded relational Store: schema,
// migrations, transactional writes, and the typed query surface the
// Memory Engine builds on, with a SQLite bootstrap (WAL mode, foreign
// keys, connection pool tuning) and FTS5 + vector-blob table shapes for
// hybrid keyword and vector search.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver; build with -tags sqlite_fts5

	"github.com/patheras/prometheus-core/internal/errs"
)

// Store is the single mutable embedded database. All writes serialize
// through *sql.DB's own locking plus the Tx boundary for multi-statement
// operations.
type Store struct {
	db  *sql.DB
	dim int // fixed embedding dimension, pinned at Open()

	mu sync.RWMutex // guards nothing beyond dim/path bookkeeping; sql.DB is already safe for concurrent use
}

// Options configures Open.
type Options struct {
	// EmbeddingDim is the vector dimension to pin if this is a fresh database.
	EmbeddingDim int
}

// Open creates parent directories as needed, opens the database in WAL mode
// with foreign keys enforced, runs pending migrations under a transaction,
// and pins the embedding dimension.
func Open(path string, opts Options) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite tolerates only one writer; cap the pool so readers never starve
	// a pending writer under WAL.
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db}

	if err := s.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	dim, err := s.pinEmbeddingDim(context.Background(), opts.EmbeddingDim)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.dim = dim

	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// EmbeddingDim returns the dimension pinned at database creation.
func (s *Store) EmbeddingDim() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dim
}

// DB exposes the raw handle to sibling packages (convlog's sidecar index
// table lives in the same database). Callers outside this package must not
// issue schema-mutating statements.
func (s *Store) DB() *sql.DB { return s.db }

// Tx wraps a single atomic boundary. All Store methods that need one accept
// a *sql.Tx directly so WithinTx callers can compose multiple writes (e.g.
// chunk upsert + FTS mirror + embedding write) into one commit.
type Tx = sql.Tx

// WithinTx runs work inside a single transaction, rolling back on any
// returned error or panic.
func (s *Store) WithinTx(ctx context.Context, work func(tx *Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = work(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) pinEmbeddingDim(ctx context.Context, requested int) (int, error) {
	var existing string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM schema_meta WHERE key = 'embedding_dim'`).Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
		if requested <= 0 {
			return 0, errs.Validation("embedding dim must be positive on first open, got %d", requested)
		}
		_, err = s.db.ExecContext(ctx, `INSERT INTO schema_meta(key, value) VALUES ('embedding_dim', ?)`, fmt.Sprintf("%d", requested))
		if err != nil {
			return 0, fmt.Errorf("pin embedding dim: %w", err)
		}
		return requested, nil
	case err != nil:
		return 0, fmt.Errorf("read embedding dim: %w", err)
	default:
		var dim int
		if _, scanErr := fmt.Sscanf(existing, "%d", &dim); scanErr != nil {
			return 0, fmt.Errorf("parse stored embedding dim %q: %w", existing, scanErr)
		}
		return dim, nil
	}
}
