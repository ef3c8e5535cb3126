package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/patheras/prometheus-core/internal/errs"
)

// migration is one linear schema step. Name values must be unique and
// registered in the order they should apply — the registry is the
// authority, not the database's current contents.
type migration struct {
	Name string
	Up   func(tx *sql.Tx) error
	Down func(tx *sql.Tx) error // optional
}

// registry is the full linear migration history, grounded on the table
// shapes in the MycelicMemory schema dump (other_examples) and the
// FTS5-contentless pattern from mycoder_cli's sqlite migrator.
var registry = []migration{
	{
		Name: "0001_init",
		Up: func(tx *sql.Tx) error {
			stmts := []string{
				`CREATE TABLE IF NOT EXISTS schema_meta (
					key TEXT PRIMARY KEY,
					value TEXT NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS migrations (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL UNIQUE,
					applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE TABLE IF NOT EXISTS conversations (
					id TEXT PRIMARY KEY,
					title TEXT,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS messages (
					id TEXT PRIMARY KEY,
					conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
					role TEXT NOT NULL CHECK (role IN ('user','assistant','system','tool')),
					content TEXT NOT NULL,
					timestamp DATETIME NOT NULL,
					metadata TEXT
				)`,
				`CREATE INDEX IF NOT EXISTS idx_messages_conv_ts ON messages(conversation_id, timestamp)`,
				`CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
					id UNINDEXED, conversation_id UNINDEXED, content,
					tokenize = 'unicode61 remove_diacritics 2'
				)`,
				`CREATE TABLE IF NOT EXISTS code_chunks (
					id TEXT PRIMARY KEY,
					file_path TEXT NOT NULL,
					start_line INTEGER NOT NULL,
					end_line INTEGER NOT NULL,
					text TEXT NOT NULL,
					symbols TEXT,
					imports TEXT,
					content_hash TEXT NOT NULL,
					kind TEXT
				)`,
				`CREATE INDEX IF NOT EXISTS idx_code_chunks_file_path ON code_chunks(file_path)`,
				`CREATE VIRTUAL TABLE IF NOT EXISTS code_chunks_fts USING fts5(
					id UNINDEXED, content,
					tokenize = 'unicode61 remove_diacritics 2'
				)`,
				`CREATE TABLE IF NOT EXISTS code_chunks_vec (
					id TEXT PRIMARY KEY REFERENCES code_chunks(id) ON DELETE CASCADE,
					embedding BLOB NOT NULL,
					dim INTEGER NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS decisions (
					id TEXT PRIMARY KEY,
					timestamp DATETIME NOT NULL,
					context TEXT NOT NULL,
					reasoning TEXT NOT NULL,
					alternatives TEXT NOT NULL,
					chosen_option TEXT NOT NULL,
					outcome TEXT,
					lessons_learned TEXT,
					affected_components TEXT
				)`,
				`CREATE VIRTUAL TABLE IF NOT EXISTS decisions_fts USING fts5(
					id UNINDEXED, content,
					tokenize = 'unicode61 remove_diacritics 2'
				)`,
				`CREATE TABLE IF NOT EXISTS patterns (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					category TEXT NOT NULL,
					problem TEXT NOT NULL,
					solution TEXT NOT NULL,
					example_code TEXT,
					applicability TEXT NOT NULL,
					success_count INTEGER NOT NULL DEFAULT 0,
					failure_count INTEGER NOT NULL DEFAULT 0
				)`,
				`CREATE TABLE IF NOT EXISTS metrics (
					id TEXT PRIMARY KEY,
					timestamp DATETIME NOT NULL,
					metric_type TEXT NOT NULL,
					metric_name TEXT NOT NULL,
					value REAL NOT NULL,
					context TEXT
				)`,
				`CREATE INDEX IF NOT EXISTS idx_metrics_type_name_ts ON metrics(metric_type, metric_name, timestamp)`,
				`CREATE TABLE IF NOT EXISTS log_files (
					path TEXT PRIMARY KEY,
					size INTEGER NOT NULL,
					mtime INTEGER NOT NULL,
					last_indexed_at INTEGER
				)`,
			}
			for i, stmt := range stmts {
				if _, err := tx.Exec(stmt); err != nil {
					return fmt.Errorf("statement %d: %w", i, err)
				}
			}
			return nil
		},
	},
}

// applyMigrations runs every registered migration not yet recorded in the
// migrations table, in registry order, inside a single transaction. It
// refuses to proceed if the database's recorded history diverges from a
// prefix of the registry (SchemaAhead).
func (s *Store) applyMigrations(ctx context.Context) error {
	return s.WithinTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
			return fmt.Errorf("bootstrap migrations table: %w", err)
		}

		rows, err := tx.Query(`SELECT name FROM migrations ORDER BY id ASC`)
		if err != nil {
			return fmt.Errorf("read migration history: %w", err)
		}
		var applied []string
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				rows.Close()
				return err
			}
			applied = append(applied, name)
		}
		rows.Close()

		if len(applied) > len(registry) {
			return errs.New(errs.CodeSchemaAhead, fmt.Sprintf(
				"database has %d applied migrations but registry only knows %d", len(applied), len(registry)))
		}
		for i, name := range applied {
			if registry[i].Name != name {
				return errs.New(errs.CodeSchemaAhead, fmt.Sprintf(
					"migration history diverges at position %d: db has %q, registry expects %q", i, name, registry[i].Name))
			}
		}

		for i := len(applied); i < len(registry); i++ {
			m := registry[i]
			if err := m.Up(tx); err != nil {
				return errs.Wrap(errs.CodeMigrationFailed, fmt.Sprintf("migration %q failed", m.Name), err)
			}
			if _, err := tx.Exec(`INSERT INTO migrations(name) VALUES (?)`, m.Name); err != nil {
				return errs.Wrap(errs.CodeMigrationFailed, fmt.Sprintf("record migration %q", m.Name), err)
			}
		}
		return nil
	})
}

// PendingMigrations reports migration names not yet applied, without running them.
func (s *Store) PendingMigrations(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM migrations ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("read migration history: %w", err)
	}
	defer rows.Close()

	applied := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = true
	}

	var pending []string
	for _, m := range registry {
		if !applied[m.Name] {
			pending = append(pending, m.Name)
		}
	}
	return pending, nil
}

// AppliedMigrations returns the full applied-migration history.
func (s *Store) AppliedMigrations(ctx context.Context) ([]MigrationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, applied_at FROM migrations ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	defer rows.Close()

	var out []MigrationRecord
	for rows.Next() {
		var m MigrationRecord
		if err := rows.Scan(&m.ID, &m.Name, &m.AppliedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
