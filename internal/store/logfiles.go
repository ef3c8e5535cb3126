package store

import (
	"context"
	"database/sql"
	"fmt"
)

// LogFileState tracks the last-seen size/mtime/index-time of a conversation
// log file on disk, so the Conversation Log module can tell which files
// changed since the last reconciliation pass without re-reading everything.
type LogFileState struct {
	Path        string
	Size        int64
	ModTime     int64 // unix nanoseconds
	LastIndexed int64 // unix nanoseconds
}

// UpsertLogFileState records the latest observed state for path inside tx.
func UpsertLogFileState(ctx context.Context, tx *Tx, st LogFileState) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO log_files(path, size, mtime, last_indexed_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET size = excluded.size, mtime = excluded.mtime, last_indexed_at = excluded.last_indexed_at`,
		st.Path, st.Size, st.ModTime, st.LastIndexed)
	if err != nil {
		return fmt.Errorf("upsert log file state: %w", err)
	}
	return nil
}

// GetLogFileState returns the recorded state for path, or (LogFileState{}, false)
// if path has never been indexed.
func (s *Store) GetLogFileState(ctx context.Context, path string) (LogFileState, bool, error) {
	var st LogFileState
	err := s.db.QueryRowContext(ctx,
		`SELECT path, size, mtime, last_indexed_at FROM log_files WHERE path = ?`, path,
	).Scan(&st.Path, &st.Size, &st.ModTime, &st.LastIndexed)
	if err == sql.ErrNoRows {
		return LogFileState{}, false, nil
	}
	if err != nil {
		return LogFileState{}, false, fmt.Errorf("get log file state: %w", err)
	}
	return st, true, nil
}

// AllLogFileStates returns every tracked log file's state, used to detect
// files that were deleted on disk since the last reconciliation.
func (s *Store) AllLogFileStates(ctx context.Context) ([]LogFileState, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, size, mtime, last_indexed_at FROM log_files`)
	if err != nil {
		return nil, fmt.Errorf("list log file states: %w", err)
	}
	defer rows.Close()

	var out []LogFileState
	for rows.Next() {
		var st LogFileState
		if err := rows.Scan(&st.Path, &st.Size, &st.ModTime, &st.LastIndexed); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// DeleteLogFileState drops a path's sidecar row inside tx, once its backing
// file is gone from disk.
func DeleteLogFileState(ctx context.Context, tx *Tx, path string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM log_files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("delete log file state: %w", err)
	}
	return nil
}
