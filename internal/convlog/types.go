// Package convlog implements the append-only per-conversation record files
// that back the Store's messages table: one {conversation_id}.log per
// conversation, line-oriented JSON records, plus an indexer that
// reconciles changed files into the Store and a debounced filesystem
// watcher that triggers reconciliation on change.
package convlog

import (
	"encoding/json"

	"github.com/patheras/prometheus-core/internal/store"
)

// Record is one line of a conversation log file. Timestamp is integer
// milliseconds since epoch, matching the on-disk wire format exactly.
// Metadata is carried as raw JSON so it round-trips without re-parsing.
type Record struct {
	Role      store.Role      `json:"role"`
	Content   string          `json:"content"`
	Timestamp int64           `json:"timestamp"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// IndexStats summarizes one index_files pass.
type IndexStats struct {
	TotalFiles    int
	IndexedFiles  int
	SkippedFiles  int
	TotalMessages int
}
