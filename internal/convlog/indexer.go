package convlog

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/patheras/prometheus-core/internal/store"
)

// IndexFiles reconciles every tracked log file into s: files whose size or
// modification time changed since the last pass (per the log_files
// sidecar table) are fully re-read and their records upserted into
// conversations/messages within a single transaction per file. Unchanged
// files are skipped entirely.
func (l *Log) IndexFiles(ctx context.Context, s *store.Store) (IndexStats, error) {
	paths, err := l.ListFiles()
	if err != nil {
		return IndexStats{}, err
	}

	stats := IndexStats{TotalFiles: len(paths)}
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return stats, fmt.Errorf("stat %s: %w", path, err)
		}

		changed, err := l.fileChangedSinceLastIndex(ctx, s, path, info)
		if err != nil {
			return stats, err
		}
		if !changed {
			stats.SkippedFiles++
			continue
		}

		n, err := l.indexOneFile(ctx, s, path, info)
		if err != nil {
			return stats, fmt.Errorf("index %s: %w", path, err)
		}
		stats.IndexedFiles++
		stats.TotalMessages += n
	}
	return stats, nil
}

func (l *Log) fileChangedSinceLastIndex(ctx context.Context, s *store.Store, path string, info os.FileInfo) (bool, error) {
	known, ok, err := s.GetLogFileState(ctx, path)
	if err != nil {
		return false, fmt.Errorf("read log file state: %w", err)
	}
	if !ok {
		return true, nil
	}
	return known.Size != info.Size() || known.ModTime != info.ModTime().UnixNano(), nil
}

// indexOneFile parses path's full contents and upserts every record,
// creating the conversation row if it does not exist yet, all within one
// transaction alongside the sidecar state update.
func (l *Log) indexOneFile(ctx context.Context, s *store.Store, path string, info os.FileInfo) (int, error) {
	records, err := ReadRecords(path)
	if err != nil {
		return 0, err
	}
	conversationID := ConversationIDFromPath(path)

	err = s.WithinTx(ctx, func(tx *store.Tx) error {
		if _, err := s.GetConversation(ctx, conversationID); err != nil {
			now := time.Now().UTC()
			if insErr := store.InsertConversation(ctx, tx, store.Conversation{
				ID: conversationID, CreatedAt: now, UpdatedAt: now,
			}); insErr != nil {
				return insErr
			}
		}

		existing, err := s.GetConversationHistory(ctx, conversationID, 0)
		if err != nil {
			return fmt.Errorf("read existing history: %w", err)
		}

		// Reconciliation is by position: the log is the authority and
		// append-only, so records beyond what's already in the Store are new.
		for i := len(existing); i < len(records); i++ {
			rec := records[i]
			msg := store.Message{
				ID:             uuid.NewString(),
				ConversationID: conversationID,
				Role:           rec.Role,
				Content:        rec.Content,
				Timestamp:      time.UnixMilli(rec.Timestamp).UTC(),
				Metadata:       []byte(rec.Metadata),
			}
			if err := store.InsertMessage(ctx, tx, msg); err != nil {
				return fmt.Errorf("insert reconciled message: %w", err)
			}
		}
		if len(records) > len(existing) {
			if err := store.TouchConversation(ctx, tx, conversationID, time.Now().UTC()); err != nil {
				return err
			}
		}

		return store.UpsertLogFileState(ctx, tx, store.LogFileState{
			Path: path, Size: info.Size(), ModTime: info.ModTime().UnixNano(),
			LastIndexed: time.Now().UTC().UnixNano(),
		})
	})
	if err != nil {
		return 0, err
	}
	return len(records), nil
}
