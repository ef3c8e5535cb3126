// Package memory implements the Memory Engine: typed operations over the
// Store (code indexing, decisions, patterns, metrics, hybrid search,
// conversation CRUD) coordinated with the on-disk Conversation Log.
package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/patheras/prometheus-core/internal/convlog"
	"github.com/patheras/prometheus-core/internal/errs"
	"github.com/patheras/prometheus-core/internal/logging"
	"github.com/patheras/prometheus-core/internal/memory/embedding"
	"github.com/patheras/prometheus-core/internal/store"
)

// Engine is the Memory Engine: the Store plus the Conversation Log plus
// the embedding provider used for code indexing and hybrid search.
type Engine struct {
	store       *store.Store
	log         *convlog.Log
	embedder    embedding.Provider
	excludeDirs map[string]bool
	logger      logging.Logger
}

// Options configures New.
type Options struct {
	Store       *store.Store
	Log         *convlog.Log
	Embedder    embedding.Provider
	ExcludeDirs []string
}

// New builds an Engine from already-open dependencies. The caller owns
// opening the Store and Log; Close releases only what the Engine itself holds.
func New(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, errs.Validation("memory engine requires a store")
	}
	if opts.Log == nil {
		return nil, errs.Validation("memory engine requires a conversation log")
	}
	if opts.Embedder == nil {
		return nil, errs.Validation("memory engine requires an embedding provider")
	}
	if opts.Embedder.Dim() != opts.Store.EmbeddingDim() {
		return nil, errs.Validation("embedding provider dim %d does not match store's pinned dim %d", opts.Embedder.Dim(), opts.Store.EmbeddingDim())
	}

	excludes := map[string]bool{".git": true, "node_modules": true}
	for _, d := range opts.ExcludeDirs {
		excludes[d] = true
	}

	return &Engine{
		store: opts.Store, log: opts.Log, embedder: opts.Embedder,
		excludeDirs: excludes, logger: logging.MemoryLogger,
	}, nil
}

// Close releases resources the Engine itself owns. The underlying Store and
// Log are owned by the caller and are not closed here.
func (e *Engine) Close() error { return nil }

// CreateConversation creates a new, empty conversation.
func (e *Engine) CreateConversation(ctx context.Context, title string) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	err := e.store.WithinTx(ctx, func(tx *store.Tx) error {
		return store.InsertConversation(ctx, tx, store.Conversation{ID: id, Title: title, CreatedAt: now, UpdatedAt: now})
	})
	if err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}
	return id, nil
}

// StoreMessage appends record to the conversation's log file, then mirrors
// it into the Store within a transaction, updating conversations.updated_at.
// The log write happens first: on a crash between the two, the next
// indexing pass reconciles the Store to match the log (spec §4.3).
func (e *Engine) StoreMessage(ctx context.Context, conversationID string, role store.Role, content string, metadata []byte) (string, error) {
	if content == "" {
		return "", errs.Validation("message content must not be empty")
	}

	now := time.Now().UTC()
	if err := e.log.AppendMessage(conversationID, convlog.Record{
		Role: role, Content: content, Timestamp: now.UnixMilli(), Metadata: metadata,
	}); err != nil {
		return "", fmt.Errorf("append conversation log: %w", err)
	}

	id := uuid.NewString()
	err := e.store.WithinTx(ctx, func(tx *store.Tx) error {
		if _, getErr := e.store.GetConversation(ctx, conversationID); getErr != nil {
			if errs.Is(getErr, errs.CodeNotFound) {
				if insErr := store.InsertConversation(ctx, tx, store.Conversation{ID: conversationID, CreatedAt: now, UpdatedAt: now}); insErr != nil {
					return insErr
				}
			} else {
				return getErr
			}
		}
		if err := store.InsertMessage(ctx, tx, store.Message{
			ID: id, ConversationID: conversationID, Role: role, Content: content, Timestamp: now, Metadata: metadata,
		}); err != nil {
			return err
		}
		return store.TouchConversation(ctx, tx, conversationID, now)
	})
	if err != nil {
		return "", fmt.Errorf("store message: %w", err)
	}
	return id, nil
}

// GetConversationHistory returns a conversation's messages oldest-first.
func (e *Engine) GetConversationHistory(ctx context.Context, conversationID string, limit int) ([]store.Message, error) {
	return e.store.GetConversationHistory(ctx, conversationID, limit)
}

// GetAllConversations returns conversation summaries ordered by updated_at descending.
func (e *Engine) GetAllConversations(ctx context.Context, limit int) ([]store.ConversationSummary, error) {
	return e.store.ListConversations(ctx, limit)
}

// DeleteConversation removes the conversation's messages, row, and on-disk
// log file. The SQL transaction and the file removal cannot share one
// atomic boundary; the transaction commits first so a crash after it but
// before the file removal leaves an orphaned log file, which a later
// index_files pass treats as a conversation that must be recreated — an
// accepted, documented gap rather than a silent data-loss risk.
func (e *Engine) DeleteConversation(ctx context.Context, conversationID string) error {
	err := e.store.WithinTx(ctx, func(tx *store.Tx) error {
		if err := store.DeleteConversation(ctx, tx, conversationID); err != nil {
			return err
		}
		// Forget the file's sidecar state too, so an orphaned log file reads
		// as unindexed on the next index_files pass.
		return store.DeleteLogFileState(ctx, tx, e.log.PathFor(conversationID))
	})
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	_ = removeIfExists(e.log.PathFor(conversationID))
	return nil
}
