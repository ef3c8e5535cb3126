package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/patheras/prometheus-core/internal/errs"
)

// InsertConversation writes a new conversation row inside tx.
func InsertConversation(ctx context.Context, tx *Tx, c Conversation) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO conversations(id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.Title, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

// TouchConversation bumps updated_at for the given conversation inside tx.
func TouchConversation(ctx context.Context, tx *Tx, id string, updatedAt interface{}) error {
	res, err := tx.ExecContext(ctx, `UPDATE conversations SET updated_at = ? WHERE id = ?`, updatedAt, id)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return errs.NotFound("conversation %s", id)
	}
	return nil
}

// GetConversation fetches a single conversation by id.
func (s *Store) GetConversation(ctx context.Context, id string) (Conversation, error) {
	var c Conversation
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at, updated_at FROM conversations WHERE id = ?`, id,
	).Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return Conversation{}, errs.NotFound("conversation %s", id)
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

// ListConversations returns conversation summaries ordered by updated_at descending.
func (s *Store) ListConversations(ctx context.Context, limit int) ([]ConversationSummary, error) {
	query := `
		SELECT c.id, c.title, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id) AS message_count
		FROM conversations c
		ORDER BY c.updated_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []ConversationSummary
	for rows.Next() {
		var cs ConversationSummary
		if err := rows.Scan(&cs.ID, &cs.Title, &cs.CreatedAt, &cs.UpdatedAt, &cs.MessageCount); err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

// DeleteConversation removes the conversation row and its messages inside tx.
// The caller is responsible for removing the on-disk log file in the same
// logical operation (the Memory Engine does so outside the SQL transaction,
// since file deletion cannot participate in it).
func DeleteConversation(ctx context.Context, tx *Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages_fts WHERE conversation_id = ?`, id); err != nil {
		return fmt.Errorf("delete conversation messages fts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, id); err != nil {
		return fmt.Errorf("delete conversation messages: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return errs.NotFound("conversation %s", id)
	}
	return nil
}
