package store

import (
	"context"
	"fmt"
)

// InsertMessage writes a message row and its FTS mirror inside tx.
func InsertMessage(ctx context.Context, tx *Tx, m Message) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO messages(id, conversation_id, role, content, timestamp, metadata) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.ConversationID, string(m.Role), m.Content, m.Timestamp, nullableBytes(m.Metadata))
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages_fts(id, conversation_id, content) VALUES (?, ?, ?)`,
		m.ID, m.ConversationID, m.Content)
	if err != nil {
		return fmt.Errorf("mirror message into fts: %w", err)
	}
	return nil
}

// GetConversationHistory returns messages for a conversation in timestamp
// ascending order, optionally capped at limit (0 = unbounded).
func (s *Store) GetConversationHistory(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	query := `SELECT id, conversation_id, role, content, timestamp, metadata
	          FROM messages WHERE conversation_id = ? ORDER BY timestamp ASC`
	args := []interface{}{conversationID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get conversation history: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var role string
		var meta []byte
		if err := rows.Scan(&m.ID, &m.ConversationID, &role, &m.Content, &m.Timestamp, &meta); err != nil {
			return nil, err
		}
		m.Role = Role(role)
		m.Metadata = meta
		out = append(out, m)
	}
	return out, rows.Err()
}

// CountMessages returns how many message rows belong to conversationID —
// used by P2 reconciliation tests to check the log/store message counts agree.
func (s *Store) CountMessages(ctx context.Context, conversationID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE conversation_id = ?`, conversationID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

func nullableBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
