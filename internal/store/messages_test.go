package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedConversation(t *testing.T, s *Store, id string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, s.WithinTx(context.Background(), func(tx *Tx) error {
		return InsertConversation(context.Background(), tx, Conversation{ID: id, Title: id, CreatedAt: now, UpdatedAt: now})
	}))
}

func TestInsertMessageAndHistoryOrdering(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedConversation(t, s, "c1")

	base := time.Now().UTC().Truncate(time.Second)
	msgs := []Message{
		{ID: "m1", ConversationID: "c1", Role: RoleUser, Content: "first", Timestamp: base},
		{ID: "m2", ConversationID: "c1", Role: RoleAssistant, Content: "second", Timestamp: base.Add(time.Second)},
	}
	require.NoError(t, s.WithinTx(ctx, func(tx *Tx) error {
		for _, m := range msgs {
			if err := InsertMessage(ctx, tx, m); err != nil {
				return err
			}
		}
		return nil
	}))

	history, err := s.GetConversationHistory(ctx, "c1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "first", history[0].Content)
	assert.Equal(t, "second", history[1].Content)

	limited, err := s.GetConversationHistory(ctx, "c1", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "first", limited[0].Content)

	n, err := s.CountMessages(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
