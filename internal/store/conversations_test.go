package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patheras/prometheus-core/internal/errs"
)

func TestConversationLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.WithinTx(ctx, func(tx *Tx) error {
		return InsertConversation(ctx, tx, Conversation{ID: "c1", Title: "first", CreatedAt: now, UpdatedAt: now})
	}))

	got, err := s.GetConversation(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)

	later := now.Add(time.Minute)
	require.NoError(t, s.WithinTx(ctx, func(tx *Tx) error {
		return TouchConversation(ctx, tx, "c1", later)
	}))
	got, err = s.GetConversation(ctx, "c1")
	require.NoError(t, err)
	assert.WithinDuration(t, later, got.UpdatedAt, time.Second)

	require.NoError(t, s.WithinTx(ctx, func(tx *Tx) error {
		return DeleteConversation(ctx, tx, "c1")
	}))
	_, err = s.GetConversation(ctx, "c1")
	assert.Equal(t, errs.CodeNotFound, errs.CodeOf(err))
}

func TestTouchConversationNotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	err := s.WithinTx(ctx, func(tx *Tx) error {
		return TouchConversation(ctx, tx, "missing", time.Now())
	})
	assert.Equal(t, errs.CodeNotFound, errs.CodeOf(err))
}

func TestListConversationsOrderedByUpdatedAtDesc(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.WithinTx(ctx, func(tx *Tx) error {
		if err := InsertConversation(ctx, tx, Conversation{ID: "old", Title: "old", CreatedAt: base, UpdatedAt: base}); err != nil {
			return err
		}
		return InsertConversation(ctx, tx, Conversation{ID: "new", Title: "new", CreatedAt: base, UpdatedAt: base.Add(time.Hour)})
	}))
	require.NoError(t, s.WithinTx(ctx, func(tx *Tx) error {
		return InsertMessage(ctx, tx, Message{ID: "m1", ConversationID: "old", Role: RoleUser, Content: "hi", Timestamp: base})
	}))

	list, err := s.ListConversations(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "old", list[1].ID)
	assert.Equal(t, 1, list[1].MessageCount)
	assert.Equal(t, 0, list[0].MessageCount)
}
