package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patheras/prometheus-core/internal/errs"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prometheus.db")
	s, err := Open(path, Options{EmbeddingDim: 8})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenPinsEmbeddingDimOnFirstOpen(t *testing.T) {
	s := openTestStore(t)
	assert.Equal(t, 8, s.EmbeddingDim())
}

func TestOpenReopenKeepsPinnedDim(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prometheus.db")
	s1, err := Open(path, Options{EmbeddingDim: 16})
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path, Options{EmbeddingDim: 999})
	require.NoError(t, err)
	defer s2.Close()
	assert.Equal(t, 16, s2.EmbeddingDim(), "dimension pinned on first open must not change on reopen")
}

func TestOpenRejectsNonPositiveDimOnFirstOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prometheus.db")
	_, err := Open(path, Options{EmbeddingDim: 0})
	require.Error(t, err)
	assert.Equal(t, errs.CodeValidation, errs.CodeOf(err))
}

func TestAppliedMigrationsRecordsRegistry(t *testing.T) {
	s := openTestStore(t)
	applied, err := s.AppliedMigrations(context.Background())
	require.NoError(t, err)
	require.Len(t, applied, len(registry))
	assert.Equal(t, "0001_init", applied[0].Name)

	pending, err := s.PendingMigrations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sentinel := errs.Validation("boom")
	err := s.WithinTx(ctx, func(tx *Tx) error {
		require.NoError(t, InsertConversation(ctx, tx, Conversation{ID: "c1", Title: "t"}))
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, getErr := s.GetConversation(ctx, "c1")
	assert.Equal(t, errs.CodeNotFound, errs.CodeOf(getErr), "rolled-back insert must not be visible")
}

func TestWithinTxCommitsOnSuccess(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.WithinTx(ctx, func(tx *Tx) error {
		return InsertConversation(ctx, tx, Conversation{ID: "c1", Title: "t"})
	})
	require.NoError(t, err)

	c, err := s.GetConversation(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "t", c.Title)
}
