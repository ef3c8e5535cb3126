package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePatternAndGet(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	id, err := e.StorePattern(ctx, StorePatternInput{
		Name: "retry-with-backoff", Category: "resilience",
		Problem: "transient failures cascade", Solution: "exponential backoff with jitter",
	})
	require.NoError(t, err)

	p, err := e.GetPattern(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "retry-with-backoff", p.Name)
	assert.Equal(t, 0, p.SuccessCount)
}

func TestStorePatternRejectsMissingFields(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.StorePattern(context.Background(), StorePatternInput{Name: "x"})
	assert.Error(t, err)
}

func TestRecordPatternOutcomeIncrementsCounters(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	id, err := e.StorePattern(ctx, StorePatternInput{Name: "n", Problem: "p", Solution: "s"})
	require.NoError(t, err)

	require.NoError(t, e.RecordPatternOutcome(ctx, id, true))
	require.NoError(t, e.RecordPatternOutcome(ctx, id, true))
	require.NoError(t, e.RecordPatternOutcome(ctx, id, false))

	p, err := e.GetPattern(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, p.SuccessCount)
	assert.Equal(t, 1, p.FailureCount)
}

func TestRecordPatternOutcomeNotFound(t *testing.T) {
	e := newTestEngine(t)
	err := e.RecordPatternOutcome(context.Background(), "missing", true)
	assert.Error(t, err)
}

func TestListPatternsOrdersBySuccessCount(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	weak, err := e.StorePattern(ctx, StorePatternInput{Name: "weak", Category: "cat", Problem: "p", Solution: "s"})
	require.NoError(t, err)
	strong, err := e.StorePattern(ctx, StorePatternInput{Name: "strong", Category: "cat", Problem: "p", Solution: "s"})
	require.NoError(t, err)

	require.NoError(t, e.RecordPatternOutcome(ctx, strong, true))
	require.NoError(t, e.RecordPatternOutcome(ctx, strong, true))
	require.NoError(t, e.RecordPatternOutcome(ctx, weak, true))

	results, err := e.ListPatterns(ctx, "cat", 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "strong", results[0].Name)
}
