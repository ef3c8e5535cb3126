package memory

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreDecisionAndGet(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	id, err := e.StoreDecision(ctx, StoreDecisionInput{
		Context: "choosing a cache eviction policy", Reasoning: "LRU fits the access pattern",
		ChosenOption: "LRU", Alternatives: json.RawMessage(`[{"option":"LFU"},{"option":"LRU"}]`),
	})
	require.NoError(t, err)

	d, err := e.GetDecision(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "LRU", d.ChosenOption)
}

func TestStoreDecisionRejectsEmptyFields(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.StoreDecision(ctx, StoreDecisionInput{Reasoning: "x", ChosenOption: "y"})
	assert.Error(t, err)
}

func TestStoreDecisionRejectsMalformedAlternatives(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.StoreDecision(ctx, StoreDecisionInput{
		Context: "c", Reasoning: "r", ChosenOption: "o", Alternatives: json.RawMessage(`not json`),
	})
	assert.Error(t, err)
}

func TestUpdateDecisionOutcomeNotFound(t *testing.T) {
	e := newTestEngine(t)
	err := e.UpdateDecisionOutcome(context.Background(), "missing", json.RawMessage(`{"success":true}`), "learned")
	assert.Error(t, err)
}

func TestSearchDecisionsFiltersByOutcome(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	id, err := e.StoreDecision(ctx, StoreDecisionInput{
		Context: "retry strategy for flaky network calls", Reasoning: "exponential backoff reduces load", ChosenOption: "backoff",
	})
	require.NoError(t, err)
	require.NoError(t, e.UpdateDecisionOutcome(ctx, id, json.RawMessage(`{"success":true}`), "worked well"))

	results, err := e.SearchDecisions(ctx, SearchDecisionsInput{Query: "backoff", Outcome: "success"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].ID)
}
