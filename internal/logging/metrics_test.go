package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterLaneGaugesSucceedsAndUnregisters(t *testing.T) {
	g, err := RegisterLaneGauges(func() []LaneSnapshot {
		return []LaneSnapshot{{Name: "main", QueueDepth: 2, AvgWaitMs: 15.5}}
	})
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.NoError(t, g.Unregister())
}

func TestNewDispatchMetricsIsSingletonAndRecordsWithoutPanicking(t *testing.T) {
	d1, err := NewDispatchMetrics()
	require.NoError(t, err)
	d2, err := NewDispatchMetrics()
	require.NoError(t, err)
	assert.Same(t, d1, d2)

	d1.RecordAttempt(context.Background(), "claude-3-haiku", "anthropic", "success")
}

func TestDispatchMetricsRecordAttemptOnNilReceiverIsNoop(t *testing.T) {
	var d *DispatchMetrics
	assert.NotPanics(t, func() { d.RecordAttempt(context.Background(), "m", "p", "o") })
}
