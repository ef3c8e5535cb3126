package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/patheras/prometheus-core/internal/errs"
	"github.com/patheras/prometheus-core/internal/store"
)

// StoreMetricInput is the caller-supplied content for StoreMetric.
type StoreMetricInput struct {
	MetricType string
	MetricName string
	Value      float64
	Context    []byte
}

// StoreMetric appends one measurement; metrics are append-only.
func (e *Engine) StoreMetric(ctx context.Context, in StoreMetricInput) (string, error) {
	if in.MetricType == "" {
		return "", errs.Validation("metric_type must not be empty")
	}
	if in.MetricName == "" {
		return "", errs.Validation("metric_name must not be empty")
	}

	id := uuid.NewString()
	m := store.Metric{
		ID: id, Timestamp: time.Now().UTC(), MetricType: in.MetricType,
		MetricName: in.MetricName, Value: in.Value, Context: in.Context,
	}
	err := e.store.WithinTx(ctx, func(tx *store.Tx) error {
		return store.InsertMetric(ctx, tx, m)
	})
	if err != nil {
		return "", fmt.Errorf("store metric: %w", err)
	}
	return id, nil
}

// MetricsResult pairs raw matching values with their aggregation, which is
// omitted when the query matches nothing.
type MetricsResult struct {
	Items       []store.Metric
	Aggregation *store.Aggregation
}

// QueryMetrics returns the raw values matching filter plus their
// count/sum/min/max/avg/p50/p95/p99 aggregation. Aggregation is nil when no
// values match, since an aggregation over zero points has no meaning.
func (e *Engine) QueryMetrics(ctx context.Context, filter store.MetricQueryFilter) (MetricsResult, error) {
	items, err := e.store.QueryMetrics(ctx, filter)
	if err != nil {
		return MetricsResult{}, fmt.Errorf("query metrics: %w", err)
	}
	if len(items) == 0 {
		return MetricsResult{Items: items}, nil
	}
	agg := store.Aggregate(items)
	return MetricsResult{Items: items, Aggregation: &agg}, nil
}
