package store

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// InsertMetric writes one metric observation inside tx.
func InsertMetric(ctx context.Context, tx *Tx, m Metric) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO metrics(id, timestamp, metric_type, metric_name, value, context) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Timestamp, m.MetricType, m.MetricName, m.Value, nullableBytes(m.Context))
	if err != nil {
		return fmt.Errorf("insert metric: %w", err)
	}
	return nil
}

// MetricQueryFilter narrows QueryMetrics.
type MetricQueryFilter struct {
	MetricType string
	MetricName string
	StartTime  *time.Time
	EndTime    *time.Time
	Limit      int
}

// QueryMetrics returns raw values matching the filter, ascending by timestamp.
// Callers that need aggregates should pass the result to Aggregate.
func (s *Store) QueryMetrics(ctx context.Context, filter MetricQueryFilter) ([]Metric, error) {
	query := `SELECT id, timestamp, metric_type, metric_name, value, context FROM metrics WHERE 1=1`
	var args []interface{}
	if filter.MetricType != "" {
		query += ` AND metric_type = ?`
		args = append(args, filter.MetricType)
	}
	if filter.MetricName != "" {
		query += ` AND metric_name = ?`
		args = append(args, filter.MetricName)
	}
	if filter.StartTime != nil {
		query += ` AND timestamp >= ?`
		args = append(args, *filter.StartTime)
	}
	if filter.EndTime != nil {
		query += ` AND timestamp <= ?`
		args = append(args, *filter.EndTime)
	}
	query += ` ORDER BY timestamp ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	var out []Metric
	for rows.Next() {
		var m Metric
		var ctxJSON []byte
		if err := rows.Scan(&m.ID, &m.Timestamp, &m.MetricType, &m.MetricName, &m.Value, &ctxJSON); err != nil {
			return nil, err
		}
		m.Context = ctxJSON
		out = append(out, m)
	}
	return out, rows.Err()
}

// Aggregation holds the summary statistics over a set of metric values.
type Aggregation struct {
	Count int
	Sum   float64
	Min   float64
	Max   float64
	Avg   float64
	P50   float64
	P95   float64
	P99   float64
}

// Aggregate computes count/sum/min/max/avg/p50/p95/p99 over metrics' values
// using linear interpolation between closest ranks for the percentiles.
func Aggregate(metrics []Metric) Aggregation {
	if len(metrics) == 0 {
		return Aggregation{}
	}
	values := make([]float64, len(metrics))
	for i, m := range metrics {
		values[i] = m.Value
	}
	sort.Float64s(values)

	agg := Aggregation{Count: len(values), Min: values[0], Max: values[len(values)-1]}
	for _, v := range values {
		agg.Sum += v
	}
	agg.Avg = agg.Sum / float64(agg.Count)
	agg.P50 = percentile(values, 0.50)
	agg.P95 = percentile(values, 0.95)
	agg.P99 = percentile(values, 0.99)
	return agg
}

// percentile assumes values is sorted ascending and interpolates linearly
// between the two closest ranks, matching the conventional "R-7" method.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	rank := p * float64(n-1)
	lo := int(rank)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
