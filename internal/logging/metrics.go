package logging

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// LaneSnapshot is the minimal per-lane state the Lane Queue metrics exporter
// needs. It is declared here, independent of internal/laneq's own status
// type, so this package never imports laneq (laneq imports logging).
type LaneSnapshot struct {
	Name       string
	QueueDepth int
	AvgWaitMs  float64
}

// LaneGauges publishes status(lane)'s queue_depth and avg_wait_ms as
// OpenTelemetry observable gauges, grounded on the instrument pattern in
// steveyegge-beads' internal/compact/haiku.go. Unlike NewDispatchMetrics it
// uses no sync.Once: every RegisterLaneGauges call creates the instruments
// and registers its own callback.
type LaneGauges struct {
	reg metric.Registration
}

var laneMeter = otel.Meter("github.com/patheras/prometheus-core/laneq")

// RegisterLaneGauges wires snapshot as the callback OTel's periodic reader
// invokes to sample every lane's current depth and wait time. Call
// Unregister when the queue is torn down.
func RegisterLaneGauges(snapshot func() []LaneSnapshot) (*LaneGauges, error) {
	queueDepth, err := laneMeter.Int64ObservableGauge("prometheus_core.laneq.queue_depth",
		metric.WithDescription("Pending entries in a lane's FIFO"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}
	avgWaitMs, err := laneMeter.Float64ObservableGauge("prometheus_core.laneq.avg_wait_ms",
		metric.WithDescription("Average time entries spend waiting before execution"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	reg, err := laneMeter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		for _, s := range snapshot() {
			attrs := metric.WithAttributes(attribute.String("lane", s.Name))
			o.ObserveInt64(queueDepth, int64(s.QueueDepth), attrs)
			o.ObserveFloat64(avgWaitMs, s.AvgWaitMs, attrs)
		}
		return nil
	}, queueDepth, avgWaitMs)
	if err != nil {
		return nil, err
	}
	return &LaneGauges{reg: reg}, nil
}

// Unregister stops publishing the lane gauges.
func (g *LaneGauges) Unregister() error {
	if g == nil || g.reg == nil {
		return nil
	}
	return g.reg.Unregister()
}

// DispatchMetrics counts Runtime Dispatcher execution attempts by model,
// provider, and outcome — the "self_improvement"-tagged metric surface
// spec.md's Memory Engine otherwise records as metrics rows.
type DispatchMetrics struct {
	attempts metric.Int64Counter
}

var (
	dispatchOnce sync.Once
	dispatch     *DispatchMetrics
	dispatchErr  error
)

// NewDispatchMetrics returns the process-wide DispatchMetrics instance,
// creating its instruments on first call.
func NewDispatchMetrics() (*DispatchMetrics, error) {
	dispatchOnce.Do(func() {
		m := otel.Meter("github.com/patheras/prometheus-core/runtime")
		counter, err := m.Int64Counter("prometheus_core.runtime.attempts",
			metric.WithDescription("Runtime Dispatcher execution attempts"),
			metric.WithUnit("{attempt}"),
		)
		if err != nil {
			dispatchErr = err
			return
		}
		dispatch = &DispatchMetrics{attempts: counter}
	})
	return dispatch, dispatchErr
}

// RecordAttempt records one dispatch attempt's outcome.
func (d *DispatchMetrics) RecordAttempt(ctx context.Context, model, provider, outcome string) {
	if d == nil || d.attempts == nil {
		return
	}
	d.attempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	))
}
