package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records resolution and fragment cache metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordStage records one pipeline stage execution.
	RecordStage(ctx context.Context, op Operation, duration time.Duration, err error)

	// RecordLookup records a fragment cache lookup.
	RecordLookup(ctx context.Context, hit bool)

	// RecordEvictions records entries removed by one invalidation event.
	RecordEvictions(ctx context.Context, n int)

	// RecordScan records one descendant scan of a templates root.
	RecordScan(ctx context.Context, duration time.Duration, templates int, err error)
}

type metricsImpl struct {
	stageTotal    metric.Int64Counter
	stageErrors   metric.Int64Counter
	stageDuration metric.Float64Histogram
	lookups       metric.Int64Counter
	evictions     metric.Int64Counter
	scanDuration  metric.Float64Histogram
	scanErrors    metric.Int64Counter
	scanTemplates metric.Int64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	m := &metricsImpl{}
	var err error

	if m.stageTotal, err = meter.Int64Counter("tokens.stage.total",
		metric.WithDescription("Total number of token pipeline stage executions"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}
	if m.stageErrors, err = meter.Int64Counter("tokens.stage.errors",
		metric.WithDescription("Total number of failed token pipeline stage executions"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}
	if m.stageDuration, err = meter.Float64Histogram("tokens.stage.duration_ms",
		metric.WithDescription("Token pipeline stage duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.lookups, err = meter.Int64Counter("fragment.cache.lookups",
		metric.WithDescription("Fragment cache lookups by result"),
		metric.WithUnit("{lookup}"),
	); err != nil {
		return nil, err
	}
	if m.evictions, err = meter.Int64Counter("fragment.cache.evictions",
		metric.WithDescription("Fragment cache entries evicted by content mutations"),
		metric.WithUnit("{entry}"),
	); err != nil {
		return nil, err
	}
	if m.scanDuration, err = meter.Float64Histogram("fragment.scan.duration_ms",
		metric.WithDescription("Templates root descendant scan duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.scanErrors, err = meter.Int64Counter("fragment.scan.errors",
		metric.WithDescription("Failed templates root scans"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}
	if m.scanTemplates, err = meter.Int64Histogram("fragment.scan.templates",
		metric.WithDescription("Page templates found per scan"),
		metric.WithUnit("{template}"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *metricsImpl) RecordStage(ctx context.Context, op Operation, duration time.Duration, err error) {
	opt := metric.WithAttributes(attribute.String("op", op.ID()))
	m.stageTotal.Add(ctx, 1, opt)
	if err != nil {
		m.stageErrors.Add(ctx, 1, opt)
	}
	m.stageDuration.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

func (m *metricsImpl) RecordLookup(ctx context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *metricsImpl) RecordEvictions(ctx context.Context, n int) {
	if n <= 0 {
		return
	}
	m.evictions.Add(ctx, int64(n))
}

func (m *metricsImpl) RecordScan(ctx context.Context, duration time.Duration, templates int, err error) {
	m.scanDuration.Record(ctx, float64(duration.Microseconds())/1000)
	if err != nil {
		m.scanErrors.Add(ctx, 1)
		return
	}
	m.scanTemplates.Record(ctx, int64(templates))
}

type nopMetrics struct{}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics { return nopMetrics{} }

func (nopMetrics) RecordStage(context.Context, Operation, time.Duration, error) {}
func (nopMetrics) RecordLookup(context.Context, bool)                           {}
func (nopMetrics) RecordEvictions(context.Context, int)                         {}
func (nopMetrics) RecordScan(context.Context, time.Duration, int, error)        {}
