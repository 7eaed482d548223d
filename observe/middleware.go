package observe

import (
	"context"
	"time"
)

// StageFunc is a unit of work wrapped by Middleware.
type StageFunc func(ctx context.Context) error

// Middleware wraps work with tracing, metrics, and logging.
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe StageFunc.
//   - Context: the span started for op is visible to fn through ctx.
//   - Errors: errors from the wrapped function are recorded and propagated unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NewTracer(nil)
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  OrNop(logger),
	}
}

// Wrap wraps fn with a span named after op, stage metrics and a debug log
// line (error level on failure).
func (m *Middleware) Wrap(op Operation, fn StageFunc) StageFunc {
	return func(ctx context.Context) error {
		ctx, span := m.tracer.StartSpan(ctx, op)
		start := time.Now()

		err := fn(ctx)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordStage(ctx, op, duration, err)

		logger := m.logger.WithOperation(op)
		durationField := F("duration_ms", float64(duration.Microseconds())/1000)
		if err != nil {
			logger.Error(ctx, "stage failed", durationField, Err(err))
		} else {
			logger.Debug(ctx, "stage completed", durationField)
		}
		return err
	}
}

// Metrics returns the metrics sink used by the middleware.
func (m *Middleware) Metrics() Metrics { return m.metrics }

// Tracer returns the tracer used by the middleware.
func (m *Middleware) Tracer() Tracer { return m.tracer }

// Logger returns the logger used by the middleware.
func (m *Middleware) Logger() Logger { return m.logger }

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
