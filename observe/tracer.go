package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Operation identifies a unit of work for telemetry purposes.
type Operation struct {
	Component string // e.g. "tokens", "fragment"
	Name      string // e.g. "multisite", "scan"
	Attrs     []attribute.KeyValue
}

// ID returns component.name, or just name when there is no component.
func (o Operation) ID() string {
	if o.Component != "" {
		return o.Component + "." + o.Name
	}
	return o.Name
}

// SpanName returns the deterministic span name for the operation.
func (o Operation) SpanName() string {
	return o.ID()
}

// Tracer wraps OpenTelemetry tracing with operation-scoped spans.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	StartSpan(ctx context.Context, op Operation) (context.Context, trace.Span)
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer. A nil tracer yields a no-op.
func NewTracer(t trace.Tracer) Tracer {
	if t == nil {
		t = tracenoop.NewTracerProvider().Tracer("noop")
	}
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, op Operation) (context.Context, trace.Span) {
	attrs := make([]attribute.KeyValue, 0, len(op.Attrs)+2)
	attrs = append(attrs, attribute.String("op.name", op.Name))
	if op.Component != "" {
		attrs = append(attrs, attribute.String("op.component", op.Component))
	}
	attrs = append(attrs, op.Attrs...)

	return t.tracer.Start(ctx, op.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
