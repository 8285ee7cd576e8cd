package tfsm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// startTransitionSpan creates a span covering one transition: the delay flush,
// the state entry and the new state's first action. The caller ends it.
//
//nolint:spancheck // Span lifecycle managed by caller
func startTransitionSpan(
	ctx context.Context,
	machine string,
	from string,
	to string,
	alternate bool,
) (context.Context, trace.Span) {
	tracer := otel.Tracer("tfsm")
	ctx, span := tracer.Start(ctx, "tfsm.transition")
	span.SetAttributes(
		attribute.String("machine", machine),
		attribute.String("from_state", from),
		attribute.String("to_state", to),
		attribute.Bool("alternate", alternate),
	)

	return ctx, span
}

// traceFields returns trace and span IDs for log records, if ctx carries a
// recording span.
func traceFields(ctx context.Context) []any {
	spanCtx := trace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return nil
	}

	return []any{
		"trace_id", spanCtx.TraceID().String(),
		"span_id", spanCtx.SpanID().String(),
	}
}
