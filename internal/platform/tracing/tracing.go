// Package tracing holds the span helpers shared by the HTTP and usecase layers.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationPrefix = "github.com/riskibarqy/osu-tournament-rating/"

var disabled = trace.SpanFromContext(context.Background())

// Tracer returns the global tracer for a component such as "httpapi".
func Tracer(component string) trace.Tracer {
	return otel.Tracer(instrumentationPrefix + component)
}

// Child opens a span below the one carried by ctx. When ctx has no valid span
// the context is returned as is with a non-recording span, which keeps
// worker ticks and tests from producing orphan root spans.
func Child(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if name == "" || !trace.SpanContextFromContext(ctx).IsValid() {
		return ctx, disabled
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// Fail marks the span active in ctx as failed.
func Fail(ctx context.Context, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
