package httpapi

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/osu-tournament-rating/internal/platform/tracing"
)

var handlerTracer = tracing.Tracer("httpapi")

// startSpan opens a handler span under the request span created by RequestTracing.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracing.Child(ctx, handlerTracer, name)
}
