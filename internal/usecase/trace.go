package usecase

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/osu-tournament-rating/internal/platform/tracing"
)

var usecaseTracer = tracing.Tracer("usecase")

func startUsecaseSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracing.Child(ctx, usecaseTracer, name)
}
