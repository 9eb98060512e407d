package logging

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type fieldsKey struct{}

// ContextWith returns a copy of ctx whose *Context log calls include the given
// key/value pairs. Pairs already attached to ctx are kept.
func ContextWith(ctx context.Context, args ...any) context.Context {
	if len(args) == 0 {
		return ctx
	}
	prev, _ := ctx.Value(fieldsKey{}).([]zap.Field)
	merged := make([]zap.Field, 0, len(prev)+len(args)/2+1)
	merged = append(merged, prev...)
	merged = append(merged, fields(args)...)
	return context.WithValue(ctx, fieldsKey{}, merged)
}

func contextFields(ctx context.Context) []zap.Field {
	attached, _ := ctx.Value(fieldsKey{}).([]zap.Field)
	span := trace.SpanContextFromContext(ctx)
	if !span.IsValid() {
		return attached
	}
	out := make([]zap.Field, 0, len(attached)+2)
	out = append(out, attached...)
	return append(out,
		zap.String("trace_id", span.TraceID().String()),
		zap.String("span_id", span.SpanID().String()),
	)
}

// fields turns alternating key/value args into zap fields. A non-string key
// becomes "arg" and a trailing key without a value is logged as null.
func fields(args []any) []zap.Field {
	if len(args) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, (len(args)+1)/2)
	for len(args) > 0 {
		key, ok := args[0].(string)
		if !ok || key == "" {
			key = "arg"
		}
		if len(args) == 1 {
			out = append(out, zap.Any(key, nil))
			break
		}
		out = append(out, field(key, args[1]))
		args = args[2:]
	}
	return out
}

func field(key string, value any) zap.Field {
	switch v := value.(type) {
	case error:
		return zap.NamedError(key, v)
	case time.Duration:
		return zap.Duration(key, v)
	case time.Time:
		return zap.Time(key, v)
	case []string:
		return zap.Strings(key, v)
	default:
		return zap.Any(key, v)
	}
}
