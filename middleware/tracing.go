package middleware

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope name for store tracing.
const tracerName = "github.com/lambdaswift/store"

// Tracing returns middleware that wraps effect execution in an
// OpenTelemetry span. If no TracerProvider is configured globally, the
// default noop tracer is used and this middleware becomes a pass-through
// with zero overhead.
//
// Span attributes include store.action.type. On error, the span status is
// set to codes.Error with the error message.
func Tracing[A any]() Middleware[A] {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer[A](tracer)
}

// TracingWithTracer returns tracing middleware using the provided tracer.
// This variant allows injecting a specific TracerProvider for testing or
// when multiple providers are in use.
func TracingWithTracer[A any](tracer trace.Tracer) Middleware[A] {
	return func(ctx context.Context, action A, next Handler) error {
		ctx, span := tracer.Start(ctx, "store.effect.run",
			trace.WithAttributes(
				attribute.String("store.action.type", fmt.Sprintf("%T", action)),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
