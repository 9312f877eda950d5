package middleware

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"iracing-broadcast/broadcasterr"
	"iracing-broadcast/message"
)

const defaultTracerName = "iracing-broadcast"

type TracingOption func(*tracingConfig)

type tracingConfig struct {
	provider trace.TracerProvider
	name     string
}

// WithTracerProvider overrides the global provider.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(c *tracingConfig) {
		c.provider = tp
	}
}

func WithTracerName(name string) TracingOption {
	return func(c *tracingConfig) {
		c.name = name
	}
}

// Tracing opens a span per send carrying the encoded words. The tracer
// comes from the global OpenTelemetry provider unless overridden.
func Tracing(opts ...TracingOption) Middleware {
	config := tracingConfig{name: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.provider == nil {
		config.provider = otel.GetTracerProvider()
	}
	tracer := config.provider.Tracer(config.name)

	return func(next SendFunc) SendFunc {
		return func(ctx context.Context, msg message.BroadcastMessage) error {
			w := message.Encode(msg)
			ctx, span := tracer.Start(ctx, "broadcast "+msg.Type().String(),
				trace.WithSpanKind(trace.SpanKindProducer),
				trace.WithAttributes(
					attribute.String("irbroadcast.type", msg.Type().String()),
					attribute.String("irbroadcast.word_a", fmt.Sprintf("0x%08X", w.A)),
					attribute.String("irbroadcast.word_b", fmt.Sprintf("0x%08X", w.B)),
				))
			defer span.End()

			err := next(ctx, msg)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				if k := broadcasterr.KindOf(err); k != 0 {
					span.SetAttributes(attribute.String("irbroadcast.error_kind", k.String()))
				}
				return err
			}
			span.SetStatus(codes.Ok, "")
			return nil
		}
	}
}
