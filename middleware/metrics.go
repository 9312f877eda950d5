package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"iracing-broadcast/broadcasterr"
	"iracing-broadcast/message"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "irbroadcast").
	Namespace string

	// Buckets are the histogram buckets for send duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

type MetricsOption func(*MetricsConfig)

func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Metrics counts sends by message type and outcome.
//
// Metrics collected:
//   - irbroadcast_messages_total{type,status}
//   - irbroadcast_send_errors_total{type,kind}
//   - irbroadcast_send_duration_seconds{type}
//
// Registration panics on a duplicate collector, so build it once per
// registry.
func Metrics(opts ...MetricsOption) Middleware {
	config := MetricsConfig{
		Namespace: "irbroadcast",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)
	total := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "messages_total",
		Help:      "Broadcast messages handed to the transport",
	}, []string{"type", "status"})
	errs := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "send_errors_total",
		Help:      "Failed broadcast sends by error kind",
	}, []string{"type", "kind"})
	duration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: config.Namespace,
		Name:      "send_duration_seconds",
		Help:      "Broadcast send duration in seconds",
		Buckets:   config.Buckets,
	}, []string{"type"})

	return func(next SendFunc) SendFunc {
		return func(ctx context.Context, msg message.BroadcastMessage) error {
			typ := msg.Type().String()
			start := time.Now()
			err := next(ctx, msg)
			duration.WithLabelValues(typ).Observe(time.Since(start).Seconds())

			if err != nil {
				total.WithLabelValues(typ, "error").Inc()
				errs.WithLabelValues(typ, errorKind(err)).Inc()
				return err
			}
			total.WithLabelValues(typ, "ok").Inc()
			return nil
		}
	}
}

func errorKind(err error) string {
	if k := broadcasterr.KindOf(err); k != 0 {
		return k.String()
	}
	switch {
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "other"
}
