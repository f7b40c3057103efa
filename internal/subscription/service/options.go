package service

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	subscriptionmetrics "consulthub/internal/subscription/metrics"
)

type serviceConfig struct {
	logger  *slog.Logger
	metrics *subscriptionmetrics.Metrics
	tracer  trace.Tracer
}

type Option func(*serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) {
		c.logger = logger
	}
}

func WithMetrics(m *subscriptionmetrics.Metrics) Option {
	return func(c *serviceConfig) {
		c.metrics = m
	}
}

// WithTracer injects a tracer; the global provider is used otherwise.
func WithTracer(t trace.Tracer) Option {
	return func(c *serviceConfig) {
		c.tracer = t
	}
}

func newConfig(opts []Option) serviceConfig {
	c := serviceConfig{}
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer("consulthub/subscription")
	}
	return c
}
