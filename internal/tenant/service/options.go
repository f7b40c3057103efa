package service

import (
	"log/slog"

	tenantmetrics "consulthub/internal/tenant/metrics"
)

// serviceConfig holds optional dependencies shared by the tenant services.
type serviceConfig struct {
	logger  *slog.Logger
	metrics *tenantmetrics.Metrics
	issuer  IdentityIssuer
}

type Option func(c *serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) {
		c.logger = logger
	}
}

func WithMetrics(m *tenantmetrics.Metrics) Option {
	return func(c *serviceConfig) {
		c.metrics = m
	}
}

// WithIdentityIssuer provisions identity-provider subjects for new company
// users. Without one, users are created unlinked.
func WithIdentityIssuer(issuer IdentityIssuer) Option {
	return func(c *serviceConfig) {
		c.issuer = issuer
	}
}

func newConfig(opts []Option) serviceConfig {
	cfg := serviceConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
