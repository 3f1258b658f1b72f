package services

import (
	"log/slog"

	"github.com/dukex/flowdraft/pkg/eventbus"
	"github.com/dukex/flowdraft/pkg/otelhelper"
	"github.com/dukex/flowdraft/pkg/roles"
	"go.opentelemetry.io/otel/trace"
)

type options struct {
	logger    *slog.Logger
	tracer    trace.Tracer
	publisher eventbus.EventPublisher
	roles     roles.Provider
}

// Option configures a service.
type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) { o.tracer = tracer }
}

// WithPublisher enables domain events. Without it nothing is published.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(o *options) { o.publisher = publisher }
}

// WithRoles sets the roster graph validation checks step roles against.
func WithRoles(provider roles.Provider) Option {
	return func(o *options) { o.roles = provider }
}

func newOptions(module string, opts []Option) options {
	o := options{
		logger: slog.Default(),
		tracer: otelhelper.NoopTracer(),
	}

	for _, opt := range opts {
		opt(&o)
	}

	o.logger = o.logger.With("module", module)

	return o
}
