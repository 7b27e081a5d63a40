package tracing

import (
	"context"
	"fmt"

	"qrpay/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const InstrumentationName = "qrpay"

type Provider struct {
	tracer   trace.Tracer
	shutdown func(context.Context) error
}

// NewProvider installs a global OTLP/HTTP tracer provider. With tracing disabled it
// returns a no-op tracer and installs nothing.
func NewProvider(ctx context.Context, cfg *config.Config) (*Provider, error) {
	const op = "tracing.NewProvider"

	if !cfg.Tracing.Enabled {
		return &Provider{
			tracer:   noop.NewTracerProvider().Tracer(InstrumentationName),
			shutdown: func(context.Context) error { return nil },
		}, nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Tracing.Endpoint)}
	if cfg.Tracing.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: exporter: %w", op, err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.App.Name),
		attribute.String("service.version", cfg.App.Version),
		attribute.String("deployment.environment", cfg.Env),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Tracing.SampleRatio))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Provider{
		tracer:   tp.Tracer(InstrumentationName),
		shutdown: tp.Shutdown,
	}, nil
}

// NewNop returns a provider whose spans are never recorded.
func NewNop() *Provider {
	return &Provider{
		tracer:   noop.NewTracerProvider().Tracer(InstrumentationName),
		shutdown: func(context.Context) error { return nil },
	}
}

func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

func (p *Provider) Shutdown(ctx context.Context) error {
	if err := p.shutdown(ctx); err != nil {
		return fmt.Errorf("tracing.Shutdown: %w", err)
	}
	return nil
}
