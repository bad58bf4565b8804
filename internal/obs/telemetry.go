package obs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// TelemetryConfig controls OpenTelemetry initialisation.
type TelemetryConfig struct {
	ServiceName string
	Environment string

	// TraceExporter is "otlp" or "none". Empty means "none".
	TraceExporter string
	TraceEndpoint string
	SampleRatio   float64

	// MetricsRegisterer receives OpenTelemetry instruments through the
	// Prometheus bridge so they appear on /metrics. Nil disables the meter
	// provider and leaves the global no-op meter in place.
	MetricsRegisterer prometheus.Registerer
}

// Shutdown flushes and stops telemetry providers.
type Shutdown func(context.Context) error

// InitTelemetry installs the global propagator, tracer provider and meter
// provider. The returned Shutdown is always non-nil.
func InitTelemetry(ctx context.Context, cfg TelemetryConfig) (Shutdown, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return noopShutdown, fmt.Errorf("build telemetry resource: %w", err)
	}

	var shutdowns []Shutdown
	tp, err := newTracerProvider(ctx, cfg, res)
	if err != nil {
		return noopShutdown, err
	}
	if tp != nil {
		otel.SetTracerProvider(tp)
		shutdowns = append(shutdowns, tp.Shutdown)
	}

	if cfg.MetricsRegisterer != nil {
		exporter, err := otelprom.New(otelprom.WithRegisterer(cfg.MetricsRegisterer), otelprom.WithoutScopeInfo())
		if err != nil {
			return joinShutdown(shutdowns), fmt.Errorf("create prometheus metric bridge: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter), sdkmetric.WithResource(res))
		otel.SetMeterProvider(mp)
		shutdowns = append(shutdowns, mp.Shutdown)
	}
	return joinShutdown(shutdowns), nil
}

func newTracerProvider(ctx context.Context, cfg TelemetryConfig, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.TraceExporter)) {
	case "", "none", "off", "disabled":
		return nil, nil
	case "otlp":
	default:
		return nil, fmt.Errorf("unsupported tracing exporter: %s", cfg.TraceExporter)
	}
	var opts []otlptracehttp.Option
	if endpoint := strings.TrimSpace(cfg.TraceEndpoint); endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpointURL(endpoint))
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create span exporter: %w", err)
	}
	ratio := cfg.SampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}

func noopShutdown(context.Context) error { return nil }

func joinShutdown(fns []Shutdown) Shutdown {
	if len(fns) == 0 {
		return noopShutdown
	}
	return func(ctx context.Context) error {
		var errs []error
		for i := len(fns) - 1; i >= 0; i-- {
			if err := fns[i](ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}
