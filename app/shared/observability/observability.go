// Package observability builds the logger, tracer and metrics registry used across modules.
package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	competitionmetrics "github.com/d2avids/rso-sub000/app/shared/observability/metrics/competition"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config controls logger, tracing and metrics setup.
type Config struct {
	ServiceName  string
	Version      string
	Environment  string
	LogLevel     string
	OTLPEndpoint string
	OTLPInsecure bool
	SampleRate   float64
}

// Provider owns the process-wide logger and tracer provider.
type Provider struct {
	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
	shutdown       func(context.Context) error
}

// Registry holds the instruments handed to modules.
type Registry struct {
	Tracer             trace.Tracer
	Prometheus         *prometheus.Registry
	CompetitionMetrics competitionmetrics.CompetitionMetrics
}

// Observability bundles Provider and Registry.
type Observability struct {
	Provider Provider
	Registry Registry
}

// Init builds observability from cfg. Tracing is exported over OTLP/gRPC only
// when an endpoint is configured.
func Init(ctx context.Context, cfg Config) (Observability, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "rso-competitions"
	}
	logger := NewLogger(cfg, os.Stdout)

	tp, shutdown, err := newTracerProvider(ctx, cfg)
	if err != nil {
		return Observability{}, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	competition := competitionmetrics.NewPrometheusMetrics()
	if err := competition.Register(reg); err != nil {
		return Observability{}, fmt.Errorf("failed to register competition metrics: %w", err)
	}

	logger.InfoContext(ctx, "Observability initialized",
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", cfg.OTLPEndpoint != ""),
	)

	return Observability{
		Provider: Provider{
			Logger:         logger,
			TracerProvider: tp,
			shutdown:       shutdown,
		},
		Registry: Registry{
			Tracer:             tp.Tracer(cfg.ServiceName),
			Prometheus:         reg,
			CompetitionMetrics: competition,
		},
	}, nil
}

// NewNoop returns observability that discards logs, spans and metrics.
func NewNoop() Observability {
	tp := noop.NewTracerProvider()
	return Observability{
		Provider: Provider{
			Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
			TracerProvider: tp,
		},
		Registry: Registry{
			Tracer:             tp.Tracer("noop"),
			Prometheus:         prometheus.NewRegistry(),
			CompetitionMetrics: competitionmetrics.NewNoop(),
		},
	}
}

// Shutdown flushes pending spans.
func (o Observability) Shutdown(ctx context.Context) error {
	if o.Provider.shutdown == nil {
		return nil
	}
	return o.Provider.shutdown(ctx)
}

// NewLogger returns a JSON logger, or a text logger in development.
func NewLogger(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	var handler slog.Handler
	if cfg.Environment == "development" || cfg.Environment == "test" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler).With(slog.String("service", cfg.ServiceName))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newTracerProvider(ctx context.Context, cfg Config) (trace.TracerProvider, func(context.Context) error, error) {
	if cfg.OTLPEndpoint == "" {
		return noop.NewTracerProvider(), nil, nil
	}
	if cfg.SampleRate < 0 || cfg.SampleRate > 1 {
		return nil, nil, fmt.Errorf("sample rate must be between 0 and 1, got %f", cfg.SampleRate)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.Version),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.OTLPInsecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exportCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	exporter, err := otlptracegrpc.New(exportCtx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	var sampler sdktrace.Sampler
	switch cfg.SampleRate {
	case 0:
		sampler = sdktrace.NeverSample()
	case 1:
		sampler = sdktrace.AlwaysSample()
	default:
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp, tp.Shutdown, nil
}
