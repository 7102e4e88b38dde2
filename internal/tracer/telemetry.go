package tracer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"inventory-crud/internal/config"
	"inventory-crud/internal/logger"
	"inventory-crud/internal/version"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"github.com/grafana/pyroscope-go"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

var (
	once         sync.Once
	shutdownFunc func()
	initErr      error
)

var pyroLogrus = func() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.JSONFormatter{})
	return l
}()

// newExporter picks OTLP over gRPC when a collector is configured and
// falls back to writing spans to w.
func newExporter(ctx context.Context, cfg *config.Config, w io.Writer) (trace.SpanExporter, error) {
	if cfg.RemoteTraceRpcURI == "" {
		return stdouttrace.New(stdouttrace.WithWriter(w))
	}
	return otlptracegrpc.New(ctx,
		otlptracegrpc.WithInsecure(),
		otlptracegrpc.WithEndpoint(cfg.RemoteTraceRpcURI),
		otlptracegrpc.WithCompressor("gzip"),
	)
}

func newProvider(ctx context.Context, cfg *config.Config, exp trace.SpanExporter) (*trace.TracerProvider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.AppName),
			semconv.ServiceVersionKey.String(version.Version),
			attribute.String("env", os.Getenv("APP_ENV")),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("tracer resource: %w", err)
	}

	return trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
	), nil
}

// Instance installs the global tracer provider and propagators once per
// process and starts the profiler when a Pyroscope address is set.
func Instance(ctx context.Context, cfg *config.Config) (func(), error) {
	once.Do(func() {
		shutdownFunc, initErr = setup(ctx, cfg, os.Stdout)
	})

	return shutdownFunc, initErr
}

func setup(ctx context.Context, cfg *config.Config, w io.Writer) (func(), error) {
	exp, err := newExporter(ctx, cfg, w)
	if err != nil {
		logger.Error(ctx, "Failed to create trace exporter", slog.String("error", err.Error()))
		return func() {}, err
	}

	tp, err := newProvider(ctx, cfg, exp)
	if err != nil {
		logger.Error(ctx, "Failed to create tracer provider", slog.String("error", err.Error()))
		return func() {}, err
	}

	otel.SetTracerProvider(otelpyroscope.NewTracerProvider(tp))
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	logger.Info(ctx, "OpenTelemetry tracer initialized", slog.Bool("remote", cfg.RemoteTraceRpcURI != ""))

	var profiler *pyroscope.Profiler
	if cfg.RemoteProfilingHttpURI != "" {
		profiler, err = pyroscope.Start(pyroscope.Config{
			ApplicationName: cfg.AppName,
			ServerAddress:   cfg.RemoteProfilingHttpURI,
			Logger:          pyroLogrus,
			Tags:            map[string]string{"version": version.Version},
		})
		if err != nil {
			logger.Error(ctx, "Pyroscope failed to start", slog.String("error", err.Error()))
		} else {
			logger.Info(ctx, "Pyroscope started successfully")
		}
	}

	return func() {
		if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Error(ctx, "Error shutting down tracer provider", slog.String("error", err.Error()))
		}
		if profiler != nil {
			if err := profiler.Stop(); err != nil {
				logger.Error(ctx, "Error stopping profiler", slog.String("error", err.Error()))
			}
		}
	}, nil
}
