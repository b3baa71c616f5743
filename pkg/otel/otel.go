// Package otel installs the process-wide tracer provider.
package otel

import (
	"context"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config controls tracing setup.
type Config struct {
	ServiceName    string
	ServiceVersion string
	// OTLPEndpoint, a host:port, exports spans over OTLP/HTTP. It takes
	// precedence over UseStdout.
	OTLPEndpoint string
	OTLPInsecure bool
	// UseStdout exports spans as JSON to Writer, or stdout when Writer is nil.
	UseStdout bool
	Writer    io.Writer
}

// Init sets the global tracer provider and returns its shutdown func.
// Without an exporter spans are still created so trace ids propagate.
func Init(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "wellagent"
	}
	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = os.Getenv("WELLAGENT_VERSION")
	}

	res, err := sdkresource.New(ctx,
		sdkresource.WithFromEnv(),
		sdkresource.WithProcess(),
		sdkresource.WithHost(),
		sdkresource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("service.domain", "wellness"),
		),
	)
	if err != nil {
		return nil, err
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	exp, err := exporter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if exp != nil {
		opts = append(opts, sdktrace.WithBatcher(exp,
			sdktrace.WithMaxExportBatchSize(256),
			sdktrace.WithBatchTimeout(200*time.Millisecond),
		))
	}
	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

func exporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch {
	case cfg.OTLPEndpoint != "":
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	case cfg.UseStdout:
		if cfg.Writer != nil {
			return stdouttrace.New(stdouttrace.WithWriter(cfg.Writer))
		}
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	return nil, nil
}
