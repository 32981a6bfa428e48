package main

import (
	"context"
	"crypto/tls"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/encoding/gzip"
)

var ResourceLibrary = "trafficgen"
var ResourceVersion = "dev"

// setupTelemetry installs an OTLP trace exporter for the generator's own
// client spans. It returns a nil tracer when no endpoint is configured;
// the run behaves identically without it.
func setupTelemetry(log Logger, opts *Options) (trace.Tracer, func()) {
	if opts.Telemetry.Endpoint == "" {
		return nil, func() {}
	}

	var client otlptrace.Client
	switch opts.Telemetry.Protocol {
	case "grpc":
		client = setupOTLPGRPCClient(opts)
	case "http":
		client = setupOTLPHTTPClient(opts)
	default:
		log.Fatal("unknown telemetry protocol: %s\n", opts.Telemetry.Protocol)
	}

	exporter, err := otlptrace.New(context.Background(), client)
	if err != nil {
		log.Fatal("failure configuring otel trace exporter: %v\n", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(exporter)
	otel.SetTracerProvider(sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(bsp),
		sdktrace.WithResource(resource.NewWithAttributes(semconv.SchemaURL,
			semconv.ServiceNameKey.String(opts.Telemetry.Service))),
	))

	shutdown := func() {
		_ = bsp.Shutdown(context.Background())
		_ = exporter.Shutdown(context.Background())
	}
	return otel.Tracer(ResourceLibrary, trace.WithInstrumentationVersion(ResourceVersion)), shutdown
}

func setupOTLPHTTPClient(opts *Options) otlptrace.Client {
	options := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(opts.otlphost.Host),
		otlptracehttp.WithCompression(otlptracehttp.GzipCompression),
	}
	if opts.Telemetry.Insecure {
		options = append(options, otlptracehttp.WithInsecure())
	} else {
		options = append(options, otlptracehttp.WithTLSClientConfig(&tls.Config{}))
	}
	return otlptracehttp.NewClient(options...)
}

func setupOTLPGRPCClient(opts *Options) otlptrace.Client {
	options := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(opts.otlphost.Host),
		otlptracegrpc.WithCompressor(gzip.Name),
	}
	if opts.Telemetry.Insecure {
		options = append(options, otlptracegrpc.WithInsecure())
	} else {
		options = append(options, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}
	return otlptracegrpc.NewClient(options...)
}
