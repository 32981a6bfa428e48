// sampleservice is an HTTP service whose handlers simulate variable-latency
// downstream calls (database lookups, flaky external APIs, batch work) plus
// one deterministic error route and one deterministic slow route. It exists
// purely to produce traces, logs, and latency distributions worth inspecting
// in an observability stack; it holds no state and talks to nothing real.
//
// When OTEL_EXPORTER_OTLP_ENDPOINT is set, requests are traced via otelgin
// and exported over OTLP gRPC. Without it the service runs untraced; the
// handlers behave identically either way.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jessevdk/go-flags"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"pgregory.net/rand"
)

// Options defines the command line arguments
type Options struct {
	Port    int    `long:"port" env:"PORT" description:"port to listen on" default:"3000"`
	Service string `long:"service" env:"OTEL_SERVICE_NAME" description:"service name reported in telemetry" default:"sample-service"`
}

// initTracer installs an OTLP-gRPC tracer provider when an exporter
// endpoint is configured. Returns a nil shutdown func when tracing is off.
func initTracer(ctx context.Context, serviceName string) (func(context.Context), error) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		return nil, nil
	}

	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)))
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter)))
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			slog.Error("failed to shut down OTLP exporter", "error", err)
		}
	}, nil
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		log.Fatalf("error parsing flags: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cleanup, err := initTracer(ctx, opts.Service)
	if err != nil {
		log.Fatalf("failed to set up the OTLP tracer: %v", err)
	}

	var middleware []gin.HandlerFunc
	if cleanup != nil {
		defer cleanup(context.Background())
		middleware = append(middleware, otelgin.Middleware(opts.Service))
		logger.Info("tracing enabled", "endpoint", os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	}

	gin.SetMode(gin.ReleaseMode)
	server := NewServer(logger, rand.New(), time.Sleep)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: server.Router(middleware...),
	}

	go func() {
		logger.Info("listening", "port", opts.Port, "service", opts.Service)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err)
	}
}
