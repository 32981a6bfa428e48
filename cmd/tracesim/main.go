// tracesim emits synthetic order-processing traces so a trace backend has
// realistic nested spans to show: each order produces a process_order root
// wrapping validation, payment (with occasional simulated failures), and
// shipment scheduling. It is the span-level counterpart to trafficgen's
// HTTP-level traffic.
package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"pgregory.net/rand"
)

// Options defines the command line arguments
type Options struct {
	Endpoint    string        `long:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" description:"OTLP host to receive traces" default:"localhost:4318"`
	Protocol    string        `long:"protocol" description:"OTLP protocol to use" choice:"grpc" choice:"http" default:"http"`
	Insecure    bool          `long:"insecure" description:"use this for insecure http (not https) connections"`
	Service     string        `long:"service" env:"OTEL_SERVICE_NAME" description:"service name reported in telemetry" default:"test-application"`
	OrderCount  int64         `long:"ordercount" description:"number of orders to process (0 means run until interrupted)" default:"0"`
	MinWait     time.Duration `long:"minwait" description:"minimum pause between orders" default:"1s"`
	MaxWait     time.Duration `long:"maxwait" description:"maximum pause between orders" default:"3s"`
	FailureRate float64       `long:"failurerate" description:"probability that a payment fails" default:"0.1"`
}

func setupExporter(opts Options) (*sdktrace.TracerProvider, error) {
	var client otlptrace.Client
	switch opts.Protocol {
	case "grpc":
		options := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(opts.Endpoint)}
		if opts.Insecure {
			options = append(options, otlptracegrpc.WithInsecure())
		}
		client = otlptracegrpc.NewClient(options...)
	case "http":
		options := []otlptracehttp.Option{otlptracehttp.WithEndpoint(opts.Endpoint)}
		if opts.Insecure {
			options = append(options, otlptracehttp.WithInsecure())
		} else {
			options = append(options, otlptracehttp.WithTLSClientConfig(&tls.Config{}))
		}
		client = otlptracehttp.NewClient(options...)
	}

	exporter, err := otlptrace.New(context.Background(), client)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter)),
		sdktrace.WithResource(resource.NewWithAttributes(semconv.SchemaURL,
			semconv.ServiceNameKey.String(opts.Service))),
	)
	otel.SetTracerProvider(provider)
	return provider, nil
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

	provider, err := setupExporter(opts)
	if err != nil {
		log.Fatalf("failure configuring otel trace exporter: %v", err)
	}

	log.Printf("sending traces to %s (%s)", opts.Endpoint, opts.Protocol)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rng := rand.New()
	pipeline := NewPipeline(otel.Tracer("tracesim"), rng, opts.FailureRate)

	var count int64
	for ctx.Err() == nil {
		count++
		orderID := fmt.Sprintf("ORD-%05d", count)
		if err := pipeline.ProcessOrder(ctx, orderID); err != nil {
			log.Printf("error processing order %s: %v", orderID, err)
		} else {
			log.Printf("order %s processed successfully", orderID)
		}

		if opts.OrderCount > 0 && count >= opts.OrderCount {
			break
		}

		wait := opts.MinWait
		if opts.MaxWait > opts.MinWait {
			wait += time.Duration(rng.Int63n(int64(opts.MaxWait - opts.MinWait)))
		}
		select {
		case <-ctx.Done():
		case <-time.After(wait):
		}
	}

	log.Printf("flushing remaining traces after %d orders", count)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := provider.Shutdown(shutdownCtx); err != nil {
		log.Printf("error shutting down trace provider: %v", err)
	}
}
