// otlpsink is a local OTLP/HTTP trace receiver that counts what it is sent
// and throws the rest away. Point trafficgen, sampleservice, or tracesim at it
// to verify export wiring without standing up a real backend; it reports
// span rates while running and distinct trace/span totals on shutdown.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
)

// Options defines the command line arguments
type Options struct {
	Port        int           `long:"port" description:"Port number to listen on for HTTP" default:"4318"`
	ReportEvery time.Duration `long:"reportevery" description:"how often to report span rates" default:"5s"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		log.Fatalf("Error parsing flags: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	counter := NewSpanCounter()
	rates := NewRateTracker(opts.ReportEvery)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/traces", tracesHandler(counter, rates))

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: mux,
	}

	go func() {
		log.Printf("otlpsink listening on port %d", opts.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("error during server shutdown: %v", err)
	}

	traces, spans := counter.Totals()
	fmt.Printf("\n%d traces, %d spans received this session\n", traces, spans)
}
