package main

import (
	"context"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"pgregory.net/rand"
)

func newTestPipeline(failureRate float64) (*Pipeline, *tracetest.SpanRecorder) {
	sr := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	p := NewPipeline(provider.Tracer("test"), rand.New(1), failureRate)
	p.sleep = func(time.Duration) {}
	return p, sr
}

func spanNames(sr *tracetest.SpanRecorder) map[string]int {
	names := make(map[string]int)
	for _, s := range sr.Ended() {
		names[s.Name()]++
	}
	return names
}

func Test_Pipeline_SuccessfulOrder(t *testing.T) {
	p, sr := newTestPipeline(0)

	if err := p.ProcessOrder(context.Background(), "ORD-00001"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names := spanNames(sr)
	for _, want := range []string{"process_order", "validate_order", "process_payment", "schedule_shipment"} {
		if names[want] != 1 {
			t.Errorf("expected exactly one %s span, got %d", want, names[want])
		}
	}
	if len(sr.Ended()) != 4 {
		t.Errorf("expected 4 spans per order, got %d", len(sr.Ended()))
	}
}

func Test_Pipeline_PaymentFailureSkipsShipment(t *testing.T) {
	p, sr := newTestPipeline(1.0)

	err := p.ProcessOrder(context.Background(), "ORD-00002")
	if err == nil {
		t.Fatal("expected the order to fail")
	}

	names := spanNames(sr)
	if names["schedule_shipment"] != 0 {
		t.Error("shipment must be skipped when payment fails")
	}
	if len(sr.Ended()) != 3 {
		t.Errorf("expected 3 spans for a failed order, got %d", len(sr.Ended()))
	}
}

func Test_Pipeline_ChildSpansShareTheTrace(t *testing.T) {
	p, sr := newTestPipeline(0)

	if err := p.ProcessOrder(context.Background(), "ORD-00003"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := sr.Ended()
	traceID := spans[0].SpanContext().TraceID()
	for _, s := range spans[1:] {
		if s.SpanContext().TraceID() != traceID {
			t.Errorf("span %s has trace id %s, want %s", s.Name(), s.SpanContext().TraceID(), traceID)
		}
	}
}
