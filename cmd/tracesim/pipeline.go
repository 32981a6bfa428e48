package main

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"pgregory.net/rand"
)

var paymentMethods = []string{"credit_card", "paypal", "bank_transfer"}
var carriers = []string{"USPS", "FedEx", "UPS"}

var errInsufficientFunds = errors.New("payment failed: insufficient funds")

// Pipeline processes synthetic orders, producing a nested trace per order:
// process_order wrapping validate_order, process_payment, and
// schedule_shipment. Payments fail at failureRate, which aborts the order
// before shipment.
type Pipeline struct {
	tracer      trace.Tracer
	rng         *rand.Rand
	sleep       func(time.Duration)
	failureRate float64
}

func NewPipeline(tracer trace.Tracer, rng *rand.Rand, failureRate float64) *Pipeline {
	return &Pipeline{
		tracer:      tracer,
		rng:         rng,
		sleep:       time.Sleep,
		failureRate: failureRate,
	}
}

func (p *Pipeline) ProcessOrder(ctx context.Context, orderID string) error {
	ctx, span := p.tracer.Start(ctx, "process_order")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.id", orderID),
		attribute.Int("order.value", p.rng.Intn(991)+10),
	)

	p.validateOrder(ctx, orderID)

	if err := p.processPayment(ctx, orderID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	p.scheduleShipment(ctx, orderID)
	return nil
}

func (p *Pipeline) validateOrder(ctx context.Context, orderID string) {
	_, span := p.tracer.Start(ctx, "validate_order")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))
	p.sleepBetween(100*time.Millisecond, 300*time.Millisecond)
	span.AddEvent("Order validated")
}

func (p *Pipeline) processPayment(ctx context.Context, orderID string) error {
	_, span := p.tracer.Start(ctx, "process_payment")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.id", orderID),
		attribute.String("payment.method", paymentMethods[p.rng.Intn(len(paymentMethods))]),
	)
	p.sleepBetween(200*time.Millisecond, 500*time.Millisecond)

	if p.rng.Float64() < p.failureRate {
		span.SetAttributes(attribute.Bool("error", true))
		span.AddEvent("Payment failed", trace.WithAttributes(
			attribute.String("reason", "insufficient_funds")))
		span.SetStatus(codes.Error, errInsufficientFunds.Error())
		return errInsufficientFunds
	}

	span.AddEvent("Payment processed successfully")
	return nil
}

func (p *Pipeline) scheduleShipment(ctx context.Context, orderID string) {
	_, span := p.tracer.Start(ctx, "schedule_shipment")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.id", orderID),
		attribute.String("carrier", carriers[p.rng.Intn(len(carriers))]),
	)
	p.sleepBetween(100*time.Millisecond, 200*time.Millisecond)
	span.AddEvent("Shipment scheduled")
}

func (p *Pipeline) sleepBetween(min, max time.Duration) {
	p.sleep(min + time.Duration(p.rng.Int63n(int64(max-min))))
}
