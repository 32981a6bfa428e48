package main

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RunSummary is the aggregate outcome of a run. At every observation point
// Success+Errors == Total.
type RunSummary struct {
	Total   int
	Success int
	Errors  int
	Elapsed time.Duration
}

func (s RunSummary) Consistent() bool {
	return s.Success+s.Errors == s.Total
}

type Runner struct {
	issuer        Issuer
	mix           *Mix
	rng           Rng
	log           Logger
	minSleep      time.Duration
	maxSleep      time.Duration
	progressEvery int
	latency       *LatencyRecorder
	tracer        trace.Tracer // nil when telemetry is disabled
	sleep         func(time.Duration)
}

func NewRunner(issuer Issuer, mix *Mix, rng Rng, log Logger, opts *Options) *Runner {
	return &Runner{
		issuer:        issuer,
		mix:           mix,
		rng:           rng,
		log:           log,
		minSleep:      opts.Quantity.MinSleep,
		maxSleep:      opts.Quantity.MaxSleep,
		progressEvery: opts.Quantity.ProgressEvery,
		latency:       NewLatencyRecorder(),
		sleep:         time.Sleep,
	}
}

// WithTracer makes the runner wrap each issued request in a client span.
func (r *Runner) WithTracer(tracer trace.Tracer) *Runner {
	r.tracer = tracer
	return r
}

// Run issues requests one at a time until the duration elapses or ctx is
// canceled, and returns the tallied summary. Individual request failures are
// counted, never fatal.
func (r *Runner) Run(ctx context.Context, duration time.Duration) RunSummary {
	start := time.Now()
	deadline := start.Add(duration)
	summary := RunSummary{}

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			summary.Elapsed = time.Since(start)
			return summary
		default:
		}

		cat := r.mix.Pick(r.rng.Intn(100))
		outcome := r.issue(ctx, cat)

		summary.Total++
		if outcome.OK() {
			summary.Success++
		} else {
			summary.Errors++
		}
		r.latency.Record(outcome.Elapsed)

		if r.progressEvery > 0 && summary.Total%r.progressEvery == 0 {
			r.log.Info("progress: %d requests (%d ok, %d errors) in %s\n",
				summary.Total, summary.Success, summary.Errors, time.Since(start).Round(time.Second))
		}

		r.sleep(r.rng.Duration(r.minSleep, r.maxSleep))
	}

	summary.Elapsed = time.Since(start)
	return summary
}

func (r *Runner) issue(ctx context.Context, cat Category) RequestOutcome {
	if r.tracer == nil {
		return r.issuer.Issue(ctx, cat)
	}

	ctx, span := r.tracer.Start(ctx, "trafficgen.request", trace.WithSpanKind(trace.SpanKindClient))
	outcome := r.issuer.Issue(ctx, cat)
	span.SetAttributes(
		attribute.String("request.category", cat.String()),
		attribute.Int("http.status_code", outcome.Status),
		attribute.Int64("duration_ms", outcome.Elapsed.Milliseconds()),
	)
	if !outcome.OK() {
		span.SetStatus(codes.Error, "request failed")
	}
	span.End()
	return outcome
}

// Report prints the final summary to stdout. The request rate is computed
// over the time the run actually took, so an interrupted run still reports
// honestly; the planned duration is only a fallback for a zero Elapsed.
func (r *Runner) Report(s RunSummary, duration time.Duration) {
	secs := int(s.Elapsed.Seconds())
	if secs == 0 {
		secs = int(duration.Seconds())
	}
	rps := 0
	if secs > 0 {
		rps = s.Total / secs
	}
	r.log.Info("\n=== run complete ===\n")
	r.log.Info("total requests: %d\n", s.Total)
	r.log.Info("successful:     %d\n", s.Success)
	r.log.Info("errors:         %d\n", s.Errors)
	r.log.Info("duration:       %s\n", s.Elapsed.Round(time.Second))
	r.log.Info("requests/sec:   %d\n", rps)
	if r.latency.Count() > 0 {
		r.log.Info("latency p50/p95/p99/max: %s / %s / %s / %s\n",
			r.latency.Quantile(50).Round(time.Millisecond),
			r.latency.Quantile(95).Round(time.Millisecond),
			r.latency.Quantile(99).Round(time.Millisecond),
			r.latency.Max().Round(time.Millisecond))
	}
	if !s.Consistent() {
		r.log.Warn("summary counts are inconsistent: %d ok + %d errors != %d total\n",
			s.Success, s.Errors, s.Total)
	}
}
