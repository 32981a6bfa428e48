package main

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

// captureLogger collects formatted output so tests can assert on it.
type captureLogger struct {
	lines []string
}

func (c *captureLogger) logf(format string, v ...interface{}) {
	c.lines = append(c.lines, fmt.Sprintf(format, v...))
}

func (c *captureLogger) Debug(format string, v ...interface{}) { c.logf(format, v...) }
func (c *captureLogger) Info(format string, v ...interface{})  { c.logf(format, v...) }
func (c *captureLogger) Warn(format string, v ...interface{})  { c.logf(format, v...) }
func (c *captureLogger) Error(format string, v ...interface{}) { c.logf(format, v...) }
func (c *captureLogger) Fatal(format string, v ...interface{}) { c.logf(format, v...) }

// stubIssuer returns canned statuses without touching the network.
type stubIssuer struct {
	statuses map[Category]int
	issued   int
}

func (s *stubIssuer) Issue(ctx context.Context, cat Category) RequestOutcome {
	s.issued++
	status, ok := s.statuses[cat]
	if !ok {
		status = 200
	}
	return RequestOutcome{Category: cat, Status: status, Elapsed: time.Millisecond}
}

func testOptions() *Options {
	opts := &Options{}
	opts.Quantity.MinSleep = 0
	opts.Quantity.MaxSleep = 0
	opts.Quantity.ProgressEvery = 10
	return opts
}

func newTestRunner(t *testing.T, issuer Issuer) *Runner {
	t.Helper()
	mix, err := NewMix(defaultWeights())
	if err != nil {
		t.Fatalf("building mix: %v", err)
	}
	r := NewRunner(issuer, mix, NewRng("test"), NewLogger(0), testOptions())
	r.sleep = func(time.Duration) {} // no real sleeping in tests
	return r
}

func Test_Runner_CountsStayConsistent(t *testing.T) {
	issuer := &stubIssuer{statuses: map[Category]int{
		CategoryError: 500,
		CategorySlow:  200,
	}}
	r := newTestRunner(t, issuer)

	summary := r.Run(context.Background(), 50*time.Millisecond)

	if summary.Total == 0 {
		t.Fatal("expected at least one request to be issued")
	}
	if !summary.Consistent() {
		t.Errorf("success %d + errors %d != total %d", summary.Success, summary.Errors, summary.Total)
	}
	if summary.Total != issuer.issued {
		t.Errorf("summary total %d != issued %d", summary.Total, issuer.issued)
	}
}

func Test_Runner_NonOKCountsAsError(t *testing.T) {
	// every response is a 503, so every request must land in Errors
	issuer := &stubIssuer{statuses: map[Category]int{
		CategoryUser:     503,
		CategoryResource: 503,
		CategoryBatch:    503,
		CategoryHealth:   503,
		CategorySlow:     503,
		CategoryError:    503,
	}}
	r := newTestRunner(t, issuer)

	summary := r.Run(context.Background(), 20*time.Millisecond)
	if summary.Success != 0 {
		t.Errorf("expected no successes, got %d", summary.Success)
	}
	if summary.Errors != summary.Total {
		t.Errorf("expected all %d requests to count as errors, got %d", summary.Total, summary.Errors)
	}
}

func Test_Runner_TransportFailureCountsAsError(t *testing.T) {
	// status 0 marks a request that never got a response
	issuer := &stubIssuer{statuses: map[Category]int{
		CategoryUser:     0,
		CategoryResource: 0,
		CategoryBatch:    0,
		CategoryHealth:   0,
		CategorySlow:     0,
		CategoryError:    0,
	}}
	r := newTestRunner(t, issuer)

	summary := r.Run(context.Background(), 20*time.Millisecond)
	if summary.Total == 0 {
		t.Fatal("expected the loop to keep running through transport failures")
	}
	if summary.Errors != summary.Total {
		t.Errorf("expected %d transport failures counted as errors, got %d", summary.Total, summary.Errors)
	}
}

func Test_Runner_StopsAtDeadline(t *testing.T) {
	issuer := &stubIssuer{}
	r := newTestRunner(t, issuer)

	duration := 100 * time.Millisecond
	start := time.Now()
	summary := r.Run(context.Background(), duration)
	elapsed := time.Since(start)

	// the loop may finish one in-flight request past the deadline, but not
	// much more than that
	if elapsed > duration+time.Second {
		t.Errorf("run took %s, expected close to %s", elapsed, duration)
	}
	if summary.Elapsed < duration {
		t.Errorf("summary elapsed %s is shorter than the configured duration %s", summary.Elapsed, duration)
	}
}

func Test_Runner_HonorsCancellation(t *testing.T) {
	issuer := &stubIssuer{}
	r := newTestRunner(t, issuer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary := r.Run(ctx, time.Hour)

	if summary.Total != 0 {
		t.Errorf("expected no requests after cancellation, got %d", summary.Total)
	}
	if !summary.Consistent() {
		t.Error("summary inconsistent after canceled run")
	}
}

func Test_Report_RateReflectsActualRuntime(t *testing.T) {
	log := &captureLogger{}
	r := newTestRunner(t, &stubIssuer{})
	r.log = log

	// a run interrupted 5s into a planned 30s window still did 20 req/s
	r.Report(RunSummary{Total: 100, Success: 100, Elapsed: 5 * time.Second}, 30*time.Second)

	out := strings.Join(log.lines, "")
	if !strings.Contains(out, "requests/sec:   20") {
		t.Errorf("report = %q, want a rate of 20 over the 5s actually run", out)
	}

	// without a measured elapsed time, fall back to the planned duration
	log.lines = nil
	r.Report(RunSummary{Total: 50, Success: 50}, 10*time.Second)
	out = strings.Join(log.lines, "")
	if !strings.Contains(out, "requests/sec:   5") {
		t.Errorf("report = %q, want a rate of 5 over the planned 10s", out)
	}
}
