package main

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// LatencyRecorder accumulates request latencies in microseconds. The runner
// is the only writer, so no locking is needed.
type LatencyRecorder struct {
	hist *hdrhistogram.Histogram
}

func NewLatencyRecorder() *LatencyRecorder {
	// 1us to 10min, 3 significant figures
	return &LatencyRecorder{hist: hdrhistogram.New(1, int64(10*time.Minute/time.Microsecond), 3)}
}

func (l *LatencyRecorder) Record(d time.Duration) {
	l.hist.RecordValue(d.Microseconds())
}

func (l *LatencyRecorder) Quantile(q float64) time.Duration {
	return time.Duration(l.hist.ValueAtQuantile(q)) * time.Microsecond
}

func (l *LatencyRecorder) Max() time.Duration {
	return time.Duration(l.hist.Max()) * time.Microsecond
}

func (l *LatencyRecorder) Count() int64 {
	return l.hist.TotalCount()
}
