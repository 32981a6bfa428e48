package main

import (
	"log"
	"sync"
	"time"
)

// RateTracker tracks spans received per second over short windows so you
// can watch ingest keep up (or not) while a generator runs.
type RateTracker struct {
	mu         sync.Mutex
	perSecond  map[int64]int // unix second -> span count
	started    time.Time
	total      int
	lastReport time.Time
	reportGap  time.Duration
	now        func() time.Time
}

func NewRateTracker(reportGap time.Duration) *RateTracker {
	return &RateTracker{
		perSecond:  make(map[int64]int),
		started:    time.Now(),
		lastReport: time.Now(),
		reportGap:  reportGap,
		now:        time.Now,
	}
}

// Track adds a span count to the current second and reports periodically.
func (t *RateTracker) Track(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.perSecond[now.Unix()] += count
	t.total += count

	// drop buckets older than the widest window
	cutoff := now.Unix() - 60
	for sec := range t.perSecond {
		if sec < cutoff {
			delete(t.perSecond, sec)
		}
	}

	if t.reportGap > 0 && now.Sub(t.lastReport) >= t.reportGap {
		log.Printf("spans/sec: %.1f (1s) | %.1f (10s) | %.1f (60s) | total: %d",
			t.rateLocked(1), t.rateLocked(10), t.rateLocked(60), t.total)
		t.lastReport = now
	}
}

// Rate returns the average spans/second over the last n seconds.
func (t *RateTracker) Rate(seconds int) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rateLocked(seconds)
}

func (t *RateTracker) rateLocked(seconds int) float64 {
	now := t.now()
	cutoff := now.Add(-time.Duration(seconds) * time.Second).Unix()

	var sum int
	for sec, count := range t.perSecond {
		if sec >= cutoff {
			sum += count
		}
	}

	// with less than n seconds of data, average over what we have
	window := int64(seconds)
	if elapsed := now.Unix() - t.started.Unix(); elapsed < window {
		window = elapsed
		if window == 0 {
			window = 1
		}
	}
	return float64(sum) / float64(window)
}

func (t *RateTracker) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}
