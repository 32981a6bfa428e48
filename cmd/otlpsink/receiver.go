package main

import (
	"compress/gzip"
	"io"
	"net/http"
	"sync"

	"github.com/golang/protobuf/proto"
	cuckoo "github.com/panmari/cuckoofilter"
	collectortrace "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	"google.golang.org/protobuf/encoding/protojson"
)

// SpanCounter keeps approximate distinct counts of the trace and span IDs
// it has seen. Handlers run concurrently, so access is serialized.
type SpanCounter struct {
	mu     sync.Mutex
	traces *cuckoo.Filter
	spans  *cuckoo.Filter
}

func NewSpanCounter() *SpanCounter {
	return &SpanCounter{
		traces: cuckoo.NewFilter(1_000_000),
		spans:  cuckoo.NewFilter(100_000_000),
	}
}

// Ingest records every span in the export request and returns how many
// spans the request carried.
func (sc *SpanCounter) Ingest(req *collectortrace.ExportTraceServiceRequest) int {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	n := 0
	for _, rs := range req.GetResourceSpans() {
		for _, scope := range rs.GetScopeSpans() {
			for _, span := range scope.GetSpans() {
				n++
				if !sc.traces.Lookup(span.GetTraceId()) {
					sc.traces.Insert(span.GetTraceId())
				}
				if !sc.spans.Lookup(span.GetSpanId()) {
					sc.spans.Insert(span.GetSpanId())
				}
			}
		}
	}
	return n
}

func (sc *SpanCounter) Totals() (traces, spans uint) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.traces.Count(), sc.spans.Count()
}

// tracesHandler accepts OTLP/HTTP trace exports in protobuf or JSON,
// optionally gzip-encoded, and feeds them to the counter and rate tracker.
func tracesHandler(sc *SpanCounter, rates *RateTracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		defer r.Body.Close()

		var reader io.Reader = r.Body
		if r.Header.Get("Content-Encoding") == "gzip" {
			gz, err := gzip.NewReader(r.Body)
			if err != nil {
				http.Error(w, "Failed to decompress gzip data: "+err.Error(), http.StatusBadRequest)
				return
			}
			defer gz.Close()
			reader = gz
		}
		body, err := io.ReadAll(reader)
		if err != nil {
			http.Error(w, "Error reading request body", http.StatusBadRequest)
			return
		}

		var req collectortrace.ExportTraceServiceRequest
		switch r.Header.Get("Content-Type") {
		case "application/json":
			err = protojson.Unmarshal(body, &req)
		default:
			// protobuf, declared or not
			err = proto.Unmarshal(body, &req)
		}
		if err != nil {
			http.Error(w, "Invalid trace payload", http.StatusBadRequest)
			return
		}

		rates.Track(sc.Ingest(&req))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("{}"))
	}
}
