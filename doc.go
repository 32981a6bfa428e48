package main

// trafficgen drives synthetic traffic against the sample service so that the
// observability stack has something worth looking at. Each iteration draws a
// uniform roll in [0,100) and maps it through cumulative thresholds to pick
// one of six request categories:
//
//   - fetch a user by random id        (40%)
//   - fetch a random resource          (30%)
//   - submit a batch of 3 items        (15%)
//   - health check                     (10%)
//   - deliberately slow endpoint       (3%)
//   - deliberately failing endpoint    (2%)
//
// The weights are configurable but must sum to 100. The loop issues one
// request at a time, sleeps a random interval in [100ms,500ms) between
// requests, prints a progress line every 10th request, and stops when the
// configured duration elapses (or on SIGINT/SIGTERM). Any non-200 response,
// including transport errors, is counted as an error and the loop keeps
// going: partial failure never aborts a run.
//
// The final report prints total/success/error counts, requests per second,
// and latency percentiles from an HDR histogram.
//
// Randomness is seeded from a string (defaulting to the base URL), so two
// runs with the same seed issue the same request sequence. Pass --seed to
// pin it explicitly.
//
// With --endpoint set, trafficgen additionally wraps every request in an OTLP
// client span so its own traffic shows up in the trace backend alongside
// the sample service's server spans. This is purely additive; the request
// loop neither requires nor notices the exporter.
