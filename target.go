package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// RequestOutcome is what the runner tallies for a single issued request.
// Transport failures are recorded with Status 0 so they count as errors.
type RequestOutcome struct {
	Category Category
	Status   int
	Elapsed  time.Duration
}

func (o RequestOutcome) OK() bool {
	return o.Status == http.StatusOK
}

// Issuer issues a single request of the given category against the target.
type Issuer interface {
	Issue(ctx context.Context, cat Category) RequestOutcome
}

type Target struct {
	base   *url.URL
	client *http.Client
	rng    Rng
	log    Logger
}

// make sure it implements Issuer
var _ Issuer = (*Target)(nil)

func NewTarget(base *url.URL, timeout time.Duration, rng Rng, log Logger) *Target {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConnsPerHost = 10
	return &Target{
		base: base,
		client: &http.Client{
			Timeout:   timeout,
			Transport: t,
		},
		rng: rng,
		log: log,
	}
}

func (t *Target) Issue(ctx context.Context, cat Category) RequestOutcome {
	method := http.MethodGet
	path := "/"
	var body io.Reader

	switch cat {
	case CategoryUser:
		path = fmt.Sprintf("/user/%d", t.rng.Intn(1000)+1)
	case CategoryResource:
		path = "/api/" + t.rng.Choice(nouns)
	case CategoryBatch:
		method = http.MethodPost
		path = "/api/process"
		items := []string{t.rng.Choice(nouns), t.rng.Choice(nouns), t.rng.Choice(nouns)}
		b, _ := json.Marshal(map[string]interface{}{"items": items})
		body = bytes.NewReader(b)
	case CategoryHealth:
		path = "/"
	case CategorySlow:
		path = "/slow"
	case CategoryError:
		path = "/error"
	}

	start := time.Now()
	outcome := RequestOutcome{Category: cat}

	req, err := http.NewRequestWithContext(ctx, method, t.base.JoinPath(path).String(), body)
	if err != nil {
		t.log.Error("building %s request: %v\n", cat, err)
		outcome.Elapsed = time.Since(start)
		return outcome
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(req)
	outcome.Elapsed = time.Since(start)
	if err != nil {
		t.log.Debug("%s request failed: %v\n", cat, err)
		return outcome
	}
	// drain so the connection can be reused
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	outcome.Status = resp.StatusCode
	return outcome
}
