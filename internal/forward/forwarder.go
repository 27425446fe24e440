// Package forward pushes equipment status to the actuator over HTTP,
// best-effort: outcomes are recorded, never propagated, never retried.
package forward

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/banshee-data/ppe.watch/internal/httputil"
	"github.com/banshee-data/ppe.watch/internal/monitoring"
	"github.com/banshee-data/ppe.watch/internal/ppe"
)

// Outcome classifies one push attempt.
type Outcome string

const (
	OutcomeOK        Outcome = "ok"
	OutcomeBadStatus Outcome = "bad_status"
	OutcomeTimeout   Outcome = "timeout"
	OutcomeConnError Outcome = "conn_error"
	// OutcomeSkipped means a push was dropped because one was already in
	// flight. Only the latest status matters, so coalescing is safe.
	OutcomeSkipped Outcome = "skipped"
)

// Result describes one push attempt for observability.
type Result struct {
	Outcome    Outcome
	StatusCode int
	Err        error
	Elapsed    time.Duration
}

// Recorder observes push results. The default implementation logs them.
type Recorder interface {
	RecordForward(res Result)
}

// LogRecorder writes push results to the monitoring logger.
type LogRecorder struct{}

// RecordForward logs failures and stays quiet on success.
func (LogRecorder) RecordForward(res Result) {
	switch res.Outcome {
	case OutcomeOK, OutcomeSkipped:
	case OutcomeBadStatus:
		monitoring.Logf("forward: device returned status %d", res.StatusCode)
	default:
		monitoring.Logf("forward: %s: %v", res.Outcome, res.Err)
	}
}

// Forwarder owns the actuator endpoint. At most one push is in flight at a
// time; overlapping pushes are skipped.
type Forwarder struct {
	URL      string
	Timeout  time.Duration
	Client   httputil.HTTPClient
	Recorder Recorder

	inflight atomic.Bool
}

// DefaultTimeout bounds one push attempt. The actuator sits on the local
// network; anything slower than this is effectively down.
const DefaultTimeout = 500 * time.Millisecond

// New creates a forwarder for the given endpoint URL.
func New(url string) *Forwarder {
	return &Forwarder{
		URL:      url,
		Timeout:  DefaultTimeout,
		Client:   httputil.NewStandardClient(nil),
		Recorder: LogRecorder{},
	}
}

// PushAsync delivers the snapshot on its own goroutine and returns
// immediately. A push already in flight causes this one to be skipped.
func (f *Forwarder) PushAsync(snap ppe.Snapshot) {
	if !f.inflight.CompareAndSwap(false, true) {
		f.Recorder.RecordForward(Result{Outcome: OutcomeSkipped})
		return
	}
	go func() {
		defer f.inflight.Store(false)
		f.Recorder.RecordForward(f.Push(snap))
	}()
}

// Push performs one bounded-time POST of the snapshot's device payload and
// classifies the outcome. It never returns an error to the caller.
func (f *Forwarder) Push(snap ppe.Snapshot) Result {
	start := time.Now()

	body, err := snap.DevicePayload()
	if err != nil {
		return Result{Outcome: OutcomeConnError, Err: err, Elapsed: time.Since(start)}
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.URL, bytes.NewReader(body))
	if err != nil {
		return Result{Outcome: OutcomeConnError, Err: err, Elapsed: time.Since(start)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		outcome := OutcomeConnError
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			outcome = OutcomeTimeout
		}
		return Result{Outcome: outcome, Err: err, Elapsed: time.Since(start)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{Outcome: OutcomeBadStatus, StatusCode: resp.StatusCode, Elapsed: time.Since(start)}
	}
	return Result{Outcome: OutcomeOK, StatusCode: resp.StatusCode, Elapsed: time.Since(start)}
}
