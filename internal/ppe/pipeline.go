package ppe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/ppe.watch/internal/capture"
	"github.com/banshee-data/ppe.watch/internal/monitoring"
	"github.com/banshee-data/ppe.watch/internal/timeutil"
	"github.com/banshee-data/ppe.watch/internal/vision"
)

// Pusher receives a snapshot for best-effort delivery to the actuator.
// Implementations must return without waiting for the network.
type Pusher interface {
	PushAsync(snap Snapshot)
}

// Pipeline drives the capture → detect → publish cycle. It is the only
// writer of the two stores; all consumers read through them, so a slow
// client can never stall a cycle.
type Pipeline struct {
	Source   capture.Source
	Detector vision.Detector
	Status   *StatusStore
	Frames   *FrameStore

	// Push, when set, is invoked at most once per PushInterval with the
	// just-computed snapshot.
	Push         Pusher
	PushInterval time.Duration

	Clock timeutil.Clock
}

// Run loops until the context is cancelled or the source is exhausted.
// Source exhaustion is the normal end of a finite feed and returns nil; a
// detector failure is fatal and returned. The source is released on exit.
func (p *Pipeline) Run(ctx context.Context) error {
	defer func() {
		if err := p.Source.Close(); err != nil {
			monitoring.Logf("pipeline: close source: %v", err)
		}
	}()

	clock := p.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	var lastPush time.Time // zero forces a push on the first eligible cycle
	cycles := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := p.Source.Next()
		if errors.Is(err, capture.ErrSourceExhausted) {
			monitoring.Logf("pipeline: source exhausted after %d cycles", cycles)
			return nil
		}
		if err != nil {
			return fmt.Errorf("capture frame: %w", err)
		}

		detections, annotated, err := p.Detector.Detect(frame)
		if err != nil {
			return fmt.Errorf("detect: %w", err)
		}

		snap := NewSnapshot(clock.Now())
		for _, det := range detections {
			snap.ApplyLabel(det.Label)
		}

		p.Status.Publish(snap)
		p.Frames.Publish(annotated)
		cycles++

		// The interval timer resets regardless of the push outcome; the
		// next interval is the retry mechanism.
		if p.Push != nil && clock.Since(lastPush) >= p.PushInterval {
			p.Push.PushAsync(snap)
			lastPush = clock.Now()
		}
	}
}
