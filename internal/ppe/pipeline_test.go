package ppe

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ppe.watch/internal/capture"
	"github.com/banshee-data/ppe.watch/internal/timeutil"
	"github.com/banshee-data/ppe.watch/internal/vision"
)

// scriptedSource yields a fixed list of frames, optionally advancing the mock
// clock before each one, then reports exhaustion.
type scriptedSource struct {
	frames  [][]byte
	advance time.Duration
	clock   *timeutil.MockClock
	next    int
	closed  bool
}

func (s *scriptedSource) Next() ([]byte, error) {
	if s.next >= len(s.frames) {
		return nil, capture.ErrSourceExhausted
	}
	if s.clock != nil && s.advance > 0 {
		s.clock.Advance(s.advance)
	}
	frame := s.frames[s.next]
	s.next++
	return frame, nil
}

func (s *scriptedSource) Close() error {
	s.closed = true
	return nil
}

// scriptedDetector returns per-cycle labels and records what the stores held
// at the start of each cycle, which is the previous cycle's published state.
type scriptedDetector struct {
	labels [][]string
	status *StatusStore
	frames *FrameStore

	cycle         int
	seenSnapshots []Snapshot
	seenFrames    [][]byte
}

func (d *scriptedDetector) Detect(frame []byte) ([]vision.Detection, []byte, error) {
	d.seenSnapshots = append(d.seenSnapshots, d.status.Read())
	if f, ok := d.frames.Read(); ok {
		d.seenFrames = append(d.seenFrames, f)
	}

	var dets []vision.Detection
	if d.cycle < len(d.labels) {
		for _, label := range d.labels[d.cycle] {
			dets = append(dets, vision.Detection{Label: label, Confidence: 0.9})
		}
	}
	d.cycle++

	annotated := append([]byte("annotated-"), frame...)
	return dets, annotated, nil
}

type recordingPusher struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (p *recordingPusher) PushAsync(snap Snapshot) {
	p.mu.Lock()
	p.snaps = append(p.snaps, snap)
	p.mu.Unlock()
}

func (p *recordingPusher) pushed() []Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Snapshot(nil), p.snaps...)
}

func TestPipelineStatusSequence(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(1000, 0))
	status := NewStatusStore(clock.Now())
	frames := NewFrameStore()

	source := &scriptedSource{
		frames: [][]byte{[]byte("f1"), []byte("f2"), []byte("f3")},
	}
	detector := &scriptedDetector{
		labels: [][]string{nil, {"NO-Hardhat"}, nil},
		status: status,
		frames: frames,
	}

	p := &Pipeline{
		Source:   source,
		Detector: detector,
		Status:   status,
		Frames:   frames,
		Clock:    clock,
	}

	err := p.Run(context.Background())
	require.NoError(t, err)
	require.True(t, source.closed, "source must be released on exit")

	// The detector observed the store at the start of cycles 2 and 3; the
	// final state is cycle 3's. Expected sequence across the three cycles:
	// all-present, hardhat-missing, all-present.
	require.Len(t, detector.seenSnapshots, 3)
	require.Equal(t, Present, detector.seenSnapshots[1].Hardhat, "cycle 1 should leave all items present")
	require.Equal(t, Missing, detector.seenSnapshots[2].Hardhat, "cycle 2 should flag the hardhat missing")
	final := status.Read()
	require.Equal(t, Present, final.Hardhat, "cycle 3 should recover to present")
	require.Equal(t, Present, final.Vest)
	require.Equal(t, Present, final.Mask)

	// Three distinct annotated frames, in order. The detector saw cycle 1's
	// and cycle 2's frames; the store ends with cycle 3's.
	require.Equal(t, [][]byte{[]byte("annotated-f1"), []byte("annotated-f2")}, detector.seenFrames)
	last, ok := frames.Read()
	require.True(t, ok)
	require.Equal(t, []byte("annotated-f3"), last)
}

func TestPipelinePushCadence(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(1000, 0))
	status := NewStatusStore(clock.Now())
	frames := NewFrameStore()
	pusher := &recordingPusher{}

	// Five cycles 300ms apart with a 1s push interval: pushes land on the
	// first cycle and then once the accumulated gap reaches the interval.
	source := &scriptedSource{
		frames:  [][]byte{[]byte("a"), []byte("b"), []byte("c"), []byte("d"), []byte("e")},
		advance: 300 * time.Millisecond,
		clock:   clock,
	}
	detector := &scriptedDetector{status: status, frames: frames}

	p := &Pipeline{
		Source:       source,
		Detector:     detector,
		Status:       status,
		Frames:       frames,
		Push:         pusher,
		PushInterval: time.Second,
		Clock:        clock,
	}

	require.NoError(t, p.Run(context.Background()))

	// Cycle times: 0.3, 0.6, 0.9, 1.2, 1.5 (relative). First cycle pushes
	// (no prior push); next eligible cycle is at 1.5 (1.2s after the first).
	require.Len(t, pusher.pushed(), 2)
}

func TestPipelineStopsOnContextCancel(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(1000, 0))
	status := NewStatusStore(clock.Now())
	frames := NewFrameStore()

	ctx, cancel := context.WithCancel(context.Background())

	// An endless source; the test cancels after the second cycle.
	cycles := 0
	source := &callbackSource{
		next: func() ([]byte, error) {
			cycles++
			if cycles > 2 {
				cancel()
			}
			return []byte("frame"), nil
		},
	}
	detector := &scriptedDetector{status: status, frames: frames}

	p := &Pipeline{Source: source, Detector: detector, Status: status, Frames: frames, Clock: clock}

	err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, source.closed)
}

func TestPipelineDetectorErrorIsFatal(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(1000, 0))
	status := NewStatusStore(clock.Now())
	frames := NewFrameStore()

	source := &scriptedSource{frames: [][]byte{[]byte("f1")}}
	detector := &failingDetector{err: errors.New("malformed model output")}

	p := &Pipeline{Source: source, Detector: detector, Status: status, Frames: frames, Clock: clock}

	err := p.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "detect")
	require.True(t, source.closed)

	// The stores keep their last-known state; the server keeps serving it.
	require.Equal(t, Present, status.Read().Hardhat)
	if _, ok := frames.Read(); ok {
		t.Error("no frame should have been published before the failure")
	}
}

func TestPipelineCaptureErrorIsFatal(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(1000, 0))
	source := &callbackSource{next: func() ([]byte, error) {
		return nil, errors.New("device wedged")
	}}

	p := &Pipeline{
		Source:   source,
		Detector: vision.Passthrough{},
		Status:   NewStatusStore(clock.Now()),
		Frames:   NewFrameStore(),
		Clock:    clock,
	}

	err := p.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "capture frame")
}

func TestPipelinePublishedFrameIsIndependent(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(1000, 0))
	status := NewStatusStore(clock.Now())
	frames := NewFrameStore()

	source := &scriptedSource{frames: [][]byte{[]byte("f1")}}
	p := &Pipeline{Source: source, Detector: vision.Passthrough{}, Status: status, Frames: frames, Clock: clock}
	require.NoError(t, p.Run(context.Background()))

	a, ok := frames.Read()
	require.True(t, ok)
	b, _ := frames.Read()
	a[0] = 'X'
	if !bytes.Equal(b, []byte("f1")) {
		t.Errorf("second read affected by first reader's mutation: %q", b)
	}
}

type callbackSource struct {
	next   func() ([]byte, error)
	closed bool
}

func (s *callbackSource) Next() ([]byte, error) { return s.next() }
func (s *callbackSource) Close() error {
	s.closed = true
	return nil
}

type failingDetector struct {
	err error
}

func (d *failingDetector) Detect(frame []byte) ([]vision.Detection, []byte, error) {
	return nil, nil, d.err
}
