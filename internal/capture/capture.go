// Package capture acquires video frames for the detection pipeline.
package capture

import "errors"

// ErrSourceExhausted is returned by Next when the video source has ended or
// failed permanently. The pipeline treats it as its exit condition.
var ErrSourceExhausted = errors.New("capture: source exhausted")

// Source yields successive JPEG-encoded frames from a video source. Next
// blocks until a frame is available and returns ErrSourceExhausted once the
// source ends. A Source is owned by exactly one pipeline.
type Source interface {
	Next() ([]byte, error)
	Close() error
}
