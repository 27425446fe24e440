//go:build !gocv
// +build !gocv

package capture

import "errors"

// WebcamSource requires the gocv build tag; this stub lets the module build
// without OpenCV installed.
type WebcamSource struct{}

// NewWebcamSource reports that camera capture is unavailable in this build.
func NewWebcamSource(deviceID int) (*WebcamSource, error) {
	_ = deviceID
	return nil, errors.New("webcam capture requires the gocv build tag")
}

func (w *WebcamSource) Next() ([]byte, error) {
	return nil, errors.New("webcam capture requires the gocv build tag")
}

func (w *WebcamSource) Close() error { return nil }
