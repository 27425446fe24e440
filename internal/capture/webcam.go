//go:build gocv
// +build gocv

package capture

import (
	"fmt"

	"gocv.io/x/gocv"
)

// WebcamSource reads frames from an OpenCV capture device and encodes each
// one as JPEG.
type WebcamSource struct {
	cam *gocv.VideoCapture
	mat gocv.Mat
}

// NewWebcamSource opens the capture device with the given ID.
func NewWebcamSource(deviceID int) (*WebcamSource, error) {
	cam, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, fmt.Errorf("open capture device %d: %w", deviceID, err)
	}
	return &WebcamSource{cam: cam, mat: gocv.NewMat()}, nil
}

// Next reads one frame from the device. A failed read means the camera is
// gone or the stream ended, so it surfaces as ErrSourceExhausted.
func (w *WebcamSource) Next() ([]byte, error) {
	if ok := w.cam.Read(&w.mat); !ok || w.mat.Empty() {
		return nil, ErrSourceExhausted
	}

	buf, err := gocv.IMEncode(".jpg", w.mat)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	frame := make([]byte, len(buf.GetBytes()))
	copy(frame, buf.GetBytes())
	return frame, nil
}

// Close releases the device and the reusable frame buffer.
func (w *WebcamSource) Close() error {
	w.mat.Close()
	return w.cam.Close()
}
