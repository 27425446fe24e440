// Package vision runs equipment detection on captured frames.
package vision

// Detection is one labeled region reported by the detector.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// Detector analyzes one JPEG frame and returns the ordered detections plus an
// annotated JPEG for display. Detections are not retained by callers beyond
// the cycle that produced them.
type Detector interface {
	Detect(frame []byte) ([]Detection, []byte, error)
}

// Passthrough reports no detections and returns the frame unannotated. It
// stands in for the DNN detector in dev mode and tests.
type Passthrough struct{}

// Detect returns the input frame as its own annotation.
func (Passthrough) Detect(frame []byte) ([]Detection, []byte, error) {
	return nil, frame, nil
}
