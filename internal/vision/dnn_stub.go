//go:build !gocv
// +build !gocv

package vision

import "errors"

// DNNDetector requires the gocv build tag; this stub lets the module build
// without OpenCV installed.
type DNNDetector struct{}

// NewDNNDetector reports that DNN detection is unavailable in this build.
func NewDNNDetector(modelPath, configPath string) (*DNNDetector, error) {
	_, _ = modelPath, configPath
	return nil, errors.New("dnn detection requires the gocv build tag")
}

func (d *DNNDetector) Close() error { return nil }

func (d *DNNDetector) Detect(frame []byte) ([]Detection, []byte, error) {
	_ = frame
	return nil, nil, errors.New("dnn detection requires the gocv build tag")
}
