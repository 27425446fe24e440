//go:build gocv
// +build gocv

package vision

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// classNames maps model class IDs to PPE labels. The "NO-" classes denote a
// person detected without that item.
var classNames = map[int]string{
	0: "Hardhat",
	1: "Mask",
	2: "NO-Hardhat",
	3: "NO-Mask",
	4: "NO-Safety Vest",
	5: "Person",
	6: "Safety Cone",
	7: "Safety Vest",
	8: "machinery",
	9: "vehicle",
}

// DNNDetector runs a PPE detection network over OpenCV's DNN module.
type DNNDetector struct {
	net           gocv.Net
	minConfidence float32
}

// NewDNNDetector loads the network from the model and config paths.
func NewDNNDetector(modelPath, configPath string) (*DNNDetector, error) {
	net := gocv.ReadNet(modelPath, configPath)
	if net.Empty() {
		return nil, fmt.Errorf("load detection model from %s", modelPath)
	}
	return &DNNDetector{net: net, minConfidence: 0.5}, nil
}

// Close releases the network.
func (d *DNNDetector) Close() error {
	return d.net.Close()
}

// Detect decodes the frame, runs one forward pass, collects detections above
// the confidence threshold and returns the frame with labeled boxes drawn on,
// re-encoded as JPEG.
func (d *DNNDetector) Detect(frame []byte) ([]Detection, []byte, error) {
	mat, err := gocv.IMDecode(frame, gocv.IMReadColor)
	if err != nil {
		return nil, nil, fmt.Errorf("decode frame: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, nil, fmt.Errorf("decode frame: empty image")
	}

	blob := gocv.BlobFromImage(mat, 1.0/127.5, image.Pt(300, 300),
		gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()

	imgW := float32(mat.Cols())
	imgH := float32(mat.Rows())

	// Output rows are [batch, class, confidence, left, top, right, bottom]
	// with coordinates normalized to 0..1.
	var detections []Detection
	rows := out.Total() / 7
	for i := 0; i < rows; i++ {
		confidence := out.GetFloatAt(0, i*7+2)
		if confidence < d.minConfidence {
			continue
		}

		classID := int(out.GetFloatAt(0, i*7+1))
		label, known := classNames[classID]
		if !known {
			continue
		}

		left := out.GetFloatAt(0, i*7+3) * imgW
		top := out.GetFloatAt(0, i*7+4) * imgH
		right := out.GetFloatAt(0, i*7+5) * imgW
		bottom := out.GetFloatAt(0, i*7+6) * imgH

		detections = append(detections, Detection{
			Label:      label,
			Confidence: float64(confidence),
			X:          int(left),
			Y:          int(top),
			Width:      int(right - left),
			Height:     int(bottom - top),
		})
	}

	annotated, err := drawDetections(mat, detections)
	if err != nil {
		return nil, nil, err
	}
	return detections, annotated, nil
}

// drawDetections paints labeled boxes onto mat and encodes it as JPEG.
func drawDetections(mat gocv.Mat, detections []Detection) ([]byte, error) {
	green := color.RGBA{G: 255, A: 255}
	red := color.RGBA{R: 255, A: 255}

	for _, det := range detections {
		c := green
		if isAbsenceLabel(det.Label) {
			c = red
		}
		rect := image.Rect(det.X, det.Y, det.X+det.Width, det.Y+det.Height)
		gocv.Rectangle(&mat, rect, c, 2)
		gocv.PutText(&mat, fmt.Sprintf("%s %.0f%%", det.Label, det.Confidence*100),
			image.Pt(det.X, det.Y-6), gocv.FontHersheySimplex, 0.5, c, 1)
	}

	buf, err := gocv.IMEncode(".jpg", mat)
	if err != nil {
		return nil, fmt.Errorf("encode annotated frame: %w", err)
	}
	defer buf.Close()

	annotated := make([]byte, len(buf.GetBytes()))
	copy(annotated, buf.GetBytes())
	return annotated, nil
}

func isAbsenceLabel(label string) bool {
	return len(label) >= 3 && label[:3] == "NO-"
}
