package main

import (
	"image"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/riverwatch/boatcount/mot"
)

// Detector runs YOLO inference through the OpenCV DNN backend and turns
// network output into mot.Detection records, filtered to the configured
// class and confidence threshold per the tracker's input contract.
type Detector struct {
	net        gocv.Net
	classNames []string
	inputSize  int
	confThresh float64
	class      string
}

// NewDetector loads the network and class names.
func NewDetector(cfg AppConfig) (*Detector, error) {
	net := gocv.ReadNet(cfg.ModelWeights, cfg.ModelConfig)
	if net.Empty() {
		return nil, errors.Errorf("Can't load network from %s and %s", cfg.ModelWeights, cfg.ModelConfig)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	namesBytes, err := os.ReadFile(cfg.ClassNames)
	if err != nil {
		net.Close()
		return nil, errors.Wrapf(err, "Can't read class names %s", cfg.ClassNames)
	}

	return &Detector{
		net:        net,
		classNames: strings.Split(strings.TrimSpace(string(namesBytes)), "\n"),
		inputSize:  cfg.InputSize,
		confThresh: cfg.ConfThreshold,
		class:      cfg.ClassFilter,
	}, nil
}

// Detect runs one frame through the network.
func (d *Detector) Detect(frame gocv.Mat) []mot.Detection {
	blob := gocv.BlobFromImage(frame, 1.0/255.0,
		image.Pt(d.inputSize, d.inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	frameW := float64(frame.Cols())
	frameH := float64(frame.Rows())

	var detections []mot.Detection
	for i := 0; i < output.Rows(); i++ {
		row := output.RowRange(i, i+1)
		data := row.Clone()
		scores := data.ColRange(5, data.Cols())
		_, maxVal, _, maxLoc := gocv.MinMaxLoc(scores)
		classID := maxLoc.X
		confidence := float64(maxVal)

		if confidence >= d.confThresh && classID < len(d.classNames) &&
			d.classNames[classID] == d.class {
			// Normalized (cx, cy, w, h) in YOLO row layout.
			cx := float64(data.GetFloatAt(0, 0)) * frameW
			cy := float64(data.GetFloatAt(0, 1)) * frameH
			w := float64(data.GetFloatAt(0, 2)) * frameW
			h := float64(data.GetFloatAt(0, 3)) * frameH

			detections = append(detections, mot.NewDetection(
				cx-w/2.0, cy-h/2.0, cx+w/2.0, cy+h/2.0,
				confidence, d.class,
			))
		}

		scores.Close()
		data.Close()
		row.Close()
	}
	return detections
}

// Close releases the network.
func (d *Detector) Close() error {
	return d.net.Close()
}
