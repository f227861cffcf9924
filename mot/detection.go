package mot

// Detection is a single-frame observation from the external detector.
// Detections are ephemeral: the tracker copies what it needs and never
// holds a reference past the step that consumed them.
type Detection struct {
	// Box is the detected bounding box in frame coordinates.
	Box Rectangle
	// Score is the detector confidence. The input contract says detections
	// arrive already filtered by confidence, so the tracker itself does not
	// threshold on it; it is carried for logging and overlays.
	Score float64
	// Label is the detector class label (e.g. "boat").
	Label string
}

// NewDetection creates a Detection from (x1,y1,x2,y2) corner coordinates.
func NewDetection(x1, y1, x2, y2, score float64, label string) Detection {
	return Detection{
		Box:   NewRectFromCorners(x1, y1, x2, y2),
		Score: score,
		Label: label,
	}
}

// Valid reports whether the detection box has positive extent. Boxes with
// non-positive width or height never enter association; the caller should
// treat them as a data-quality event, not a failure.
func (d Detection) Valid() bool {
	return d.Box.Width > 0 && d.Box.Height > 0
}
