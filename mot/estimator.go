package mot

import (
	kalman_filter "github.com/LdDl/kalman-filter"
)

// boxFilter is the slice of the Kalman filter API the estimator drives.
// The estimator only ever talks to the filter through it, so the recovery
// path stays reachable from tests with a misbehaving filter.
type boxFilter interface {
	Predict()
	Update(cx, cy, w, h float64) error
	GetState() (float64, float64, float64, float64)
	GetVelocity() (float64, float64, float64, float64)
}

// kalmanBoxFilter adapts kalman_filter.KalmanBBox to boxFilter.
type kalmanBoxFilter struct {
	kf *kalman_filter.KalmanBBox
}

func (f *kalmanBoxFilter) Predict() {
	f.kf.Predict()
}

func (f *kalmanBoxFilter) Update(cx, cy, w, h float64) error {
	return f.kf.Update(cx, cy, w, h)
}

func (f *kalmanBoxFilter) GetState() (float64, float64, float64, float64) {
	return f.kf.GetState()
}

func (f *kalmanBoxFilter) GetVelocity() (float64, float64, float64, float64) {
	return f.kf.GetVelocity()
}

// BoxEstimator is a per-track constant-velocity motion model over the full
// bounding box. State vector: [cx, cy, w, h, vcx, vcy, vw, vh].
// Each estimator is owned by exactly one track and dies with it.
type BoxEstimator struct {
	dt  float64
	box Rectangle
	kf  boxFilter
}

// newBoxFilter builds the underlying Kalman filter seeded at the given box.
func newBoxFilter(box Rectangle, dt float64) boxFilter {
	center := box.Center()

	/* Kalman filter props */
	uCx := 1.0
	uCy := 1.0
	uW := 0.0
	uH := 0.0
	stdDevA := 2.0
	stdDevMCx := 0.1
	stdDevMCy := 0.1
	stdDevMW := 0.1
	stdDevMH := 0.1
	return &kalmanBoxFilter{kf: kalman_filter.NewKalmanBBox(
		dt, uCx, uCy, uW, uH,
		stdDevA, stdDevMCx, stdDevMCy, stdDevMW, stdDevMH,
		kalman_filter.WithStateBBox(center.X, center.Y, box.Width, box.Height),
	)}
}

// NewBoxEstimator creates an estimator seeded from the first measurement.
func NewBoxEstimator(seed Rectangle, dt float64) *BoxEstimator {
	return &BoxEstimator{
		dt:  dt,
		box: seed,
		kf:  newBoxFilter(seed, dt),
	}
}

// Predict advances the state one frame under the motion model and returns
// the predicted bounding box. It has no failure mode.
func (e *BoxEstimator) Predict() Rectangle {
	e.kf.Predict()
	e.box = e.stateBox()
	return e.box
}

// Update runs the Kalman correction step against the measured box.
// If the filter reports a numerically degenerate covariance (singular
// innovation matrix), the estimator reseeds itself directly from the
// measurement instead of propagating corrupted state. The returned flag
// reports whether that recovery happened; Update itself never fails.
func (e *BoxEstimator) Update(measurement Rectangle) bool {
	center := measurement.Center()
	err := e.kf.Update(center.X, center.Y, measurement.Width, measurement.Height)
	if err != nil {
		e.kf = newBoxFilter(measurement, e.dt)
		e.box = measurement
		return true
	}
	e.box = e.stateBox()
	return false
}

// State returns the current best-estimate bounding box.
func (e *BoxEstimator) State() Rectangle {
	return e.box
}

// Velocity returns the current velocity estimates (vcx, vcy, vw, vh).
func (e *BoxEstimator) Velocity() (float64, float64, float64, float64) {
	return e.kf.GetVelocity()
}

func (e *BoxEstimator) stateBox() Rectangle {
	cx, cy, w, h := e.kf.GetState()
	return Rectangle{
		X:      cx - w/2.0,
		Y:      cy - h/2.0,
		Width:  w,
		Height: h,
	}
}
