package mot

// TrackState represents the lifecycle state of a track.
type TrackState string

const (
	// TrackTentative is a freshly spawned track that has not yet accrued
	// enough consecutive matches to be trusted.
	TrackTentative TrackState = "tentative"
	// TrackConfirmed is a stable track. Confirmed is sticky: a confirmed
	// track never reverts to tentative, it can only be deleted.
	TrackConfirmed TrackState = "confirmed"
)

// Track is a persistent identity for one physical object. The ID is unique
// for the lifetime of the owning Tracker and is never reused after deletion.
// "Lost" is implicit: a track with TimeSinceUpdate > 0 is coasting on its
// motion model alone.
type Track struct {
	ID    int64
	Label string
	State TrackState
	// Age counts frames since creation.
	Age int
	// HitStreak counts consecutive matched updates; a missed frame clears it.
	HitStreak int
	// TimeSinceUpdate counts frames since the last matched detection.
	TimeSinceUpdate int

	estimator *BoxEstimator
}

func newTrack(id int64, det Detection, dt float64) *Track {
	return &Track{
		ID:        id,
		Label:     det.Label,
		State:     TrackTentative,
		Age:       1,
		HitStreak: 1, // seeding from a detection counts as the first match
		estimator: NewBoxEstimator(det.Box, dt),
	}
}

// predict advances the track one frame and returns the predicted box.
func (t *Track) predict() Rectangle {
	t.Age++
	t.TimeSinceUpdate++
	return t.estimator.Predict()
}

// update corrects the track with a matched detection. It reports whether
// the estimator had to reseed from the measurement.
func (t *Track) update(det Detection) bool {
	reseeded := t.estimator.Update(det.Box)
	t.TimeSinceUpdate = 0
	t.HitStreak++
	if det.Label != "" {
		t.Label = det.Label
	}
	return reseeded
}

// Box returns the current best-estimate bounding box.
func (t *Track) Box() Rectangle {
	return t.estimator.State()
}

// TrackSnapshot is the per-frame view of a track handed to collaborators
// (rendering overlay, line counting). It carries no references into the
// tracker's mutable state.
type TrackSnapshot struct {
	ID    int64
	Box   Rectangle
	State TrackState
	Label string
}

func (t *Track) snapshot() TrackSnapshot {
	return TrackSnapshot{
		ID:    t.ID,
		Box:   t.Box(),
		State: t.State,
		Label: t.Label,
	}
}
