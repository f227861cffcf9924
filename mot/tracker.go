package mot

import (
	"log/slog"
	"sort"
)

// Config holds the tracker's construction-time parameters. They are fixed
// for the lifetime of a Tracker instance.
type Config struct {
	// IoUThreshold is the minimum IoU for a track/detection pair to be a
	// feasible match. Default 0.3.
	IoUThreshold float64
	// MinHits is the number of consecutive matched updates (counting the
	// spawning detection) before a track is confirmed. Default 3.
	MinHits int
	// MaxAge is the number of frames a track may go unmatched before it is
	// deleted. Default 15.
	MaxAge int
	// Dt is the motion-model time step in frame units. Default 1.0.
	Dt float64
	// Logger receives data-quality and recovery events. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the tracker defaults used by the boat counter.
func DefaultConfig() Config {
	return Config{
		IoUThreshold: 0.3,
		MinHits:      3,
		MaxAge:       15,
		Dt:           1.0,
	}
}

func (cfg Config) withDefaults() Config {
	if cfg.IoUThreshold <= 0 {
		cfg.IoUThreshold = 0.3
	}
	if cfg.MinHits <= 0 {
		cfg.MinHits = 3
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 15
	}
	if cfg.Dt <= 0 {
		cfg.Dt = 1.0
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return cfg
}

// Tracker owns the set of live tracks and drives the per-frame
// predict → associate → update → spawn → prune cycle. It is not safe for
// concurrent use; the pipeline is frame-sequential by design.
type Tracker struct {
	cfg Config
	// Track arena keyed by stable ID. Iteration order is never a
	// correctness dependency; ordered views are built on demand.
	tracks map[int64]*Track
	// nextID is owned by this instance and only ever increments.
	nextID  int64
	skipped int
	log     *slog.Logger
}

// NewTracker creates a Tracker with the given configuration.
func NewTracker(cfg Config) *Tracker {
	cfg = cfg.withDefaults()
	return &Tracker{
		cfg:    cfg,
		tracks: make(map[int64]*Track),
		log:    cfg.Logger,
	}
}

// Step consumes one frame's detections and returns the currently active
// tracks. An empty detection list is the normal no-observation path: every
// track coasts and ages. Detections with non-positive extent are skipped
// before association and reported through SkippedLastStep.
func (t *Tracker) Step(detections []Detection) []TrackSnapshot {
	valid := detections[:0:0]
	for _, det := range detections {
		if !det.Valid() {
			continue
		}
		valid = append(valid, det)
	}
	if skipped := len(detections) - len(valid); skipped > 0 {
		t.skipped = skipped
		t.log.Warn("skipped malformed detections", "count", skipped)
	} else {
		t.skipped = 0
	}

	// 1. Predict all existing tracks forward, in stable ID order.
	ids := t.sortedIDs()
	predicted := make([]Rectangle, len(ids))
	for i, id := range ids {
		predicted[i] = t.tracks[id].predict()
	}

	detected := make([]Rectangle, len(valid))
	for i, det := range valid {
		detected[i] = det.Box
	}

	// 2. Associate predictions to detections.
	assoc := associateDetectionsToTracks(predicted, detected, t.cfg.IoUThreshold)

	// 3. Update matched tracks; confirm once the streak is long enough.
	for _, m := range assoc.matches {
		track := t.tracks[ids[m[0]]]
		if track.update(valid[m[1]]) {
			t.log.Warn("estimator reseeded from measurement", "track_id", track.ID)
		}
		if track.State == TrackTentative && track.HitStreak >= t.cfg.MinHits {
			track.State = TrackConfirmed
		}
	}

	// 4. Spawn tentative tracks for unmatched detections.
	for _, detIdx := range assoc.unmatchedDetections {
		t.nextID++
		track := newTrack(t.nextID, valid[detIdx], t.cfg.Dt)
		if t.cfg.MinHits <= 1 {
			track.State = TrackConfirmed
		}
		t.tracks[track.ID] = track
	}

	// 5. Unmatched tracks coast; a gap clears the streak, and a track gone
	// longer than MaxAge is deleted for good. Deleted IDs are never revived:
	// an object reappearing later gets a fresh identity.
	for _, trackIdx := range assoc.unmatchedTracks {
		track := t.tracks[ids[trackIdx]]
		track.HitStreak = 0
		if track.TimeSinceUpdate > t.cfg.MaxAge {
			delete(t.tracks, track.ID)
		}
	}

	return t.ActiveTracks()
}

// ActiveTracks returns snapshots of all live tracks in ascending ID order.
func (t *Tracker) ActiveTracks() []TrackSnapshot {
	ids := t.sortedIDs()
	out := make([]TrackSnapshot, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.tracks[id].snapshot())
	}
	return out
}

// SkippedLastStep reports how many malformed detections the previous Step
// rejected, so the caller can surface a data-quality event.
func (t *Tracker) SkippedLastStep() int {
	return t.skipped
}

// Len returns the number of live tracks.
func (t *Tracker) Len() int {
	return len(t.tracks)
}

func (t *Tracker) sortedIDs() []int64 {
	ids := make([]int64, 0, len(t.tracks))
	for id := range t.tracks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
