package mot

import (
	"testing"
)

func det(x, y float64) Detection {
	return Detection{Box: NewRect(x, y, 40, 40), Score: 0.9, Label: "boat"}
}

func TestTrackerConfirmsAfterMinHits(t *testing.T) {
	tracker := NewTracker(Config{IoUThreshold: 0.3, MinHits: 3, MaxAge: 15})

	// Frame 1: spawn.
	tracks := tracker.Step([]Detection{det(100, 100)})
	if len(tracks) != 1 {
		t.Fatalf("expected one track, got %d", len(tracks))
	}
	if tracks[0].State != TrackTentative {
		t.Errorf("track should be tentative after creation, got %s", tracks[0].State)
	}

	// Frame 2: still tentative (streak 2 < 3).
	tracks = tracker.Step([]Detection{det(105, 100)})
	if tracks[0].State != TrackTentative {
		t.Errorf("track should be tentative after 2 hits, got %s", tracks[0].State)
	}

	// Frame 3: streak reaches MinHits.
	tracks = tracker.Step([]Detection{det(110, 100)})
	if tracks[0].State != TrackConfirmed {
		t.Errorf("track should be confirmed after 3 hits, got %s", tracks[0].State)
	}
}

func TestTrackerGapResetsStreak(t *testing.T) {
	tracker := NewTracker(Config{IoUThreshold: 0.3, MinHits: 3, MaxAge: 15})

	tracker.Step([]Detection{det(100, 100)})
	tracker.Step([]Detection{det(105, 100)})
	// Gap: the 2-frame streak dies here.
	tracker.Step(nil)
	tracker.Step([]Detection{det(110, 100)})
	tracks := tracker.Step([]Detection{det(115, 100)})

	if len(tracks) != 1 {
		t.Fatalf("expected one track, got %d", len(tracks))
	}
	if tracks[0].State != TrackTentative {
		t.Errorf("interrupted streak must not confirm, got %s", tracks[0].State)
	}

	// Two more consecutive hits complete a fresh streak of three.
	tracker.Step([]Detection{det(120, 100)})
	tracks = tracker.Step([]Detection{det(125, 100)})
	if tracks[0].State != TrackConfirmed {
		t.Errorf("fresh streak should confirm, got %s", tracks[0].State)
	}
}

func TestTrackerDeletesAfterMaxAge(t *testing.T) {
	tracker := NewTracker(Config{IoUThreshold: 0.3, MinHits: 1, MaxAge: 3})

	tracks := tracker.Step([]Detection{det(100, 100)})
	firstID := tracks[0].ID

	// MaxAge misses keep the track coasting; one more deletes it.
	for i := 0; i < 3; i++ {
		tracks = tracker.Step(nil)
		if len(tracks) != 1 {
			t.Fatalf("track deleted too early at miss %d", i+1)
		}
	}
	tracks = tracker.Step(nil)
	if len(tracks) != 0 {
		t.Fatalf("track should be deleted once TimeSinceUpdate exceeds MaxAge")
	}

	// A near-identical detection spawns a fresh identity, never revives
	// the deleted one.
	tracks = tracker.Step([]Detection{det(100, 100)})
	if len(tracks) != 1 {
		t.Fatalf("expected one new track, got %d", len(tracks))
	}
	if tracks[0].ID <= firstID {
		t.Errorf("deleted ID reused: old %d, new %d", firstID, tracks[0].ID)
	}
}

func TestTrackerIDsStrictlyIncreasing(t *testing.T) {
	tracker := NewTracker(Config{IoUThreshold: 0.3, MinHits: 1, MaxAge: 1})

	var lastID int64
	for i := 0; i < 5; i++ {
		// Far-apart detections so nothing ever matches across frames.
		tracks := tracker.Step([]Detection{det(float64(i)*500.0, 100)})
		for _, track := range tracks {
			if track.ID > lastID {
				lastID = track.ID
			}
		}
	}
	if lastID < 5 {
		t.Errorf("expected at least 5 distinct IDs, highest was %d", lastID)
	}

	seen := make(map[int64]struct{})
	for _, track := range tracker.ActiveTracks() {
		if _, dup := seen[track.ID]; dup {
			t.Errorf("duplicate ID %d", track.ID)
		}
		seen[track.ID] = struct{}{}
	}
}

func TestTrackerSkipsMalformedDetections(t *testing.T) {
	tracker := NewTracker(DefaultConfig())

	bad := Detection{Box: NewRect(10, 10, 0, 40)}
	negative := Detection{Box: NewRect(10, 10, 40, -5)}
	tracks := tracker.Step([]Detection{bad, det(100, 100), negative})

	if len(tracks) != 1 {
		t.Fatalf("only the valid detection should spawn a track, got %d", len(tracks))
	}
	if tracker.SkippedLastStep() != 2 {
		t.Errorf("expected 2 skipped detections, got %d", tracker.SkippedLastStep())
	}
}

func TestTrackerKeepsIdentitiesWhenPathsCross(t *testing.T) {
	tracker := NewTracker(Config{IoUThreshold: 0.1, MinHits: 2, MaxAge: 15})

	// Two objects approach, pass and separate. Vertical offset keeps the
	// detections distinct while their horizontal order swaps.
	labelOf := make(map[int64]string)
	for frame := 0; frame < 30; frame++ {
		left := Detection{Box: NewRect(float64(frame)*10.0, 0, 40, 40), Score: 0.9, Label: "eastbound"}
		right := Detection{Box: NewRect(300-float64(frame)*10.0, 20, 40, 40), Score: 0.9, Label: "westbound"}
		tracks := tracker.Step([]Detection{left, right})

		for _, track := range tracks {
			if prev, ok := labelOf[track.ID]; ok && prev != track.Label {
				t.Fatalf("frame %d: track %d switched identity from %s to %s",
					frame, track.ID, prev, track.Label)
			}
			labelOf[track.ID] = track.Label
		}
	}
	if len(labelOf) != 2 {
		t.Errorf("expected exactly 2 identities across the pass, got %d", len(labelOf))
	}
}

func TestTrackerFrameSequence(t *testing.T) {
	// Frame-by-frame sequence with one object entering later and one
	// disappearing; mirrors a short clip's worth of detections.
	frames := [][]Detection{
		{det(378, 147)},
		{det(374, 147)},
		{det(375, 154)},
		{det(376, 162), det(70, 14)},
		{det(375, 166), det(67, 23)},
		{det(375, 177), det(73, 18)},
		{det(370, 185), det(67, 16)},
		{det(363, 209)},
		{det(364, 214)},
		{det(365, 218)},
	}

	tracker := NewTracker(Config{IoUThreshold: 0.15, MinHits: 3, MaxAge: 15})
	var tracks []TrackSnapshot
	for _, frame := range frames {
		tracks = tracker.Step(frame)
	}

	if len(tracks) != 2 {
		t.Fatalf("expected 2 live tracks at the end, got %d", len(tracks))
	}
	// The first object was matched every frame, the second coasts within
	// MaxAge and stays alive.
	if tracks[0].State != TrackConfirmed {
		t.Errorf("continuously matched track should be confirmed, got %s", tracks[0].State)
	}
}
