package count

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverwatch/boatcount/mot"
)

func boatAt(cx, cy float64) mot.Detection {
	return mot.Detection{Box: mot.NewRect(cx-20, cy-20, 40, 40), Score: 0.9, Label: "boat"}
}

func testEngine(cooldown time.Duration, maxAge int) *Engine {
	return NewEngine(Config{
		Tracker: mot.Config{
			IoUThreshold: 0.3,
			MinHits:      3,
			MaxAge:       maxAge,
		},
		Line:     VerticalLineAt(0.5, 640, 360),
		Cooldown: cooldown,
	})
}

// A single object moving steadily left to right across the line yields
// exactly one event, direction A.
func TestSteadyPassCountsOnce(t *testing.T) {
	engine := testEngine(5*time.Second, 15)
	start := time.Unix(1000, 0)

	var events []CountEvent
	for frame := 0; frame < 50; frame++ {
		now := start.Add(time.Duration(frame) * 100 * time.Millisecond)
		cx := 105.0 + float64(frame)*10.0
		result := engine.Process(now, []mot.Detection{boatAt(cx, 180)})
		events = append(events, result.Events...)
	}

	require.Len(t, events, 1)
	assert.Equal(t, DirectionA, events[0].Direction)
	a, b := engine.Totals()
	assert.Equal(t, int64(1), a)
	assert.Equal(t, int64(0), b)
}

// A detection that appears only one frame in three never confirms with
// MinHits=3, so apparent crossings produce nothing.
func TestFlickeringDetectionNeverCounts(t *testing.T) {
	engine := testEngine(time.Second, 15)
	start := time.Unix(1000, 0)

	total := 0
	for frame := 0; frame < 60; frame++ {
		now := start.Add(time.Duration(frame) * 100 * time.Millisecond)
		var dets []mot.Detection
		if frame%3 == 0 {
			cx := 105.0 + float64(frame)*10.0
			dets = append(dets, boatAt(cx, 180))
		}
		result := engine.Process(now, dets)
		total += len(result.Events)
	}

	assert.Zero(t, total, "tentative tracks must never generate counts")
}

// An object occluded longer than MaxAge loses its identity; when it
// reappears and crosses again it counts as a new, independent pass.
func TestOcclusionYieldsNewIdentity(t *testing.T) {
	engine := testEngine(time.Second, 5)
	start := time.Unix(1000, 0)
	frame := 0

	step := func(dets []mot.Detection) []CountEvent {
		now := start.Add(time.Duration(frame) * time.Second)
		frame++
		return engine.Process(now, dets).Events
	}

	var events []CountEvent
	// First pass: left to right across x=320.
	for i := 0; i < 30; i++ {
		events = append(events, step([]mot.Detection{boatAt(105+float64(i)*10.0, 180)})...)
	}
	require.Len(t, events, 1)
	firstID := events[0].TrackID

	// Occlusion well past MaxAge deletes the track.
	for i := 0; i < 10; i++ {
		step(nil)
	}

	// Same physical object re-enters on the left and passes again.
	for i := 0; i < 30; i++ {
		events = append(events, step([]mot.Detection{boatAt(105+float64(i)*10.0, 180)})...)
	}

	require.Len(t, events, 2)
	assert.Greater(t, events[1].TrackID, firstID, "reappearance must get a fresh ID")
	a, _ := engine.Totals()
	assert.Equal(t, int64(2), a)
}

func TestEventsDeliveredToStream(t *testing.T) {
	engine := testEngine(time.Second, 15)
	start := time.Unix(1000, 0)

	for frame := 0; frame < 40; frame++ {
		now := start.Add(time.Duration(frame) * 100 * time.Millisecond)
		engine.Process(now, []mot.Detection{boatAt(105+float64(frame)*10.0, 180)})
	}
	engine.Close()

	var received []CountEvent
	for ev := range engine.Events() {
		received = append(received, ev)
	}
	require.Len(t, received, 1)
	assert.Equal(t, DirectionA, received[0].Direction)
}

type recordingNotifier struct {
	events []CountEvent
}

func (r *recordingNotifier) CountCaptured(ev CountEvent) {
	r.events = append(r.events, ev)
}

func TestSnapshotNotifierInvoked(t *testing.T) {
	notifier := &recordingNotifier{}
	engine := NewEngine(Config{
		Tracker:   mot.Config{IoUThreshold: 0.3, MinHits: 3, MaxAge: 15},
		Line:      VerticalLineAt(0.5, 640, 360),
		Cooldown:  time.Second,
		Snapshots: notifier,
	})
	start := time.Unix(1000, 0)

	for frame := 0; frame < 40; frame++ {
		now := start.Add(time.Duration(frame) * 100 * time.Millisecond)
		engine.Process(now, []mot.Detection{boatAt(105+float64(frame)*10.0, 180)})
	}

	require.Len(t, notifier.events, 1)
	assert.Positive(t, notifier.events[0].Region.Width)
}

func TestMalformedDetectionsReported(t *testing.T) {
	engine := testEngine(time.Second, 15)
	result := engine.Process(time.Unix(1000, 0), []mot.Detection{
		{Box: mot.NewRect(10, 10, -4, 20)},
		boatAt(100, 100),
	})
	assert.Equal(t, 1, result.SkippedDetections)
	assert.Len(t, result.Tracks, 1)
}

func TestClosedEngineRejectsFrames(t *testing.T) {
	engine := testEngine(time.Second, 15)
	engine.Close()
	result := engine.Process(time.Unix(1000, 0), []mot.Detection{boatAt(100, 100)})
	assert.Empty(t, result.Tracks)
	// Closing twice is harmless.
	engine.Close()
}
