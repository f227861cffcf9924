package count

import (
	"log/slog"
	"time"

	"github.com/riverwatch/boatcount/mot"
)

// SnapshotNotifier receives the frame region of each emitted event so a
// collaborator can capture an image. Implementations must return quickly;
// the engine calls them on the frame loop.
type SnapshotNotifier interface {
	CountCaptured(ev CountEvent)
}

// Config holds the engine's construction-time parameters.
type Config struct {
	Tracker mot.Config
	Line    Line
	// Cooldown is the minimum interval between two counted crossings of
	// the same track identity. Default 5s, the original counter's per-ID
	// throttle.
	Cooldown time.Duration
	// EventBuffer sizes the outbound event queue. Default 64.
	EventBuffer int
	// Snapshots, when set, is notified of every emitted event.
	Snapshots SnapshotNotifier
	Logger    *slog.Logger
}

// Result is what one processed frame yields.
type Result struct {
	// Tracks are the currently active tracks, for overlay rendering.
	Tracks []mot.TrackSnapshot
	// Events are the count events this frame emitted.
	Events []CountEvent
	// SkippedDetections counts malformed detections rejected before
	// association — a data-quality signal, not an error.
	SkippedDetections int
}

// Engine is the frame-sequential counting pipeline: tracker step, crossing
// evaluation, cooldown-gated counting, then fire-and-forget hand-off to
// collaborators. One frame must finish before the next is accepted; the
// engine itself never blocks on I/O.
type Engine struct {
	tracker   *mot.Tracker
	counter   *LineCounter
	events    chan CountEvent
	snapshots SnapshotNotifier
	closed    bool
	log       *slog.Logger
}

// NewEngine builds an engine from the given configuration.
func NewEngine(cfg Config) *Engine {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 5 * time.Second
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 64
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Tracker.Logger == nil {
		cfg.Tracker.Logger = cfg.Logger
	}
	return &Engine{
		tracker:   mot.NewTracker(cfg.Tracker),
		counter:   NewLineCounter(cfg.Line, cfg.Cooldown, cfg.Logger),
		events:    make(chan CountEvent, cfg.EventBuffer),
		snapshots: cfg.Snapshots,
		log:       cfg.Logger,
	}
}

// Process runs one frame through the pipeline. The timestamp comes from
// the caller — the engine has no notion of real time of its own. After
// Close, Process is a no-op returning an empty result.
func (e *Engine) Process(now time.Time, detections []mot.Detection) Result {
	if e.closed {
		return Result{}
	}

	tracks := e.tracker.Step(detections)
	events := e.counter.Observe(now, tracks)

	for _, ev := range events {
		e.dispatch(ev)
	}

	return Result{
		Tracks:            tracks,
		Events:            events,
		SkippedDetections: e.tracker.SkippedLastStep(),
	}
}

// dispatch hands an event to the collaborators without ever blocking the
// frame loop. A full queue drops the event; retries and backoff are the
// consumer's concern, not the core's.
func (e *Engine) dispatch(ev CountEvent) {
	select {
	case e.events <- ev:
	default:
		e.log.Warn("event queue full, dropping count event",
			"track_id", ev.TrackID, "event_id", ev.ID.String())
	}
	if e.snapshots != nil {
		e.snapshots.CountCaptured(ev)
	}
}

// Events exposes the outbound event stream for background consumers.
func (e *Engine) Events() <-chan CountEvent {
	return e.events
}

// Totals returns the running totals per direction.
func (e *Engine) Totals() (a, b int64) {
	return e.counter.Totals()
}

// Close stops intake and closes the event stream. Shutdown is
// cooperative: the caller finishes its in-flight frame before calling
// Close, and consumers drain the channel until it is closed.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	close(e.events)
}
