package count

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/riverwatch/boatcount/mot"
)

// Direction is one of the two line-crossing senses.
type Direction uint8

const (
	// DirectionA is a negative→positive side transition.
	DirectionA Direction = iota
	// DirectionB is a positive→negative side transition.
	DirectionB
)

func (d Direction) String() string {
	if d == DirectionA {
		return "A"
	}
	return "B"
}

// CountEvent records one confirmed line crossing. Immutable once emitted.
type CountEvent struct {
	ID        uuid.UUID
	TrackID   int64
	Direction Direction
	Timestamp time.Time
	// Position is the track's box center at the frame the crossing was
	// detected.
	Position mot.Point
	// Region is the track's full box at that frame, for snapshot capture.
	Region mot.Rectangle
	// TotalA and TotalB are the running totals including this event.
	TotalA int64
	TotalB int64
}

// LineCounter combines the crossing evaluator with the cooldown-gated
// counting state machine. Only confirmed tracks are evaluated, so
// transient noise never produces counts. Not safe for concurrent use.
type LineCounter struct {
	line     Line
	cooldown time.Duration

	// lastSide holds each evaluated track's last non-zero side reading.
	lastSide map[int64]int
	// expiry holds per-track cooldown deadlines. Keyed per track ID so two
	// distinct objects crossing in the same instant both count.
	expiry map[int64]time.Time

	totalA int64
	totalB int64
	log    *slog.Logger
}

// NewLineCounter creates a counter for the given line. A zero cooldown
// disables crossing debounce entirely.
func NewLineCounter(line Line, cooldown time.Duration, logger *slog.Logger) *LineCounter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LineCounter{
		line:     line,
		cooldown: cooldown,
		lastSide: make(map[int64]int),
		expiry:   make(map[int64]time.Time),
		log:      logger,
	}
}

// Observe inspects the frame's active tracks and returns the count events
// this frame emits. Side state is refreshed for every confirmed track
// regardless of crossing, so gradual approach and departure are followed
// continuously. State for tracks that no longer exist is discarded.
func (c *LineCounter) Observe(now time.Time, tracks []mot.TrackSnapshot) []CountEvent {
	var events []CountEvent

	alive := make(map[int64]struct{}, len(tracks))
	for _, track := range tracks {
		alive[track.ID] = struct{}{}
		if track.State != mot.TrackConfirmed {
			continue
		}

		side := c.line.Side(track.Box.Center())
		if side == 0 {
			// Exactly on the line: no change yet. Deciding here would
			// double-trigger on boundary jitter.
			continue
		}
		prev, seen := c.lastSide[track.ID]
		c.lastSide[track.ID] = side
		if !seen || prev == side {
			continue
		}

		direction := DirectionA
		if prev > 0 {
			direction = DirectionB
		}
		if ev, ok := c.emit(now, track, direction); ok {
			events = append(events, ev)
		} else {
			c.log.Debug("crossing suppressed by cooldown",
				"track_id", track.ID, "direction", direction.String())
		}
	}

	c.prune(alive)
	return events
}

// emit applies the cooldown gate and, if it passes, produces the event and
// advances the totals.
func (c *LineCounter) emit(now time.Time, track mot.TrackSnapshot, direction Direction) (CountEvent, bool) {
	if deadline, ok := c.expiry[track.ID]; ok && now.Before(deadline) {
		return CountEvent{}, false
	}
	c.expiry[track.ID] = now.Add(c.cooldown)

	if direction == DirectionA {
		c.totalA++
	} else {
		c.totalB++
	}
	ev := CountEvent{
		ID:        uuid.New(),
		TrackID:   track.ID,
		Direction: direction,
		Timestamp: now,
		Position:  track.Box.Center(),
		Region:    track.Box,
		TotalA:    c.totalA,
		TotalB:    c.totalB,
	}
	c.log.Info("count",
		"track_id", ev.TrackID,
		"direction", ev.Direction.String(),
		"total_a", ev.TotalA,
		"total_b", ev.TotalB)
	return ev, true
}

// Totals returns the running totals per direction.
func (c *LineCounter) Totals() (a, b int64) {
	return c.totalA, c.totalB
}

func (c *LineCounter) prune(alive map[int64]struct{}) {
	for id := range c.lastSide {
		if _, ok := alive[id]; !ok {
			delete(c.lastSide, id)
		}
	}
	for id := range c.expiry {
		if _, ok := alive[id]; !ok {
			delete(c.expiry, id)
		}
	}
}
