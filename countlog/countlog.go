// Package countlog persists count events to a local SQLite database. It
// is the background persistence collaborator: it consumes the engine's
// event stream and never pushes failures back into the frame loop.
package countlog

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/riverwatch/boatcount/count"
)

// timeLayout is fixed-width (nanoseconds never trimmed) and always UTC,
// so the string ordering of counted_at matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Log writes count events to SQLite.
type Log struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string, logger *slog.Logger) (*Log, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "Can't open count database")
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS count_events (
			event_id     TEXT PRIMARY KEY,
			track_id     BIGINT,
			direction    TEXT,
			position_x   DOUBLE,
			position_y   DOUBLE,
			total_a      BIGINT,
			total_b      BIGINT,
			counted_at   TIMESTAMP
		);
	`)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "Can't create count_events table")
	}
	return &Log{db: db, log: logger}, nil
}

// Record inserts a single event.
func (l *Log) Record(ev count.CountEvent) error {
	_, err := l.db.Exec(`
		INSERT INTO count_events
			(event_id, track_id, direction, position_x, position_y, total_a, total_b, counted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID.String(),
		ev.TrackID,
		ev.Direction.String(),
		ev.Position.X,
		ev.Position.Y,
		ev.TotalA,
		ev.TotalB,
		ev.Timestamp.UTC().Format(timeLayout),
	)
	return errors.Wrapf(err, "Can't record count event %s", ev.ID.String())
}

// Run consumes the event stream until it closes or the context is
// cancelled. Insert failures are logged and skipped; the stream keeps
// flowing.
func (l *Log) Run(ctx context.Context, events <-chan count.CountEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := l.Record(ev); err != nil {
				l.log.Error("count event not persisted", "error", err)
			}
		}
	}
}

// RecordedEvent is a persisted event row.
type RecordedEvent struct {
	EventID   uuid.UUID
	TrackID   int64
	Direction string
	PositionX float64
	PositionY float64
	TotalA    int64
	TotalB    int64
	CountedAt time.Time
}

// Recent returns up to limit events, newest first.
func (l *Log) Recent(limit int) ([]RecordedEvent, error) {
	rows, err := l.db.Query(`
		SELECT event_id, track_id, direction, position_x, position_y, total_a, total_b, counted_at
		FROM count_events
		ORDER BY counted_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "Can't query count events")
	}
	defer rows.Close()

	var out []RecordedEvent
	for rows.Next() {
		var rec RecordedEvent
		var id, countedAt string
		if err := rows.Scan(&id, &rec.TrackID, &rec.Direction,
			&rec.PositionX, &rec.PositionY, &rec.TotalA, &rec.TotalB, &countedAt); err != nil {
			return nil, errors.Wrap(err, "Can't scan count event row")
		}
		rec.EventID, err = uuid.Parse(id)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't parse event id %s", id)
		}
		rec.CountedAt, err = time.Parse(timeLayout, countedAt)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't parse event timestamp %s", countedAt)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}
