package main

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"

	"github.com/riverwatch/boatcount/count"
)

type snapshotJob struct {
	img  gocv.Mat
	path string
}

// SnapshotSaver writes a cropped JPEG for each counted crossing on a
// background goroutine so disk latency never touches the frame loop.
type SnapshotSaver struct {
	dir  string
	jobs chan snapshotJob
	done chan struct{}
	log  *slog.Logger
}

// NewSnapshotSaver creates the snapshot directory and starts the writer.
func NewSnapshotSaver(dir string, logger *slog.Logger) (*SnapshotSaver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	s := &SnapshotSaver{
		dir:  dir,
		jobs: make(chan snapshotJob, 16),
		done: make(chan struct{}),
		log:  logger,
	}
	go s.run()
	return s, nil
}

// Capture crops the event's region out of frame and queues it for saving.
// A full queue drops the snapshot; the count itself is already persisted.
func (s *SnapshotSaver) Capture(frame gocv.Mat, ev count.CountEvent) {
	bounds := image.Rect(0, 0, frame.Cols(), frame.Rows())
	region := image.Rect(
		int(ev.Region.X), int(ev.Region.Y),
		int(ev.Region.X+ev.Region.Width), int(ev.Region.Y+ev.Region.Height),
	).Intersect(bounds)
	if region.Empty() {
		return
	}

	crop := frame.Region(region)
	img := crop.Clone()
	crop.Close()

	name := fmt.Sprintf("boat_%d_%s.jpg", ev.TrackID, ev.Timestamp.Format("20060102_150405.000"))
	select {
	case s.jobs <- snapshotJob{img: img, path: filepath.Join(s.dir, name)}:
	default:
		img.Close()
		s.log.Warn("snapshot queue full, dropping snapshot", "track_id", ev.TrackID)
	}
}

func (s *SnapshotSaver) run() {
	defer close(s.done)
	for job := range s.jobs {
		if ok := gocv.IMWrite(job.path, job.img); !ok {
			s.log.Error("snapshot write failed", "path", job.path)
		} else {
			s.log.Debug("snapshot saved", "path", job.path)
		}
		job.img.Close()
	}
}

// Close flushes pending snapshots and stops the writer.
func (s *SnapshotSaver) Close() {
	close(s.jobs)
	<-s.done
}
