// Command boatcounter runs the full counting pipeline: camera capture,
// YOLO detection, multi-object tracking and line-crossing counting, with
// counts persisted to SQLite and a snapshot saved per counted crossing.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gocv.io/x/gocv"

	"github.com/riverwatch/boatcount/count"
	"github.com/riverwatch/boatcount/countlog"
	"github.com/riverwatch/boatcount/daylight"
	"github.com/riverwatch/boatcount/mot"
)

func main() {
	configPath := flag.String("config", "boatcounter.json", "path to JSON config")
	display := flag.Bool("display", false, "show preview window")
	flag.Parse()

	cfg, err := LoadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, *display, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if os.Getenv("GO_ENV") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func buildLine(cfg AppConfig) count.Line {
	w := float64(cfg.FrameWidth)
	h := float64(cfg.FrameHeight)
	if cfg.LineOrientation == "horizontal" {
		return count.HorizontalLineAt(cfg.LineRatio, w, h)
	}
	return count.VerticalLineAt(cfg.LineRatio, w, h)
}

func run(cfg AppConfig, display bool, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	detector, err := NewDetector(cfg)
	if err != nil {
		return err
	}
	defer detector.Close()

	eventLog, err := countlog.Open(cfg.DatabasePath, logger)
	if err != nil {
		return err
	}
	defer eventLog.Close()

	saver, err := NewSnapshotSaver(cfg.SnapshotDir, logger)
	if err != nil {
		return err
	}
	defer saver.Close()

	engine := count.NewEngine(count.Config{
		Tracker: mot.Config{
			IoUThreshold: cfg.IoUThreshold,
			MinHits:      cfg.MinHits,
			MaxAge:       cfg.MaxAge,
			Logger:       logger,
		},
		Line:     buildLine(cfg),
		Cooldown: time.Duration(cfg.CooldownSec * float64(time.Second)),
		Logger:   logger,
	})

	logDone := make(chan struct{})
	go func() {
		defer close(logDone)
		eventLog.Run(ctx, engine.Events())
	}()

	gate := daylight.Gate{Lat: cfg.Latitude, Lon: cfg.Longitude}

	cam, err := OpenCamera(cfg, logger)
	if err != nil {
		return err
	}
	// The camera is reopened after each night sleep; close whichever
	// instance is current at exit.
	defer func() { cam.Close() }()

	var window *gocv.Window
	if display {
		window = gocv.NewWindow("Boat Counter")
		defer window.Close()
	}

	frame := gocv.NewMat()
	defer frame.Close()

	line := buildLine(cfg)

	for ctx.Err() == nil {
		now := time.Now()

		// Night sleep: release the camera and wait for dawn in short
		// slices so shutdown stays responsive.
		if !gate.IsDaytime(now) {
			sleep := gate.NextWake(now)
			if sleep > nightSleepMaximum {
				sleep = nightSleepMaximum
			}
			logger.Info("nighttime, sleeping", "duration", sleep)
			cam.Close()
			select {
			case <-ctx.Done():
			case <-time.After(sleep):
			}
			if ctx.Err() != nil {
				break
			}
			cam, err = OpenCamera(cfg, logger)
			if err != nil {
				return err
			}
			continue
		}

		if ok := cam.Read(&frame); !ok || frame.Empty() {
			logger.Warn("frame grab failed, retrying")
			time.Sleep(100 * time.Millisecond)
			continue
		}

		detections := detector.Detect(frame)
		result := engine.Process(now, detections)

		for _, ev := range result.Events {
			saver.Capture(frame, ev)
		}

		if display {
			totalA, totalB := engine.Totals()
			drawOverlay(&frame, line, result.Tracks, totalA, totalB)
			window.IMShow(frame)
			if window.WaitKey(1) == 'q' {
				break
			}
		}
	}

	// Cooperative shutdown: the in-flight frame above has completed; stop
	// intake, then let the persistence worker drain the stream.
	logger.Info("shutting down")
	engine.Close()
	<-logDone
	return nil
}

func drawOverlay(frame *gocv.Mat, line count.Line, tracks []mot.TrackSnapshot, totalA, totalB int64) {
	yellow := color.RGBA{R: 255, G: 255, B: 0, A: 0}
	green := color.RGBA{G: 255, A: 0}

	gocv.Line(frame,
		image.Pt(int(line.A.X), int(line.A.Y)),
		image.Pt(int(line.B.X), int(line.B.Y)),
		yellow, 2)

	for _, track := range tracks {
		if track.State != mot.TrackConfirmed {
			continue
		}
		rect := image.Rect(
			int(track.Box.X), int(track.Box.Y),
			int(track.Box.X+track.Box.Width), int(track.Box.Y+track.Box.Height),
		)
		gocv.Rectangle(frame, rect, green, 2)
		gocv.PutText(frame, fmt.Sprintf("ID %d", track.ID),
			image.Pt(rect.Min.X, rect.Min.Y-5),
			gocv.FontHersheySimplex, 0.5, yellow, 1)
	}

	gocv.PutText(frame, fmt.Sprintf("A: %d  B: %d", totalA, totalB),
		image.Pt(10, 30), gocv.FontHersheySimplex, 1.0, yellow, 2)
}
