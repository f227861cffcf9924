package main

import (
	"log/slog"
	"math"
	"time"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

const (
	maxCameraRetry    = 5
	retryBackoffSec   = 2.0
	nightSleepMaximum = 5 * time.Minute
)

// Camera wraps video capture with the retry/backoff behaviour the field
// deployment needs: transient V4L2 failures are common right after the
// night sleep releases and reopens the device.
type Camera struct {
	source string
	cap    *gocv.VideoCapture
	log    *slog.Logger
}

// OpenCamera opens the source, retrying with exponential backoff.
func OpenCamera(cfg AppConfig, logger *slog.Logger) (*Camera, error) {
	cam := &Camera{source: cfg.VideoSource, log: logger}
	var lastErr error
	for retry := 1; retry <= maxCameraRetry; retry++ {
		cap, err := gocv.OpenVideoCapture(cfg.VideoSource)
		if err == nil {
			cap.Set(gocv.VideoCaptureFrameWidth, float64(cfg.FrameWidth))
			cap.Set(gocv.VideoCaptureFrameHeight, float64(cfg.FrameHeight))
			cam.cap = cap
			logger.Info("camera started", "source", cfg.VideoSource)
			return cam, nil
		}
		lastErr = err
		logger.Error("camera open failed",
			"attempt", retry, "max", maxCameraRetry, "error", err)
		time.Sleep(time.Duration(math.Pow(retryBackoffSec, float64(retry))) * time.Second)
	}
	return nil, errors.Wrap(lastErr, "Can't open camera after retries")
}

// Read grabs the next frame into img and reports success.
func (c *Camera) Read(img *gocv.Mat) bool {
	return c.cap.Read(img)
}

// Close releases the capture device. It is safe on a nil receiver so the
// shutdown path can call it even after a failed reopen.
func (c *Camera) Close() {
	if c == nil {
		return
	}
	if c.cap != nil {
		c.cap.Close()
		c.cap = nil
	}
}
