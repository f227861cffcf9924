package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// AppConfig is the flat JSON configuration for the counter binary.
// Everything is fixed at startup; nothing is reloaded mid-run.
type AppConfig struct {
	// VideoSource is a camera index ("0") or a video file path.
	VideoSource string `json:"video_source"`
	FrameWidth  int    `json:"frame_width"`
	FrameHeight int    `json:"frame_height"`

	// Detector settings.
	ModelWeights  string  `json:"model_weights"`
	ModelConfig   string  `json:"model_config"`
	ClassNames    string  `json:"class_names"`
	InputSize     int     `json:"input_size"`
	ConfThreshold float64 `json:"conf_threshold"`
	ClassFilter   string  `json:"class_filter"`

	// Counting line: "vertical" or "horizontal", at ratio of the frame.
	LineOrientation string  `json:"line_orientation"`
	LineRatio       float64 `json:"line_ratio"`

	// Tracker settings.
	IoUThreshold float64 `json:"iou_threshold"`
	MinHits      int     `json:"min_hits"`
	MaxAge       int     `json:"max_age"`

	CooldownSec float64 `json:"cooldown_sec"`

	DatabasePath string `json:"database_path"`
	SnapshotDir  string `json:"snapshot_dir"`

	// Site coordinates for the daylight gate.
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	LogLevel string `json:"log_level"`
}

// DefaultAppConfig mirrors the deployed counter's settings.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		VideoSource:     "0",
		FrameWidth:      640,
		FrameHeight:     360,
		ModelWeights:    "yolov4-tiny.weights",
		ModelConfig:     "yolov4-tiny.cfg",
		ClassNames:      "coco.names",
		InputSize:       416,
		ConfThreshold:   0.35,
		ClassFilter:     "boat",
		LineOrientation: "vertical",
		LineRatio:       0.5,
		IoUThreshold:    0.3,
		MinHits:         3,
		MaxAge:          15,
		CooldownSec:     5,
		DatabasePath:    "counts.db",
		SnapshotDir:     "snapshots",
		Latitude:        38.833,
		Longitude:       -104.821,
		LogLevel:        "info",
	}
}

// LoadAppConfig reads the JSON file at path over the defaults. A missing
// path returns the defaults unchanged.
func LoadAppConfig(path string) (AppConfig, error) {
	cfg := DefaultAppConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrapf(err, "Can't read config %s", path)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "Can't parse config %s", path)
	}
	return cfg, nil
}
