package detector

import (
	"context"
	"image"
	"time"
)

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes an RGB image and returns detected hand landmarks,
	// best hand first. Returns an empty slice if no hands are detected.
	// Implementations give up when ctx ends.
	Detect(ctx context.Context, img image.Image) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 1).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// ScriptPath overrides the location of mediapipe_service.py.
	ScriptPath string

	// PythonPath overrides the interpreter used to run the script.
	PythonPath string

	// IdleTimeout is how long the subprocess may sit unused before it is
	// shut down. Zero disables the idle shutdown.
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:      1,
		MinConfidence: 0.5,
		IdleTimeout:   30 * time.Second,
	}
}
