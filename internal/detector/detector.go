// Package detector provides pose detection interfaces and types for the skeleton overlay.
package detector

import "gocv.io/x/gocv"

// Detector defines the interface for body pose detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the detected poses with landmark
	// positions in the frame's pixel coordinates.
	// Returns an empty slice if no body is detected.
	Detect(frame *gocv.Mat) ([]Pose, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for pose detection.
type Config struct {
	// MinLikelihood is the in-frame likelihood (0.0-1.0) below which a landmark
	// is treated as not detected.
	MinLikelihood float64

	// ModelComplexity selects the pose model (0 lite, 1 full, 2 heavy).
	ModelComplexity int

	// IdleTimeoutSec shuts the detector backend down after this many idle seconds.
	IdleTimeoutSec int

	// ResponseTimeoutSec bounds the wait for one frame's result. A service that
	// misses it is killed and restarted on the next frame.
	ResponseTimeoutSec int
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MinLikelihood:      0.5,
		ModelComplexity:    1,
		IdleTimeoutSec:     30,
		ResponseTimeoutSec: 10,
	}
}
