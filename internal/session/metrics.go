package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Frame results.
const (
	resultDrawn   = "drawn"
	resultEmpty   = "empty"
	resultHidden  = "hidden"
	resultSkipped = "skipped"
	resultError   = "error"
)

var (
	FramesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bodyway_frames_total",
		Help: "Total number of frames processed, by result",
	}, []string{"result"})

	FrameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bodyway_frame_processing_seconds",
		Help:    "Duration of detection and skeleton building for one frame",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})

	MissingLandmarksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bodyway_missing_landmarks_total",
		Help: "Poses skipped because a required landmark was missing, by landmark",
	}, []string{"landmark"})

	Subscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bodyway_overlay_subscribers",
		Help: "Number of active overlay subscribers",
	})
)

// frameResult classifies a processed overlay for FramesTotal.
func frameResult(ov Overlay) string {
	switch {
	case !ov.Visible:
		return resultHidden
	case len(ov.Skeletons) > 0:
		return resultDrawn
	case ov.Skipped > 0:
		return resultSkipped
	default:
		return resultEmpty
	}
}
