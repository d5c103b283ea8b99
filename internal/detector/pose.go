package detector

import (
	"github.com/obitec/bodyway/internal/overlay"
)

// Landmark is a detected body keypoint.
type Landmark struct {
	Position overlay.Point3D `json:"position"`
	// InFrameLikelihood is the detector's confidence that the landmark is inside the frame.
	InFrameLikelihood float64 `json:"likelihood"`
}

// Pose is one detected body.
type Pose struct {
	Landmarks map[overlay.LandmarkType]Landmark `json:"landmarks"`
	Score     float64                           `json:"score"`
}

// Usable returns the positions of landmarks whose likelihood is at least minLikelihood.
// Landmarks below the threshold are left out, so the overlay treats them as missing.
func (p Pose) Usable(minLikelihood float64) overlay.Landmarks {
	out := make(overlay.Landmarks, len(p.Landmarks))
	for t, lm := range p.Landmarks {
		if lm.InFrameLikelihood < minLikelihood {
			continue
		}
		out[t] = lm.Position
	}
	return out
}

// Positions returns all landmark positions regardless of likelihood.
func (p Pose) Positions() overlay.Landmarks {
	return p.Usable(0)
}
