package overlay

import (
	"fmt"

	"github.com/golang/geo/r2"
)

// AnchorName identifies a synthesized overlay point.
type AnchorName int

// Synthesized anchors.
const (
	BottomNeck AnchorName = iota
	UpperNeck
	Head
	Chest
	TorsoCenter
	LeftHandTip
	RightHandTip
	LeftAnkleMid
	RightAnkleMid
	LeftFootTip
	RightFootTip
	NumAnchors
)

var anchorNames = [NumAnchors]string{
	"bottomNeck",
	"upperNeck",
	"head",
	"chest",
	"torsoCenter",
	"leftHandTip",
	"rightHandTip",
	"leftAnkleMid",
	"rightAnkleMid",
	"leftFootTip",
	"rightFootTip",
}

func (a AnchorName) String() string {
	if a < 0 || a >= NumAnchors {
		return fmt.Sprintf("AnchorName(%d)", int(a))
	}
	return anchorNames[a]
}

// Anchors holds the synthesized points of one frame in view space, indexed by AnchorName.
type Anchors [NumAnchors]r2.Point

// Proportions are the interpolation ratios that give the synthesized skeleton its
// shape. They are tuned by eye and fixed; changing any of them changes every
// rendered overlay.
var Proportions = struct {
	// NeckBase moves from the shoulder midpoint toward the ear midpoint.
	NeckBase float64
	// NeckTop moves from the neck base toward the ear midpoint.
	NeckTop float64
	// Head extrapolates from the neck top past the ear midpoint.
	Head float64
	// TorsoCenter moves from the hip midpoint toward the neck base.
	TorsoCenter float64
	// Chest moves from the hip midpoint toward the neck base.
	Chest float64
	// HandReach extends the wrist-to-finger offset beyond the finger midpoint.
	HandReach float64
}{
	NeckBase:    0.2,
	NeckTop:     0.5,
	Head:        2.2,
	TorsoCenter: 0.25,
	Chest:       0.62,
	HandReach:   1,
}

// synthesisLandmarks lists what Synthesize reads, in the order missing landmarks are reported.
var synthesisLandmarks = []LandmarkType{
	LeftShoulder, RightShoulder,
	LeftEar, RightEar,
	LeftHip, RightHip,
	LeftWrist, RightWrist,
	LeftIndexFinger, LeftPinkyFinger,
	RightIndexFinger, RightPinkyFinger,
	LeftAnkle, RightAnkle,
	LeftHeel, RightHeel,
	LeftToe, RightToe,
	Nose,
}

// SynthesisLandmarks returns the landmarks Synthesize requires.
func SynthesisLandmarks() []LandmarkType {
	out := make([]LandmarkType, len(synthesisLandmarks))
	copy(out, synthesisLandmarks)
	return out
}

func midpoint(a, b r2.Point) r2.Point {
	return r2.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// lerp moves from a toward b by ratio; ratios above 1 extrapolate past b.
func lerp(a, b r2.Point, ratio float64) r2.Point {
	return a.Add(b.Sub(a).Mul(ratio))
}

// Synthesize derives the overlay anchors from one frame's landmarks. Every landmark
// is transformed to view space before it is combined with others.
//
// It returns a *MissingLandmarkError when any landmark it needs is absent; the caller
// should then draw nothing for the frame.
func Synthesize(landmarks Landmarks, t Transform) (Anchors, error) {
	var anchors Anchors
	if missing, ok := landmarks.Missing(synthesisLandmarks); ok {
		return anchors, &MissingLandmarkError{Landmark: missing}
	}

	at := func(lt LandmarkType) r2.Point {
		return t(landmarks[lt])
	}

	shoulderMid := midpoint(at(LeftShoulder), at(RightShoulder))
	earMid := midpoint(at(LeftEar), at(RightEar))

	bottomNeck := lerp(shoulderMid, earMid, Proportions.NeckBase)
	upperNeck := lerp(bottomNeck, earMid, Proportions.NeckTop)
	anchors[BottomNeck] = bottomNeck
	anchors[UpperNeck] = upperNeck
	anchors[Head] = lerp(upperNeck, earMid, Proportions.Head)

	anchors[LeftAnkleMid] = midpoint(at(LeftAnkle), at(LeftHeel))
	anchors[RightAnkleMid] = midpoint(at(RightAnkle), at(RightHeel))
	anchors[LeftFootTip] = midpoint(at(LeftToe), at(LeftHeel))
	anchors[RightFootTip] = midpoint(at(RightToe), at(RightHeel))

	anchors[LeftHandTip] = handTip(at(LeftWrist), at(LeftPinkyFinger), at(LeftIndexFinger))
	anchors[RightHandTip] = handTip(at(RightWrist), at(RightPinkyFinger), at(RightIndexFinger))

	hipMid := midpoint(at(RightHip), at(LeftHip))
	anchors[TorsoCenter] = lerp(hipMid, bottomNeck, Proportions.TorsoCenter)
	anchors[Chest] = lerp(hipMid, bottomNeck, Proportions.Chest)

	return anchors, nil
}

// handTip reflects the wrist through the midpoint of the pinky and index fingers.
func handTip(wrist, pinky, index r2.Point) r2.Point {
	fingerMid := midpoint(pinky, index)
	return fingerMid.Add(fingerMid.Sub(wrist).Mul(Proportions.HandReach))
}
