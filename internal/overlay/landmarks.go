// Package overlay derives the skeleton overlay drawn over a detected body pose.
//
// The package is pure: given one frame's landmarks and a coordinate transform it
// synthesizes anatomical anchor points (neck, head, chest, hand and foot tips) and
// builds the fixed list of segments that make up the skeleton. Nothing is cached
// between calls and inputs are never mutated, so callers may run it for
// independent frames concurrently.
package overlay

import (
	"fmt"
	"strings"
)

// LandmarkType identifies a body landmark. Values follow the detector's index
// order so a landmark list of NumLandmarkTypes entries maps index i to LandmarkType(i).
type LandmarkType int

// Body landmarks in detector index order.
const (
	Nose LandmarkType = iota
	LeftEyeInner
	LeftEye
	LeftEyeOuter
	RightEyeInner
	RightEye
	RightEyeOuter
	LeftEar
	RightEar
	MouthLeft
	MouthRight
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftPinkyFinger
	RightPinkyFinger
	LeftIndexFinger
	RightIndexFinger
	LeftThumb
	RightThumb
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	LeftHeel
	RightHeel
	LeftToe
	RightToe
	NumLandmarkTypes
)

var landmarkNames = [NumLandmarkTypes]string{
	"nose",
	"leftEyeInner",
	"leftEye",
	"leftEyeOuter",
	"rightEyeInner",
	"rightEye",
	"rightEyeOuter",
	"leftEar",
	"rightEar",
	"mouthLeft",
	"mouthRight",
	"leftShoulder",
	"rightShoulder",
	"leftElbow",
	"rightElbow",
	"leftWrist",
	"rightWrist",
	"leftPinkyFinger",
	"rightPinkyFinger",
	"leftIndexFinger",
	"rightIndexFinger",
	"leftThumb",
	"rightThumb",
	"leftHip",
	"rightHip",
	"leftKnee",
	"rightKnee",
	"leftAnkle",
	"rightAnkle",
	"leftHeel",
	"rightHeel",
	"leftToe",
	"rightToe",
}

// MediaPipe names that do not fold onto the camelCase names above.
var landmarkAliases = map[string]LandmarkType{
	"leftpinky":      LeftPinkyFinger,
	"rightpinky":     RightPinkyFinger,
	"leftindex":      LeftIndexFinger,
	"rightindex":     RightIndexFinger,
	"leftfootindex":  LeftToe,
	"rightfootindex": RightToe,
}

var landmarksByKey = func() map[string]LandmarkType {
	m := make(map[string]LandmarkType, int(NumLandmarkTypes)+len(landmarkAliases))
	for i, name := range landmarkNames {
		m[foldName(name)] = LandmarkType(i)
	}
	for k, v := range landmarkAliases {
		m[k] = v
	}
	return m
}()

// foldName lowercases a name and strips separators so "left_wrist",
// "left wrist" and "leftWrist" compare equal.
func foldName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if r == '_' || r == ' ' || r == '-' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// String returns the camelCase name of the landmark.
func (t LandmarkType) String() string {
	if t < 0 || t >= NumLandmarkTypes {
		return fmt.Sprintf("LandmarkType(%d)", int(t))
	}
	return landmarkNames[t]
}

// Valid reports whether t is one of the known landmarks.
func (t LandmarkType) Valid() bool {
	return t >= 0 && t < NumLandmarkTypes
}

// ParseLandmarkType resolves a landmark name. It accepts camelCase names as well as
// MediaPipe snake_case and space separated names.
func ParseLandmarkType(name string) (LandmarkType, error) {
	if t, ok := landmarksByKey[foldName(name)]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("unknown landmark %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (t LandmarkType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid landmark type %d", int(t))
	}
	return []byte(landmarkNames[t]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *LandmarkType) UnmarshalText(text []byte) error {
	parsed, err := ParseLandmarkType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Point3D is a position in detector space. Z is carried through but the overlay
// is built from the transformed 2D position only.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Scale returns p with every coordinate multiplied by k.
func (p Point3D) Scale(k float64) Point3D {
	return Point3D{X: p.X * k, Y: p.Y * k, Z: p.Z * k}
}

// Landmarks maps landmark types to their detector-space positions for one frame.
type Landmarks map[LandmarkType]Point3D

// Missing returns the first landmark of want that is absent from l, in the order given.
func (l Landmarks) Missing(want []LandmarkType) (LandmarkType, bool) {
	for _, t := range want {
		if _, ok := l[t]; !ok {
			return t, true
		}
	}
	return 0, false
}

// Clone returns a shallow copy of l.
func (l Landmarks) Clone() Landmarks {
	out := make(Landmarks, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}
