package overlay

import (
	"fmt"
	"image/color"

	"github.com/golang/geo/r2"
)

// Style is how a segment is stroked.
type Style struct {
	Color color.RGBA `json:"color"`
	Width float64    `json:"width"`
}

// Segment is one drawable line of the skeleton, in view space.
type Segment struct {
	From  r2.Point `json:"from"`
	To    r2.Point `json:"to"`
	Style Style    `json:"style"`
}

// Endpoint is one end of a connection: a raw landmark or a synthesized anchor.
type Endpoint struct {
	Landmark LandmarkType
	Anchor   AnchorName
	IsAnchor bool
}

// L returns an endpoint on a raw landmark.
func L(t LandmarkType) Endpoint { return Endpoint{Landmark: t} }

// A returns an endpoint on a synthesized anchor.
func A(n AnchorName) Endpoint { return Endpoint{Anchor: n, IsAnchor: true} }

func (e Endpoint) String() string {
	if e.IsAnchor {
		return e.Anchor.String()
	}
	return e.Landmark.String()
}

// Connection is an ordered pair of endpoints joined by a segment.
type Connection struct {
	From Endpoint
	To   Endpoint
}

func (c Connection) String() string {
	return fmt.Sprintf("%s-%s", c.From, c.To)
}

// NumSegments is the number of segments in a complete skeleton.
const NumSegments = 25

// Connections is the skeleton topology. Segments are built, and drawn, in this order.
var Connections = [NumSegments]Connection{
	{L(LeftHip), L(RightHip)},
	{L(LeftShoulder), L(LeftElbow)},
	{L(LeftElbow), L(LeftWrist)},
	{L(LeftHip), L(LeftKnee)},
	{L(RightShoulder), L(RightElbow)},
	{L(RightElbow), L(RightWrist)},
	{L(RightHip), L(RightKnee)},

	{A(Head), L(Nose)},
	{L(Nose), A(UpperNeck)},
	{A(UpperNeck), A(BottomNeck)},
	{A(BottomNeck), L(LeftShoulder)},
	{A(BottomNeck), L(RightShoulder)},
	{L(LeftShoulder), A(Chest)},
	{L(RightShoulder), A(Chest)},
	{A(Chest), A(TorsoCenter)},
	{A(TorsoCenter), L(LeftHip)},
	{A(TorsoCenter), L(RightHip)},

	{L(LeftWrist), A(LeftHandTip)},
	{L(RightWrist), A(RightHandTip)},
	{L(LeftKnee), A(LeftAnkleMid)},
	{L(RightKnee), A(RightAnkleMid)},
	{A(LeftAnkleMid), A(LeftFootTip)},
	{A(RightAnkleMid), A(RightFootTip)},
	{L(LeftToe), A(LeftFootTip)},
	{L(RightToe), A(RightFootTip)},
}

// connectionLandmarks lists raw landmarks referenced by Connections, in table order.
var connectionLandmarks = func() []LandmarkType {
	seen := make(map[LandmarkType]bool)
	var out []LandmarkType
	for _, c := range Connections {
		for _, e := range []Endpoint{c.From, c.To} {
			if !e.IsAnchor && !seen[e.Landmark] {
				seen[e.Landmark] = true
				out = append(out, e.Landmark)
			}
		}
	}
	return out
}()

// RequiredLandmarks returns every landmark needed to build a complete skeleton:
// those Synthesize reads followed by the extra ones the connection table references.
func RequiredLandmarks() []LandmarkType {
	seen := make(map[LandmarkType]bool, len(synthesisLandmarks))
	out := make([]LandmarkType, 0, len(synthesisLandmarks)+4)
	for _, t := range synthesisLandmarks {
		seen[t] = true
		out = append(out, t)
	}
	for _, t := range connectionLandmarks {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// BuildSegments joins transformed landmarks and anchors into the skeleton's segments,
// one per entry of Connections, all stroked with style. It fails without returning any
// segment when a referenced landmark is absent.
func BuildSegments(landmarks Landmarks, anchors Anchors, t Transform, style Style) ([]Segment, error) {
	if missing, ok := landmarks.Missing(connectionLandmarks); ok {
		return nil, &MissingLandmarkError{Landmark: missing}
	}

	point := func(e Endpoint) r2.Point {
		if e.IsAnchor {
			return anchors[e.Anchor]
		}
		return t(landmarks[e.Landmark])
	}

	segments := make([]Segment, 0, NumSegments)
	for _, c := range Connections {
		segments = append(segments, Segment{
			From:  point(c.From),
			To:    point(c.To),
			Style: style,
		})
	}
	return segments, nil
}

// Skeleton synthesizes the anchors and builds the segments for one frame.
func Skeleton(landmarks Landmarks, t Transform, style Style) ([]Segment, error) {
	if missing, ok := landmarks.Missing(RequiredLandmarks()); ok {
		return nil, &MissingLandmarkError{Landmark: missing}
	}
	anchors, err := Synthesize(landmarks, t)
	if err != nil {
		return nil, err
	}
	return BuildSegments(landmarks, anchors, t, style)
}
