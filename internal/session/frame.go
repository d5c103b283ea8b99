package session

import (
	"errors"
	"math"

	"github.com/golang/geo/r2"
	"gocv.io/x/gocv"

	"github.com/obitec/bodyway/internal/detector"
	"github.com/obitec/bodyway/internal/overlay"
)

// Options is the per-frame input to ProcessFrame, copied out of the session
// state so the geometry never reads shared state.
type Options struct {
	Transform     overlay.Transform
	Style         overlay.Style
	Visible       bool
	MinLikelihood float64
}

// Overlay is the result of processing one frame.
type Overlay struct {
	Timestamp int64                  `json:"timestamp"`
	Facing    string                 `json:"facing"`
	Variant   int                    `json:"variant"`
	Visible   bool                   `json:"visible"`
	Width     int                    `json:"width"`
	Height    int                    `json:"height"`
	Skeletons [][]overlay.Segment    `json:"skeletons"`
	Skipped   int                    `json:"skipped"`
	Missing   []overlay.LandmarkType `json:"missing,omitempty"`
}

// Segments returns every segment of every skeleton in draw order.
func (o Overlay) Segments() []overlay.Segment {
	var out []overlay.Segment
	for _, sk := range o.Skeletons {
		out = append(out, sk...)
	}
	return out
}

// ProcessFrame detects poses in frame and builds one skeleton per complete pose.
// A pose missing any required landmark is skipped, never drawn partially, and
// the landmark that disqualified it is recorded in Missing. A hidden style
// skips detection altogether.
func ProcessFrame(frame *gocv.Mat, d detector.Detector, opts Options) (Overlay, error) {
	ov := Overlay{
		Visible:   opts.Visible,
		Skeletons: [][]overlay.Segment{},
	}
	if frame != nil && !frame.Empty() {
		ov.Width = frame.Cols()
		ov.Height = frame.Rows()
	}
	if !opts.Visible {
		return ov, nil
	}

	poses, err := d.Detect(frame)
	if err != nil {
		return ov, err
	}

	for i := range poses {
		segments, err := overlay.Skeleton(poses[i].Usable(opts.MinLikelihood), opts.Transform, opts.Style)
		if err != nil {
			var missing *overlay.MissingLandmarkError
			if !errors.As(err, &missing) {
				return ov, err
			}
			ov.Skipped++
			ov.Missing = append(ov.Missing, missing.Landmark)
			continue
		}
		ov.Skeletons = append(ov.Skeletons, segments)
	}
	return ov, nil
}

// Fit maps the overlay from frame pixels into a viewWidth x viewHeight view
// that shows the frame aspect-filled. Non-positive sizes return o unchanged.
func (o Overlay) Fit(viewWidth, viewHeight float64) Overlay {
	if viewWidth <= 0 || viewHeight <= 0 || o.Width <= 0 || o.Height <= 0 {
		return o
	}
	pv := overlay.Preview{
		ImageWidth:  float64(o.Width),
		ImageHeight: float64(o.Height),
		ViewWidth:   viewWidth,
		ViewHeight:  viewHeight,
	}
	at := func(p r2.Point) r2.Point {
		return pv.Point(overlay.Point3D{X: p.X, Y: p.Y})
	}

	out := o
	out.Width = int(math.Round(viewWidth))
	out.Height = int(math.Round(viewHeight))
	out.Skeletons = make([][]overlay.Segment, len(o.Skeletons))
	for i, sk := range o.Skeletons {
		fitted := make([]overlay.Segment, len(sk))
		for j, seg := range sk {
			fitted[j] = overlay.Segment{From: at(seg.From), To: at(seg.To), Style: seg.Style}
		}
		out.Skeletons[i] = fitted
	}
	return out
}
