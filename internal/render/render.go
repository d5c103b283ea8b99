// Package render draws overlay segments onto frames and images.
package render

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/obitec/bodyway/internal/overlay"
)

// DrawMat strokes segments onto mat in order. Coordinates are rounded to the
// nearest pixel and widths to at least one pixel. Drawing stops at the first
// segment OpenCV rejects. An empty mat is left alone.
func DrawMat(mat *gocv.Mat, segments []overlay.Segment) error {
	if mat == nil || mat.Empty() {
		return nil
	}
	for i, s := range segments {
		if err := gocv.Line(mat, toPixel(s.From.X, s.From.Y), toPixel(s.To.X, s.To.Y), s.Style.Color, thickness(s.Style.Width)); err != nil {
			return fmt.Errorf("draw segment %d: %w", i, err)
		}
	}
	return nil
}

// Mirror flips mat horizontally in place.
func Mirror(mat *gocv.Mat) error {
	if mat == nil || mat.Empty() {
		return nil
	}
	if err := gocv.Flip(*mat, mat, 1); err != nil {
		return fmt.Errorf("mirror frame: %w", err)
	}
	return nil
}

func toPixel(x, y float64) image.Point {
	return image.Pt(int(math.Round(x)), int(math.Round(y)))
}

func thickness(width float64) int {
	t := int(math.Round(width))
	if t < 1 {
		return 1
	}
	return t
}
