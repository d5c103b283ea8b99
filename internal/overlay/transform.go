package overlay

import (
	"math"

	"github.com/golang/geo/r2"
)

// Transform maps a detector-space position to view space. Every raw landmark is
// passed through it before any interpolation, since it need not be linear.
type Transform func(Point3D) r2.Point

// Identity drops z and keeps x and y unchanged.
func Identity(p Point3D) r2.Point {
	return r2.Point{X: p.X, Y: p.Y}
}

// Normalize returns a Transform dividing pixel coordinates by the image size.
func Normalize(width, height float64) Transform {
	return func(p Point3D) r2.Point {
		return r2.Point{X: p.X / width, Y: p.Y / height}
	}
}

// Preview converts detector pixel coordinates into a preview view that shows the
// image with aspect-fill scaling: the image is scaled until it covers the view and
// centered, cropping the overflow. Mirrored flips horizontally, as the preview of a
// front-facing camera does.
type Preview struct {
	ImageWidth  float64
	ImageHeight float64
	ViewWidth   float64
	ViewHeight  float64
	Mirrored    bool
}

// Transform returns the conversion as a Transform.
func (pv Preview) Transform() Transform {
	return pv.Point
}

// Point converts a single position.
func (pv Preview) Point(p Point3D) r2.Point {
	if pv.ImageWidth <= 0 || pv.ImageHeight <= 0 {
		return Identity(p)
	}

	viewW, viewH := pv.ViewWidth, pv.ViewHeight
	if viewW <= 0 || viewH <= 0 {
		viewW, viewH = pv.ImageWidth, pv.ImageHeight
	}

	nx := p.X / pv.ImageWidth
	ny := p.Y / pv.ImageHeight
	if pv.Mirrored {
		nx = 1 - nx
	}

	scale := math.Max(viewW/pv.ImageWidth, viewH/pv.ImageHeight)
	offX := (viewW - pv.ImageWidth*scale) / 2
	offY := (viewH - pv.ImageHeight*scale) / 2

	return r2.Point{
		X: nx*pv.ImageWidth*scale + offX,
		Y: ny*pv.ImageHeight*scale + offY,
	}
}
