package render

import (
	"image"
	"image/color"
	"io"

	"github.com/fogleman/gg"

	"github.com/obitec/bodyway/internal/overlay"
)

// Canvas renders segments into an in-memory image for still export.
type Canvas struct {
	dc *gg.Context
}

// NewCanvas creates a width x height canvas. A nil background leaves it transparent.
func NewCanvas(width, height int, background color.Color) *Canvas {
	dc := gg.NewContext(width, height)
	if background != nil {
		dc.SetColor(background)
		dc.Clear()
	}
	return &Canvas{dc: dc}
}

// NewCanvasFromImage creates a canvas the size of img with img drawn underneath.
func NewCanvasFromImage(img image.Image) *Canvas {
	dc := gg.NewContextForImage(img)
	return &Canvas{dc: dc}
}

// Draw strokes segments in order with round caps.
func (c *Canvas) Draw(segments []overlay.Segment) {
	c.dc.SetLineCap(gg.LineCapRound)
	for _, s := range segments {
		c.dc.SetColor(s.Style.Color)
		c.dc.SetLineWidth(s.Style.Width)
		c.dc.DrawLine(s.From.X, s.From.Y, s.To.X, s.To.Y)
		c.dc.Stroke()
	}
}

// Width returns the canvas width in pixels.
func (c *Canvas) Width() int { return c.dc.Width() }

// Height returns the canvas height in pixels.
func (c *Canvas) Height() int { return c.dc.Height() }

// Image returns the rendered image.
func (c *Canvas) Image() image.Image {
	return c.dc.Image()
}

// EncodePNG writes the canvas as PNG.
func (c *Canvas) EncodePNG(w io.Writer) error {
	return c.dc.EncodePNG(w)
}
