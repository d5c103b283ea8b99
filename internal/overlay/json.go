package overlay

import (
	"encoding/json"
	"fmt"
	"image/color"

	"github.com/golang/geo/r2"
)

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type jsonSegment struct {
	From  jsonPoint `json:"from"`
	To    jsonPoint `json:"to"`
	Color string    `json:"color"`
	Width float64   `json:"width"`
}

// HexColor formats c as #rrggbb, or #rrggbbaa when it is not opaque.
func HexColor(c color.RGBA) string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// ParseHexColor parses #rrggbb or #rrggbbaa.
func ParseHexColor(s string) (color.RGBA, error) {
	c := color.RGBA{A: 0xff}
	var err error
	switch len(s) {
	case 7:
		_, err = fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B)
	case 9:
		_, err = fmt.Sscanf(s, "#%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A)
	default:
		err = fmt.Errorf("bad length")
	}
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return c, nil
}

// MarshalJSON writes points as {x, y} and the style inline.
func (s Segment) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonSegment{
		From:  jsonPoint{X: s.From.X, Y: s.From.Y},
		To:    jsonPoint{X: s.To.X, Y: s.To.Y},
		Color: HexColor(s.Style.Color),
		Width: s.Style.Width,
	})
}

// UnmarshalJSON reads the form written by MarshalJSON.
func (s *Segment) UnmarshalJSON(data []byte) error {
	var js jsonSegment
	if err := json.Unmarshal(data, &js); err != nil {
		return err
	}
	c, err := ParseHexColor(js.Color)
	if err != nil {
		return err
	}
	*s = Segment{
		From:  r2.Point{X: js.From.X, Y: js.From.Y},
		To:    r2.Point{X: js.To.X, Y: js.To.Y},
		Style: Style{Color: c, Width: js.Width},
	}
	return nil
}
