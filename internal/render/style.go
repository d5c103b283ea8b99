package render

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/obitec/bodyway/internal/overlay"
)

// StyleFromHex builds a stroke style from a #rgb or #rrggbb color.
func StyleFromHex(hex string, width float64) (overlay.Style, error) {
	if width < 0 {
		return overlay.Style{}, fmt.Errorf("invalid width %v", width)
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return overlay.Style{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return overlay.Style{
		Color: color.RGBA{R: r, G: g, B: b, A: 0xff},
		Width: width,
	}, nil
}

// Variant is a selectable overlay style.
type Variant struct {
	ID      int     `json:"variant"`
	Name    string  `json:"name"`
	Color   string  `json:"color"`
	Width   float64 `json:"width"`
	Visible bool    `json:"visible"`
}

// Style returns the stroke style of v.
func (v Variant) Style() (overlay.Style, error) {
	return StyleFromHex(v.Color, v.Width)
}

// Well-known variant IDs.
const (
	VariantSkeleton = 0
	VariantHidden   = 1
	VariantContrast = 2
)

// DefaultVariants are the built-in styles, also used to seed storage.
var DefaultVariants = []Variant{
	{ID: VariantSkeleton, Name: "skeleton", Color: "#007AFF", Width: 3, Visible: true},
	{ID: VariantHidden, Name: "hidden", Color: "#000000", Width: 0, Visible: false},
	{ID: VariantContrast, Name: "contrast", Color: "#FF3B30", Width: 4, Visible: true},
}

// Hidden returns an invisible variant with the given ID. Unknown variants resolve to it.
func Hidden(id int) Variant {
	return Variant{ID: id, Name: "hidden", Color: "#000000", Visible: false}
}

// Variants resolves a variant ID to its style.
type Variants interface {
	Variant(id int) (Variant, error)
}

// StaticVariants is a fixed Variants table.
type StaticVariants map[int]Variant

// NewStaticVariants indexes vs by ID.
func NewStaticVariants(vs []Variant) StaticVariants {
	m := make(StaticVariants, len(vs))
	for _, v := range vs {
		m[v.ID] = v
	}
	return m
}

// Variant returns the variant for id, or Hidden(id) if there is none.
func (m StaticVariants) Variant(id int) (Variant, error) {
	if v, ok := m[id]; ok {
		return v, nil
	}
	return Hidden(id), nil
}
