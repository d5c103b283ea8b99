package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/obitec/bodyway/internal/overlay"
	"github.com/obitec/bodyway/internal/render"
	"github.com/obitec/bodyway/internal/session"
	"github.com/obitec/bodyway/internal/store"
)

// Frame size assumed when a landmarks file does not name one.
const (
	defaultWidth  = 640
	defaultHeight = 480
)

// landmarksFile is a recorded landmark set in the pixel space of a Width x Height frame.
type landmarksFile struct {
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Landmarks overlay.Landmarks `json:"landmarks"`
}

// readLandmarks reads a landmarks file, or stdin when path is "-".
func readLandmarks(path string, stdin io.Reader) (*landmarksFile, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read landmarks file %s: %w", path, err)
	}

	var f landmarksFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal landmarks JSON: %w", err)
	}
	if len(f.Landmarks) == 0 {
		return nil, errors.New("landmarks file has no landmarks")
	}
	if f.Width <= 0 || f.Height <= 0 {
		f.Width, f.Height = defaultWidth, defaultHeight
	}
	return &f, nil
}

// openVariants resolves variants from the configured database when it exists,
// falling back to the built-in variants. The returned func releases the store.
func openVariants() (render.Variants, func(), error) {
	if cfg == nil || cfg.DBPath == "" {
		return render.NewStaticVariants(render.DefaultVariants), func() {}, nil
	}
	if _, err := os.Stat(cfg.DBPath); err != nil {
		return render.NewStaticVariants(render.DefaultVariants), func() {}, nil
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return session.StoreVariants{Styles: st.Styles()}, func() { st.Close() }, nil
}

// skeleton builds the overlay of f in a view of viewW x viewH using the given variant.
// A hidden variant yields no segments.
func skeleton(f *landmarksFile, variants render.Variants, variant, viewW, viewH int, mirrored bool) ([]overlay.Segment, error) {
	v, err := variants.Variant(variant)
	if err != nil {
		return nil, fmt.Errorf("resolve variant %d: %w", variant, err)
	}
	if !v.Visible {
		return []overlay.Segment{}, nil
	}
	style, err := v.Style()
	if err != nil {
		return nil, err
	}

	pv := overlay.Preview{
		ImageWidth:  float64(f.Width),
		ImageHeight: float64(f.Height),
		ViewWidth:   float64(viewW),
		ViewHeight:  float64(viewH),
		Mirrored:    mirrored,
	}
	return overlay.Skeleton(f.Landmarks, pv.Transform(), style)
}
