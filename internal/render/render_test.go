package render

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/obitec/bodyway/internal/overlay"
)

var red = overlay.Style{Color: color.RGBA{R: 255, A: 255}, Width: 4}

func horizontal(style overlay.Style) []overlay.Segment {
	return []overlay.Segment{{
		From:  r2.Point{X: 10, Y: 50},
		To:    r2.Point{X: 90, Y: 50},
		Style: style,
	}}
}

func TestStyleFromHex(t *testing.T) {
	tests := []struct {
		name    string
		hex     string
		want    color.RGBA
		wantErr bool
	}{
		{name: "long form", hex: "#007AFF", want: color.RGBA{R: 0x00, G: 0x7a, B: 0xff, A: 0xff}},
		{name: "lower case", hex: "#ff3b30", want: color.RGBA{R: 0xff, G: 0x3b, B: 0x30, A: 0xff}},
		{name: "short form", hex: "#fff", want: color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}},
		{name: "missing hash", hex: "007AFF", wantErr: true},
		{name: "garbage", hex: "#zzzzzz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			style, err := StyleFromHex(tt.hex, 3)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, style.Color)
			assert.Equal(t, 3.0, style.Width)
		})
	}

	t.Run("negative width", func(t *testing.T) {
		_, err := StyleFromHex("#000000", -1)
		assert.Error(t, err)
	})
}

func TestVariants(t *testing.T) {
	variants := NewStaticVariants(DefaultVariants)

	t.Run("defaults", func(t *testing.T) {
		v, err := variants.Variant(VariantSkeleton)
		require.NoError(t, err)
		assert.True(t, v.Visible)

		style, err := v.Style()
		require.NoError(t, err)
		assert.Equal(t, color.RGBA{R: 0x00, G: 0x7a, B: 0xff, A: 0xff}, style.Color)
		assert.Equal(t, 3.0, style.Width)

		v, err = variants.Variant(VariantHidden)
		require.NoError(t, err)
		assert.False(t, v.Visible)

		v, err = variants.Variant(VariantContrast)
		require.NoError(t, err)
		assert.Equal(t, "#FF3B30", v.Color)
	})

	t.Run("unknown variant is hidden", func(t *testing.T) {
		v, err := variants.Variant(42)
		require.NoError(t, err)
		assert.Equal(t, 42, v.ID)
		assert.False(t, v.Visible)
	})

	t.Run("every default style parses", func(t *testing.T) {
		for _, v := range DefaultVariants {
			_, err := v.Style()
			assert.NoError(t, err, v.Name)
		}
	})
}

func TestDrawMat(t *testing.T) {
	mat := gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8UC3)
	defer mat.Close()

	require.NoError(t, DrawMat(&mat, horizontal(red)))

	// gocv stores pixels as BGR.
	on := mat.GetVecbAt(50, 50)
	assert.Equal(t, uint8(0), on[0])
	assert.Equal(t, uint8(0), on[1])
	assert.Equal(t, uint8(255), on[2])

	off := mat.GetVecbAt(10, 50)
	assert.Equal(t, uint8(0), off[2])
}

func TestDrawMat_EmptyMat(t *testing.T) {
	mat := gocv.NewMat()
	defer mat.Close()

	assert.NoError(t, DrawMat(&mat, horizontal(red)))
	assert.NoError(t, DrawMat(nil, horizontal(red)))
	assert.NoError(t, Mirror(&mat))
	assert.NoError(t, Mirror(nil))
}

func TestDrawMat_ReportsOpenCVErrors(t *testing.T) {
	mat := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC3)
	defer mat.Close()

	// OpenCV caps line thickness at 32767.
	err := DrawMat(&mat, []overlay.Segment{{
		From:  r2.Point{X: 0, Y: 0},
		To:    r2.Point{X: 9, Y: 9},
		Style: overlay.Style{Color: color.RGBA{R: 255, A: 255}, Width: 40000},
	}})
	assert.ErrorContains(t, err, "draw segment 0")
}

func TestMirror(t *testing.T) {
	mat := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC3)
	defer mat.Close()
	require.NoError(t, DrawMat(&mat, []overlay.Segment{{
		From:  r2.Point{X: 0, Y: 0},
		To:    r2.Point{X: 0, Y: 9},
		Style: overlay.Style{Color: color.RGBA{R: 255, A: 255}, Width: 1},
	}}))
	require.Equal(t, uint8(255), mat.GetVecbAt(5, 0)[2])

	require.NoError(t, Mirror(&mat))

	assert.Equal(t, uint8(0), mat.GetVecbAt(5, 0)[2])
	assert.Equal(t, uint8(255), mat.GetVecbAt(5, 9)[2])
}

func TestThickness(t *testing.T) {
	assert.Equal(t, 1, thickness(0))
	assert.Equal(t, 1, thickness(0.4))
	assert.Equal(t, 3, thickness(3))
	assert.Equal(t, 4, thickness(3.5))
}

func TestCanvas(t *testing.T) {
	t.Run("draws segments", func(t *testing.T) {
		c := NewCanvas(100, 100, color.White)
		c.Draw(horizontal(red))

		r, g, b, _ := c.Image().At(50, 50).RGBA()
		assert.Equal(t, uint32(0xffff), r)
		assert.Equal(t, uint32(0), g)
		assert.Equal(t, uint32(0), b)

		r, g, b, _ = c.Image().At(50, 10).RGBA()
		assert.Equal(t, uint32(0xffff), r)
		assert.Equal(t, uint32(0xffff), g)
		assert.Equal(t, uint32(0xffff), b)
	})

	t.Run("transparent background", func(t *testing.T) {
		c := NewCanvas(20, 20, nil)
		_, _, _, a := c.Image().At(5, 5).RGBA()
		assert.Equal(t, uint32(0), a)
	})

	t.Run("encodes png", func(t *testing.T) {
		c := NewCanvas(64, 48, color.Black)
		c.Draw(horizontal(red))

		var buf bytes.Buffer
		require.NoError(t, c.EncodePNG(&buf))

		img, err := png.Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, 64, img.Bounds().Dx())
		assert.Equal(t, 48, img.Bounds().Dy())
	})

	t.Run("from image", func(t *testing.T) {
		base := NewCanvas(30, 20, color.White)
		c := NewCanvasFromImage(base.Image())
		assert.Equal(t, 30, c.Width())
		assert.Equal(t, 20, c.Height())
	})
}
