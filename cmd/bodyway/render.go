package main

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/obitec/bodyway/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render <landmarks.json>",
	Short: "Render the skeleton for a landmark set to PNG",
	Long:  "Draws the synthesized skeleton for a recorded landmark set onto a PNG image, scaled into the given size the way a camera preview is.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

var (
	renderOutput     string
	renderWidth      int
	renderHeight     int
	renderVariant    int
	renderBackground string
	renderMirror     bool
)

func init() {
	renderCmd.Flags().StringVarP(&renderOutput, "out", "o", "", "Path to output PNG file (required)")
	renderCmd.Flags().IntVar(&renderWidth, "width", 0, "Image width (defaults to the frame width)")
	renderCmd.Flags().IntVar(&renderHeight, "height", 0, "Image height (defaults to the frame height)")
	renderCmd.Flags().IntVar(&renderVariant, "variant", 0, "Overlay variant")
	renderCmd.Flags().StringVar(&renderBackground, "background", "", "Background color, transparent when empty")
	renderCmd.Flags().BoolVar(&renderMirror, "mirror", false, "Mirror horizontally, as a front camera preview")

	if err := renderCmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Sprintf("failed to mark out flag as required: %v", err))
	}

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	f, err := readLandmarks(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}

	width, height := renderWidth, renderHeight
	if width <= 0 || height <= 0 {
		width, height = f.Width, f.Height
	}

	var background color.Color
	if renderBackground != "" {
		c, err := colorful.Hex(renderBackground)
		if err != nil {
			return fmt.Errorf("invalid background %q: %w", renderBackground, err)
		}
		background = c
	}

	variants, release, err := openVariants()
	if err != nil {
		return err
	}
	defer release()

	segments, err := skeleton(f, variants, renderVariant, width, height, renderMirror)
	if err != nil {
		return err
	}

	canvas := render.NewCanvas(width, height, background)
	canvas.Draw(segments)

	if dir := filepath.Dir(renderOutput); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	out, err := os.Create(renderOutput)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", renderOutput, err)
	}
	if err := canvas.EncodePNG(out); err != nil {
		out.Close()
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	if err := out.Close(); err != nil {
		return err
	}

	logger.Info("rendered overlay",
		zap.String("out", renderOutput),
		zap.Int("segments", len(segments)),
		zap.Int("width", width),
		zap.Int("height", height))
	return nil
}
