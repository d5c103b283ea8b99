package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var segmentsCmd = &cobra.Command{
	Use:   "segments <landmarks.json>",
	Short: "Print the skeleton segments for a landmark set",
	Long:  "Computes the synthesized skeleton for a recorded landmark set and prints its segments as JSON. Use - to read the landmarks from stdin.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSegments,
}

var (
	segmentsVariant    int
	segmentsViewWidth  int
	segmentsViewHeight int
	segmentsMirror     bool
)

func init() {
	segmentsCmd.Flags().IntVar(&segmentsVariant, "variant", 0, "Overlay variant")
	segmentsCmd.Flags().IntVar(&segmentsViewWidth, "view-width", 0, "View width (defaults to the frame width)")
	segmentsCmd.Flags().IntVar(&segmentsViewHeight, "view-height", 0, "View height (defaults to the frame height)")
	segmentsCmd.Flags().BoolVar(&segmentsMirror, "mirror", false, "Mirror horizontally, as a front camera preview")

	rootCmd.AddCommand(segmentsCmd)
}

func runSegments(cmd *cobra.Command, args []string) error {
	f, err := readLandmarks(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}

	variants, release, err := openVariants()
	if err != nil {
		return err
	}
	defer release()

	segments, err := skeleton(f, variants, segmentsVariant, segmentsViewWidth, segmentsViewHeight, segmentsMirror)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(segments, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal segments to JSON: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
