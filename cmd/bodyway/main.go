// Package main provides the bodyway command: the pose overlay service and
// offline tools for computing and rendering skeleton overlays.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/obitec/bodyway/internal/config"
	"github.com/obitec/bodyway/internal/logging"
)

var (
	logLevel string
	logFile  string

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:               "bodyway",
	Short:             "Body pose skeleton overlay service",
	Long:              "Bodyway detects body poses in a live camera feed and draws a synthesized skeleton over the preview. It also computes and renders overlays for recorded landmark sets.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(_ *cobra.Command, _ []string) { _ = logger.Sync() },
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides BODYWAY_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Rotating log file (overrides BODYWAY_LOG_FILE)")
}

// setup loads the configuration and builds the logger. Flags override the environment.
func setup(cmd *cobra.Command, _ []string) error {
	c, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("log-level") {
		c.LogLevel = logLevel
	}
	if cmd.Flags().Changed("log-file") {
		c.LogFile = logFile
	}

	l, err := logging.New(c.LogLevel, c.LogFile)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	cfg, logger = c, l
	return nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
