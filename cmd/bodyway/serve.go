package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/obitec/bodyway/internal/capture"
	"github.com/obitec/bodyway/internal/detector"
	"github.com/obitec/bodyway/internal/render"
	"github.com/obitec/bodyway/internal/server"
	"github.com/obitec/bodyway/internal/session"
	"github.com/obitec/bodyway/internal/store"
	"github.com/obitec/bodyway/internal/tray"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the live overlay service",
	Long:  "Opens the camera, detects poses in every frame and serves the annotated stream, overlay websocket and camera channel over HTTP.",
	RunE:  runServe,
}

var (
	serveAddr string
	serveTray bool
	serveMock bool
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides BODYWAY_ADDR)")
	serveCmd.Flags().BoolVar(&serveTray, "tray", false, "Show a system tray menu (overrides BODYWAY_TRAY)")
	serveCmd.Flags().BoolVar(&serveMock, "mock-detector", false, "Use a detector that finds no poses (overrides BODYWAY_MOCK_DETECTOR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("addr") {
		cfg.Addr = serveAddr
	}
	if cmd.Flags().Changed("tray") {
		cfg.Tray = serveTray
	}
	if cmd.Flags().Changed("mock-detector") {
		cfg.MockDetector = serveMock
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	sess, err := session.New(session.Config{
		Camera:        capture.NewCamera(cfg.Devices(), cfg.CameraFacing()),
		Detector:      newDetector(),
		Variants:      session.StoreVariants{Styles: st.Styles()},
		States:        st.Settings(),
		Logger:        logger.Named("session"),
		FPS:           cfg.FPS,
		MinLikelihood: cfg.MinLikelihood,
		Initial:       session.State{Facing: cfg.CameraFacing(), Variant: cfg.Variant},
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	defer sess.Dispose()

	if err := sess.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	staticDir := cfg.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		logger.Info("serving static files", zap.String("dir", staticDir))
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		Store:     st,
		Session:   sess,
		Logger:    logger.Named("http"),
		StreamFPS: cfg.FPS,
	})

	if !cfg.Tray {
		return srv.ListenAndServe(ctx, cfg.Addr)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx, cfg.Addr)
		stop()
	}()

	t := newTray(sess, "http://"+cfg.Addr, stop)
	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()

	stop()
	return <-errCh
}

// newDetector returns the MediaPipe detector, or a detector that finds no poses
// when it is disabled or unavailable.
func newDetector() detector.Detector {
	if cfg.MockDetector {
		logger.Warn("using mock detector, no poses will be detected")
		return detector.NewMockDetector()
	}

	d, err := detector.NewMediaPipeDetector(detector.Config{
		MinLikelihood:      cfg.MinLikelihood,
		ModelComplexity:    cfg.ModelComplexity,
		IdleTimeoutSec:     cfg.DetectorIdleSec,
		ResponseTimeoutSec: cfg.DetectorTimeoutSec,
	}, logger.Named("detector"))
	if err != nil {
		logger.Warn("pose detector unavailable, falling back to mock detector", zap.Error(err))
		return detector.NewMockDetector()
	}
	return d
}

// newTray wires the tray menu to the session.
func newTray(sess *session.Session, viewerURL string, quit context.CancelFunc) *tray.Tray {
	t := tray.New()

	state := sess.State()
	t.SetFacing(state.Facing.String())

	// lastVisible is the variant restored when the overlay is toggled back on.
	var mu sync.Mutex
	lastVisible := state.Variant
	if lastVisible == render.VariantHidden {
		lastVisible = render.VariantSkeleton
	}
	t.SetVisible(state.Variant != render.VariantHidden)

	t.OnToggle(func(visible bool) {
		mu.Lock()
		variant := render.VariantHidden
		if visible {
			variant = lastVisible
		} else if current := sess.State().Variant; current != render.VariantHidden {
			lastVisible = current
		}
		mu.Unlock()

		if err := sess.ChangePoseGraphic(variant); err != nil {
			logger.Warn("change pose graphic", zap.Error(err))
		}
	})
	t.OnSwitchCamera(func() {
		if err := sess.SwitchCamera(); err != nil {
			logger.Warn("switch camera", zap.Error(err))
			return
		}
		t.SetFacing(sess.State().Facing.String())
	})
	t.OnOpenViewer(func() {
		if err := openBrowser(viewerURL); err != nil {
			logger.Warn("open viewer", zap.String("url", viewerURL), zap.Error(err))
		}
	})
	t.OnQuit(quit)

	return t
}

func openBrowser(url string) error {
	var name string
	switch runtime.GOOS {
	case "darwin":
		name = "open"
	case "linux":
		name = "xdg-open"
	default:
		return errors.New("unsupported platform " + runtime.GOOS)
	}
	return exec.Command(name, url).Start()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.bodyway/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".bodyway", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
