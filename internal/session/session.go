// Package session runs the camera, detector and overlay for one view.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/obitec/bodyway/internal/capture"
	"github.com/obitec/bodyway/internal/detector"
	"github.com/obitec/bodyway/internal/overlay"
	"github.com/obitec/bodyway/internal/render"
)

// ErrDisposed is returned by operations on a disposed session.
var ErrDisposed = errors.New("session disposed")

// ErrRunning is returned by Run when the frame loop is already running.
var ErrRunning = errors.New("session already running")

// Settings keys used to persist state.
const (
	KeyFacing  = "camera.facing"
	KeyVariant = "overlay.variant"
)

const subscriberBuffer = 4

// State is the explicit per-view state.
type State struct {
	Facing   capture.Facing
	Variant  int
	Disposed bool
}

// StateStore persists state across restarts. store.SettingsRepository satisfies it.
type StateStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// Config holds the collaborators and settings of a Session.
type Config struct {
	Camera        capture.Camera
	Detector      detector.Detector
	Variants      render.Variants
	States        StateStore
	Logger        *zap.Logger
	FPS           int
	MinLikelihood float64
	Initial       State
}

// Session owns a camera and detector and turns frames into overlays.
type Session struct {
	camera        capture.Camera
	detector      detector.Detector
	variants      render.Variants
	states        StateStore
	logger        *zap.Logger
	fps           int
	minLikelihood float64

	mu    sync.RWMutex
	state State

	subMu       sync.Mutex
	subscribers map[int]chan Overlay
	nextSubID   int

	latestMu      sync.RWMutex
	latestJPEG    []byte
	latestOverlay Overlay

	runMu  sync.Mutex
	stopCh chan struct{}
	done   chan struct{}
}

// New creates a session. Persisted facing and variant, when present, override
// cfg.Initial.
func New(cfg Config) (*Session, error) {
	if cfg.Camera == nil {
		return nil, errors.New("session: camera is required")
	}
	if cfg.Detector == nil {
		return nil, errors.New("session: detector is required")
	}
	if cfg.Variants == nil {
		cfg.Variants = render.NewStaticVariants(render.DefaultVariants)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.FPS <= 0 {
		cfg.FPS = capture.DefaultFPS
	}

	s := &Session{
		camera:        cfg.Camera,
		detector:      cfg.Detector,
		variants:      cfg.Variants,
		states:        cfg.States,
		logger:        cfg.Logger,
		fps:           cfg.FPS,
		minLikelihood: cfg.MinLikelihood,
		state:         cfg.Initial,
		subscribers:   make(map[int]chan Overlay),
	}
	s.state.Disposed = false
	s.loadState()

	if err := s.camera.SetFacing(s.state.Facing); err != nil {
		return nil, fmt.Errorf("select camera: %w", err)
	}
	s.camera.SetFPS(s.fps)

	return s, nil
}

func (s *Session) loadState() {
	if s.states == nil {
		return
	}
	if v, err := s.states.Get(KeyFacing); err == nil {
		if f, err := capture.ParseFacing(v); err == nil {
			s.state.Facing = f
		} else {
			s.logger.Warn("ignoring stored facing", zap.String("value", v))
		}
	}
	if v, err := s.states.Get(KeyVariant); err == nil {
		if n, err := strconv.Atoi(v); err == nil {
			s.state.Variant = n
		} else {
			s.logger.Warn("ignoring stored variant", zap.String("value", v))
		}
	}
}

func (s *Session) persist(key, value string) {
	if s.states == nil {
		return
	}
	if err := s.states.Set(key, value); err != nil {
		s.logger.Warn("persist state", zap.String("key", key), zap.Error(err))
	}
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Options builds the per-frame options for a width x height frame under state.
func (s *Session) Options(state State, width, height int) (Options, error) {
	v, err := s.variants.Variant(state.Variant)
	if err != nil {
		return Options{}, fmt.Errorf("resolve variant %d: %w", state.Variant, err)
	}

	opts := Options{
		Transform: overlay.Preview{
			ImageWidth:  float64(width),
			ImageHeight: float64(height),
			Mirrored:    state.Facing.Mirrored(),
		}.Transform(),
		Visible:       v.Visible,
		MinLikelihood: s.minLikelihood,
	}
	if v.Visible {
		style, err := v.Style()
		if err != nil {
			return Options{}, fmt.Errorf("variant %d style: %w", state.Variant, err)
		}
		opts.Style = style
	}
	return opts, nil
}

// ChangePoseGraphic selects the overlay style variant.
func (s *Session) ChangePoseGraphic(variant int) error {
	s.mu.Lock()
	if s.state.Disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	s.state.Variant = variant
	s.mu.Unlock()

	s.persist(KeyVariant, strconv.Itoa(variant))
	s.logger.Info("pose graphic changed", zap.Int("variant", variant))
	return nil
}

// SwitchCamera toggles between the front and back camera.
func (s *Session) SwitchCamera() error {
	s.mu.Lock()
	if s.state.Disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	next := s.state.Facing.Other()
	if err := s.camera.SetFacing(next); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("switch camera: %w", err)
	}
	s.state.Facing = next
	s.mu.Unlock()

	s.persist(KeyFacing, next.String())
	s.logger.Info("camera switched", zap.Stringer("facing", next))
	return nil
}

// Start opens the camera and runs the frame loop in the background until
// Dispose is called or ctx ends.
func (s *Session) Start(ctx context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.State().Disposed {
		return ErrDisposed
	}
	if s.stopCh != nil {
		return nil
	}
	if err := s.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}

	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	go func(stop, done chan struct{}) {
		defer close(done)
		s.run(ctx, stop)
	}(s.stopCh, s.done)

	s.logger.Info("session started", zap.Int("fps", s.fps), zap.Stringer("facing", s.State().Facing))
	return nil
}

// Run processes frames at the configured rate on the calling goroutine until
// ctx ends or Dispose is called. It returns ctx's error or ErrDisposed.
func (s *Session) Run(ctx context.Context) error {
	s.runMu.Lock()
	if s.State().Disposed {
		s.runMu.Unlock()
		return ErrDisposed
	}
	if s.stopCh != nil {
		s.runMu.Unlock()
		return ErrRunning
	}
	stop, done := make(chan struct{}), make(chan struct{})
	s.stopCh, s.done = stop, done
	s.runMu.Unlock()

	s.run(ctx, stop)
	close(done)

	s.runMu.Lock()
	if s.stopCh == stop {
		s.stopCh = nil
	}
	s.runMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrDisposed
}

func (s *Session) run(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / time.Duration(s.fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick reads, processes, renders and publishes a single frame. Camera and
// detector failures are logged and the frame is dropped.
func (s *Session) Tick() {
	frame, err := s.camera.ReadFrame()
	if err != nil {
		FramesTotal.WithLabelValues(resultError).Inc()
		s.logger.Warn("read frame", zap.Error(err))
		return
	}
	defer frame.Close()

	state := s.State()
	if state.Disposed {
		return
	}

	opts, err := s.Options(state, frame.Cols(), frame.Rows())
	if err != nil {
		FramesTotal.WithLabelValues(resultError).Inc()
		s.logger.Warn("frame options", zap.Error(err))
		return
	}

	start := time.Now()
	ov, err := ProcessFrame(frame, s.detector, opts)
	FrameDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		FramesTotal.WithLabelValues(resultError).Inc()
		s.logger.Warn("detect poses", zap.Error(err))
		return
	}

	ov.Timestamp = time.Now().UnixMilli()
	ov.Facing = state.Facing.String()
	ov.Variant = state.Variant

	FramesTotal.WithLabelValues(frameResult(ov)).Inc()
	for _, lt := range ov.Missing {
		MissingLandmarksTotal.WithLabelValues(lt.String()).Inc()
		s.logger.Debug("pose skipped", zap.Stringer("missing", lt))
	}

	if state.Facing.Mirrored() {
		if err := render.Mirror(frame); err != nil {
			s.logger.Warn("mirror frame", zap.Error(err))
		}
	}
	if ov.Visible {
		if err := render.DrawMat(frame, ov.Segments()); err != nil {
			s.logger.Warn("draw overlay", zap.Error(err))
		}
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		s.logger.Warn("encode frame", zap.Error(err))
	} else {
		jpeg := append([]byte(nil), buf.GetBytes()...)
		buf.Close()
		s.latestMu.Lock()
		s.latestJPEG = jpeg
		s.latestMu.Unlock()
	}

	s.latestMu.Lock()
	s.latestOverlay = ov
	s.latestMu.Unlock()

	s.publish(ov)
}

// LatestJPEG returns the most recent annotated frame, or nil before the first.
func (s *Session) LatestJPEG() []byte {
	s.latestMu.RLock()
	defer s.latestMu.RUnlock()
	return s.latestJPEG
}

// LatestOverlay returns the most recent overlay.
func (s *Session) LatestOverlay() Overlay {
	s.latestMu.RLock()
	defer s.latestMu.RUnlock()
	return s.latestOverlay
}

// Subscribe registers for overlays. A subscriber that falls behind misses
// overlays rather than stalling the frame loop. The returned func unsubscribes
// and closes the channel.
func (s *Session) Subscribe() (<-chan Overlay, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	ch := make(chan Overlay, subscriberBuffer)
	if s.State().Disposed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	Subscribers.Inc()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			if c, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(c)
				Subscribers.Dec()
			}
		})
	}
}

func (s *Session) publish(ov Overlay) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- ov:
		default:
		}
	}
}

// Dispose stops the frame loop, closes the camera and detector and ends every
// subscription. Calling it again is a no-op.
func (s *Session) Dispose() error {
	s.mu.Lock()
	if s.state.Disposed {
		s.mu.Unlock()
		return nil
	}
	s.state.Disposed = true
	s.mu.Unlock()

	s.runMu.Lock()
	if s.stopCh != nil {
		close(s.stopCh)
		<-s.done
		s.stopCh = nil
	}
	s.runMu.Unlock()

	var errs []error
	if err := s.camera.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close camera: %w", err))
	}
	if err := s.detector.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close detector: %w", err))
	}

	s.subMu.Lock()
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
		Subscribers.Dec()
	}
	s.subMu.Unlock()

	s.logger.Info("session disposed")
	return errors.Join(errs...)
}
