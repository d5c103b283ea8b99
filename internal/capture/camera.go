// Package capture provides camera capture functionality using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera settings
const (
	DefaultFPS    = 15
	DefaultWidth  = 640
	DefaultHeight = 480
)

// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
var ErrCameraNotOpen = errors.New("camera is not open")

// ErrNoDevice is returned when no device is configured for a facing.
var ErrNoDevice = errors.New("no camera device for facing")

// Facing is the direction a camera points relative to the user.
type Facing int

const (
	// Front is the user-facing camera. Its preview is shown mirrored.
	Front Facing = iota
	// Back is the world-facing camera.
	Back
)

func (f Facing) String() string {
	switch f {
	case Front:
		return "front"
	case Back:
		return "back"
	default:
		return fmt.Sprintf("Facing(%d)", int(f))
	}
}

// Other returns the opposite facing.
func (f Facing) Other() Facing {
	if f == Front {
		return Back
	}
	return Front
}

// Mirrored reports whether previews for this facing are flipped horizontally.
func (f Facing) Mirrored() bool {
	return f == Front
}

// ParseFacing parses "front" or "back".
func ParseFacing(s string) (Facing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "front":
		return Front, nil
	case "back":
		return Back, nil
	default:
		return Front, fmt.Errorf("unknown camera facing %q", s)
	}
}

// Devices maps each facing to an OpenCV device ID.
type Devices map[Facing]int

// Camera defines the interface for camera capture implementations.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
	Facing() Facing
	SetFacing(f Facing) error
}

// cameraImpl manages video capture from camera devices using GoCV.
type cameraImpl struct {
	devices Devices
	facing  Facing
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
	fps     int
}

// NewCamera creates a new Camera over devices, starting with facing.
func NewCamera(devices Devices, facing Facing) Camera {
	return &cameraImpl{
		devices: devices,
		facing:  facing,
		fps:     DefaultFPS,
	}
}

// Open opens the device for the current facing.
// It sets the resolution to 640x480 for performance.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.openLocked()
}

func (c *cameraImpl) openLocked() error {
	if c.running {
		return nil
	}

	deviceID, ok := c.devices[c.facing]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoDevice, c.facing)
	}

	capture, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return err
	}

	capture.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
	capture.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)
	capture.Set(gocv.VideoCaptureFPS, float64(c.fps))

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the camera and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closeLocked()
}

func (c *cameraImpl) closeLocked() error {
	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame from the camera.
// The caller is responsible for closing the returned Mat.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}

	return &mat, nil
}

// SetFPS sets the frames per second for capture.
// Values less than or equal to 0 are ignored.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps

	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fps
}

// IsOpen returns true if the camera is currently open and running.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}

// Facing returns the current facing.
func (c *cameraImpl) Facing() Facing {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.facing
}

// SetFacing selects the device for f. An open camera is closed and reopened on
// the new device; if that fails the previous facing is restored.
func (c *cameraImpl) SetFacing(f Facing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f == c.facing {
		return nil
	}
	if _, ok := c.devices[f]; !ok {
		return fmt.Errorf("%w: %s", ErrNoDevice, f)
	}

	if !c.running {
		c.facing = f
		return nil
	}

	prev := c.facing
	if err := c.closeLocked(); err != nil {
		return err
	}
	c.facing = f
	if err := c.openLocked(); err != nil {
		c.facing = prev
		if reopenErr := c.openLocked(); reopenErr != nil {
			return errors.Join(err, reopenErr)
		}
		return err
	}
	return nil
}
