package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/obitec/bodyway/internal/overlay"
)

// ErrScriptNotFound is returned when the pose service script cannot be located.
var ErrScriptNotFound = errors.New("pose_service.py not found")

// ErrResponseTimeout is returned when the pose service does not answer a frame in time.
var ErrResponseTimeout = errors.New("pose service response timed out")

const (
	scriptName             = "pose_service.py"
	defaultResponseTimeout = 10 * time.Second
)

// MediaPipeDetector implements Detector using a Python MediaPipe Pose subprocess.
type MediaPipeDetector struct {
	config     Config
	scriptPath string
	logger     *zap.Logger
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stdout     *bufio.Reader
	mu         sync.Mutex
	started    bool
	lastUsed   time.Time
	idleTimer  *time.Timer
	timeout    time.Duration

	// launch starts the service and sets cmd, stdin and stdout.
	launch func() error
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config, logger *zap.Logger) (*MediaPipeDetector, error) {
	scriptPath := findScript()
	if scriptPath == "" {
		return nil, ErrScriptNotFound
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := time.Duration(config.ResponseTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = defaultResponseTimeout
	}

	d := &MediaPipeDetector{
		config:     config,
		scriptPath: scriptPath,
		logger:     logger,
		timeout:    timeout,
	}
	d.launch = d.startProcess
	return d, nil
}

// Detect analyzes a frame and returns detected poses in pixel coordinates.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]Pose, error) {
	if frame == nil || frame.Empty() {
		return nil, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	if err := writeFrame(d.stdin, buf.GetBytes()); err != nil {
		d.abort(err)
		return nil, err
	}

	line, err := d.readLine()
	if err != nil {
		d.abort(err)
		return nil, fmt.Errorf("read response: %w", err)
	}

	poses, err := decodeResponse([]byte(line), float64(frame.Cols()), float64(frame.Rows()))
	if err != nil {
		return nil, err
	}

	d.lastUsed = time.Now()
	d.resetIdleTimer()

	return poses, nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

// writeFrame sends a 4-byte big-endian length followed by the JPEG bytes.
func writeFrame(w io.Writer, data []byte) error {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := w.Write(length); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	return nil
}

// readLine reads one response line, giving up after the response timeout.
func (d *MediaPipeDetector) readLine() (string, error) {
	type result struct {
		line string
		err  error
	}

	stdout := d.stdout
	ch := make(chan result, 1)
	go func() {
		line, err := stdout.ReadString('\n')
		ch <- result{line: line, err: err}
	}()

	timer := time.NewTimer(d.timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r.line, r.err
	case <-timer.C:
		return "", ErrResponseTimeout
	}
}

// abort kills a failed service so the next Detect starts a fresh one.
func (d *MediaPipeDetector) abort(cause error) {
	d.logger.Warn("pose service failed, restarting on next frame", zap.Error(cause))
	if d.cmd != nil && d.cmd.Process != nil {
		_ = d.cmd.Process.Kill()
	}
	_ = d.shutdown()
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}
	if err := d.launch(); err != nil {
		return err
	}
	d.started = true
	d.lastUsed = time.Now()
	return nil
}

func (d *MediaPipeDetector) startProcess() error {
	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, d.scriptPath,
		"--model-complexity", strconv.Itoa(d.config.ModelComplexity))

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start pose service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)

	d.logger.Info("pose service started",
		zap.String("python", pythonPath),
		zap.String("script", d.scriptPath),
		zap.Int("pid", d.cmd.Process.Pid))

	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	var err error
	if d.cmd != nil {
		err = d.cmd.Wait()
	}
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	d.logger.Info("pose service stopped")
	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.config.IdleTimeoutSec <= 0 {
		return
	}
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(time.Duration(d.config.IdleTimeoutSec)*time.Second, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if err := d.shutdown(); err != nil {
			d.logger.Warn("pose service idle shutdown", zap.Error(err))
		}
	})
}

func findScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", scriptName),
		filepath.Join("..", "scripts", scriptName),
		filepath.Join(execDir, "scripts", scriptName),
		filepath.Join(os.Getenv("HOME"), ".bodyway", "scripts", scriptName),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".bodyway/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonPose is one pose as written by the Python service. Landmarks are in
// MediaPipe index order with coordinates normalized to the frame size.
type jsonPose struct {
	Landmarks []jsonPoint `json:"landmarks"`
	Score     float64     `json:"score"`
}

type jsonPoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

type jsonResponse struct {
	Poses []jsonPose `json:"poses"`
	Error string     `json:"error,omitempty"`
}

// decodeResponse parses one response line and scales normalized coordinates to
// pixels. MediaPipe's z uses roughly the same scale as x.
func decodeResponse(line []byte, width, height float64) ([]Pose, error) {
	var resp jsonResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("pose service: %s", resp.Error)
	}

	poses := make([]Pose, 0, len(resp.Poses))
	for _, p := range resp.Poses {
		poses = append(poses, p.toPose(width, height))
	}
	return poses, nil
}

func (p jsonPose) toPose(width, height float64) Pose {
	pose := Pose{
		Landmarks: make(map[overlay.LandmarkType]Landmark, len(p.Landmarks)),
		Score:     p.Score,
	}

	for i := 0; i < int(overlay.NumLandmarkTypes) && i < len(p.Landmarks); i++ {
		pt := p.Landmarks[i]
		pose.Landmarks[overlay.LandmarkType(i)] = Landmark{
			Position: overlay.Point3D{
				X: pt.X * width,
				Y: pt.Y * height,
				Z: pt.Z * width,
			},
			InFrameLikelihood: pt.Visibility,
		}
	}

	return pose
}
