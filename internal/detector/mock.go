package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/obitec/bodyway/internal/overlay"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	poses []Pose
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetPoses sets the poses that will be returned by Detect.
func (m *MockDetector) SetPoses(poses []Pose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.poses = poses
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured poses or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Pose, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.poses, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// NewPose builds a Pose from positions with every landmark fully visible.
func NewPose(positions overlay.Landmarks) Pose {
	pose := Pose{
		Landmarks: make(map[overlay.LandmarkType]Landmark, len(positions)),
		Score:     0.95,
	}
	for t, p := range positions {
		pose.Landmarks[t] = Landmark{Position: p, InFrameLikelihood: 0.99}
	}
	return pose
}

// StandingPose returns a front-facing person standing with arms down, in the
// pixel space of a 640x480 frame.
func StandingPose() Pose {
	return NewPose(overlay.Landmarks{
		overlay.Nose:          {X: 320, Y: 80},
		overlay.LeftEyeInner:  {X: 328, Y: 72},
		overlay.LeftEye:       {X: 332, Y: 72},
		overlay.LeftEyeOuter:  {X: 336, Y: 72},
		overlay.RightEyeInner: {X: 312, Y: 72},
		overlay.RightEye:      {X: 308, Y: 72},
		overlay.RightEyeOuter: {X: 304, Y: 72},
		overlay.LeftEar:       {X: 340, Y: 76},
		overlay.RightEar:      {X: 300, Y: 76},
		overlay.MouthLeft:     {X: 328, Y: 92},
		overlay.MouthRight:    {X: 312, Y: 92},

		overlay.LeftShoulder:  {X: 360, Y: 130},
		overlay.RightShoulder: {X: 280, Y: 130},
		overlay.LeftElbow:     {X: 372, Y: 190},
		overlay.RightElbow:    {X: 268, Y: 190},
		overlay.LeftWrist:     {X: 376, Y: 250},
		overlay.RightWrist:    {X: 264, Y: 250},

		overlay.LeftPinkyFinger:  {X: 372, Y: 266},
		overlay.LeftIndexFinger:  {X: 380, Y: 266},
		overlay.LeftThumb:        {X: 384, Y: 258},
		overlay.RightPinkyFinger: {X: 268, Y: 266},
		overlay.RightIndexFinger: {X: 260, Y: 266},
		overlay.RightThumb:       {X: 256, Y: 258},

		overlay.LeftHip:    {X: 344, Y: 260},
		overlay.RightHip:   {X: 296, Y: 260},
		overlay.LeftKnee:   {X: 346, Y: 350},
		overlay.RightKnee:  {X: 294, Y: 350},
		overlay.LeftAnkle:  {X: 348, Y: 440},
		overlay.RightAnkle: {X: 292, Y: 440},
		overlay.LeftHeel:   {X: 346, Y: 448},
		overlay.RightHeel:  {X: 294, Y: 448},
		overlay.LeftToe:    {X: 358, Y: 456},
		overlay.RightToe:   {X: 282, Y: 456},
	})
}

// TPose returns StandingPose with both arms raised horizontally.
func TPose() Pose {
	pose := StandingPose()
	arms := overlay.Landmarks{
		overlay.LeftElbow:        {X: 430, Y: 130},
		overlay.LeftWrist:        {X: 500, Y: 130},
		overlay.LeftPinkyFinger:  {X: 516, Y: 134},
		overlay.LeftIndexFinger:  {X: 516, Y: 126},
		overlay.LeftThumb:        {X: 508, Y: 120},
		overlay.RightElbow:       {X: 210, Y: 130},
		overlay.RightWrist:       {X: 140, Y: 130},
		overlay.RightPinkyFinger: {X: 124, Y: 134},
		overlay.RightIndexFinger: {X: 124, Y: 126},
		overlay.RightThumb:       {X: 132, Y: 120},
	}
	for t, p := range arms {
		pose.Landmarks[t] = Landmark{Position: p, InFrameLikelihood: 0.99}
	}
	return pose
}
