package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestMockCamera_Playback(t *testing.T) {
	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame1, &frame2}, false)

	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	f1, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	f1.Close()

	f2, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	f2.Close()

	// Third read should fail (no loop)
	if _, err = cam.ReadFrame(); err == nil {
		t.Error("expected error after all frames consumed")
	}
}

func TestMockCamera_Loop(t *testing.T) {
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame}, true)
	cam.Open()
	defer cam.Close()

	for i := 0; i < 5; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() iteration %d error = %v", i, err)
		}
		f.Close()
	}
}

func TestMockCamera_NotOpen(t *testing.T) {
	cam := NewMockCamera(nil, false)

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}
}

func TestMockCamera_SetFacing(t *testing.T) {
	cam := NewMockCamera(nil, false)

	if err := cam.SetFacing(Back); err != nil {
		t.Fatalf("SetFacing() error = %v", err)
	}
	if err := cam.SetFacing(Back); err != nil {
		t.Fatalf("SetFacing() error = %v", err)
	}
	if cam.Facing() != Back {
		t.Errorf("Facing() = %v, want back", cam.Facing())
	}
	if cam.Switches() != 1 {
		t.Errorf("Switches() = %d, want 1", cam.Switches())
	}

	failure := errors.New("device busy")
	cam.SetFacingError(failure)
	if err := cam.SetFacing(Front); !errors.Is(err, failure) {
		t.Errorf("SetFacing() error = %v, want %v", err, failure)
	}
	if cam.Facing() != Back {
		t.Error("facing should not change when the switch fails")
	}
}

var _ Camera = (*MockCamera)(nil)
