package capture

import (
	"errors"
	"testing"
)

func TestNewCamera(t *testing.T) {
	for _, deviceID := range []int{0, 1, 2} {
		cam := NewCamera(Options{DeviceID: deviceID})

		if cam == nil {
			t.Fatal("NewCamera returned nil")
		}
		if got := cam.FPS(); got != DefaultFPS {
			t.Errorf("device %d: FPS() = %d, want %d (default)", deviceID, got, DefaultFPS)
		}
		if cam.IsOpen() {
			t.Errorf("device %d: camera should not be running initially", deviceID)
		}
	}
}

func TestCamera_SetFPS(t *testing.T) {
	cam := NewCamera(Options{})

	tests := []struct {
		name    string
		fps     int
		wantFPS int
	}{
		{"set to 10", 10, 10},
		{"set to 30", 30, 30},
		{"set to 1", 1, 1},
		{"set to 0 should keep previous", 0, 1},
		{"set to negative should keep previous", -5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam.SetFPS(tt.fps)

			if got := cam.FPS(); got != tt.wantFPS {
				t.Errorf("FPS() = %d, want %d", got, tt.wantFPS)
			}
		})
	}
}

func TestCamera_OpenClose_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cam := NewCamera(Options{})

	if err := cam.Open(); err != nil {
		t.Skipf("skipping test - camera not available: %v", err)
	}

	if !cam.IsOpen() {
		t.Error("IsOpen() should return true after Open()")
	}

	first, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() failed: %v", err)
	}
	defer first.Close()

	if first.Mat == nil || first.Mat.Empty() {
		t.Fatal("ReadFrame() returned an empty frame")
	}
	if first.Mat.Cols() != DefaultWidth || first.Mat.Rows() != DefaultHeight {
		t.Logf("Frame dimensions: %dx%d (camera may not support %dx%d)",
			first.Mat.Cols(), first.Mat.Rows(), DefaultWidth, DefaultHeight)
	}

	second, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("second ReadFrame() failed: %v", err)
	}
	defer second.Close()

	if second.Position == first.Position {
		t.Errorf("consecutive live frames share position %f", first.Position)
	}

	if err := cam.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if cam.IsOpen() {
		t.Error("IsOpen() should return false after Close()")
	}
}

func TestCamera_ReadFrame_NotOpened(t *testing.T) {
	cam := NewCamera(Options{})

	_, err := cam.ReadFrame()
	if !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}
}

func TestCamera_Close_NotOpened(t *testing.T) {
	cam := NewCamera(Options{})

	// Close on not opened camera should not panic and return nil
	if err := cam.Close(); err != nil {
		t.Errorf("Close() on not opened camera should return nil, got: %v", err)
	}
}

func TestOptions_WithDefaults(t *testing.T) {
	got := Options{DeviceID: 2, Width: 1280}.withDefaults()
	want := Options{DeviceID: 2, Width: 1280, Height: DefaultHeight, FPS: DefaultFPS}
	if got != want {
		t.Errorf("withDefaults() = %+v, want %+v", got, want)
	}

	if cam := NewCamera(Options{FPS: 12}); cam.FPS() != 12 {
		t.Errorf("FPS() = %d, want 12", cam.FPS())
	}
}

func TestFrame_CloseNil(t *testing.T) {
	// Closing a zero frame must not panic.
	Frame{}.Close()
}
