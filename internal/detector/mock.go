package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockRecognizer is a test implementation of the Recognizer interface.
// It allows tests to control the recognition results and records the
// timestamps it was called with.
type MockRecognizer struct {
	mu         sync.Mutex
	result     Result
	err        error
	panicMsg   string
	guard      timestampGuard
	timestamps []int64
	closed     bool
}

// NewMockRecognizer creates a new MockRecognizer instance.
func NewMockRecognizer() *MockRecognizer {
	return &MockRecognizer{}
}

// SetHands sets the hands that will be returned by Recognize.
func (m *MockRecognizer) SetHands(hands ...Hand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = Result{Hands: hands}
}

// SetError sets the error that will be returned by Recognize.
func (m *MockRecognizer) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetPanic makes the next Recognize call panic with msg.
func (m *MockRecognizer) SetPanic(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panicMsg = msg
}

// Recognize returns the pre-configured result or error.
func (m *MockRecognizer) Recognize(frame *gocv.Mat, timestampMs int64) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Result{}, ErrRecognizerClosed
	}
	if err := m.guard.check(timestampMs); err != nil {
		return Result{}, err
	}
	m.timestamps = append(m.timestamps, timestampMs)

	if m.panicMsg != "" {
		msg := m.panicMsg
		m.panicMsg = ""
		panic(msg)
	}
	if m.err != nil {
		return Result{}, m.err
	}
	return m.result, nil
}

// Timestamps returns the accepted timestamps in call order.
func (m *MockRecognizer) Timestamps() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int64, len(m.timestamps))
	copy(out, m.timestamps)
	return out
}

// Calls returns how many frames were accepted.
func (m *MockRecognizer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timestamps)
}

// Close marks the recognizer closed.
func (m *MockRecognizer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockRecognizer) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// FistHand returns a preset Hand with all fingers curled, classified as a
// closed fist.
func FistHand() Hand {
	hand := Hand{
		Handedness: "Right",
		Score:      0.95,
		Gestures:   []Category{{Name: CategoryClosedFist, Score: 0.9}},
	}

	hand.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	// Thumb folded across the fingers
	hand.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.0}
	hand.Points[ThumbMCP] = Point3D{X: 0.57, Y: 0.70, Z: -0.01}
	hand.Points[ThumbIP] = Point3D{X: 0.55, Y: 0.66, Z: -0.03}
	hand.Points[ThumbTip] = Point3D{X: 0.50, Y: 0.66, Z: -0.04}

	// Index finger curled (knuckles close together, tip near palm)
	hand.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.70, Z: -0.02}
	hand.Points[IndexPIP] = Point3D{X: 0.55, Y: 0.64, Z: -0.05}
	hand.Points[IndexDIP] = Point3D{X: 0.54, Y: 0.68, Z: -0.04}
	hand.Points[IndexTip] = Point3D{X: 0.54, Y: 0.72, Z: -0.02}

	// Middle finger curled
	hand.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.68, Z: -0.02}
	hand.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.66, Z: -0.05}
	hand.Points[MiddleDIP] = Point3D{X: 0.47, Y: 0.68, Z: -0.04}
	hand.Points[MiddleTip] = Point3D{X: 0.45, Y: 0.70, Z: -0.02}

	// Ring finger curled
	hand.Points[RingMCP] = Point3D{X: 0.45, Y: 0.70, Z: -0.02}
	hand.Points[RingPIP] = Point3D{X: 0.45, Y: 0.68, Z: -0.05}
	hand.Points[RingDIP] = Point3D{X: 0.42, Y: 0.70, Z: -0.04}
	hand.Points[RingTip] = Point3D{X: 0.40, Y: 0.72, Z: -0.02}

	// Pinky finger curled
	hand.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.72, Z: -0.02}
	hand.Points[PinkyPIP] = Point3D{X: 0.40, Y: 0.70, Z: -0.05}
	hand.Points[PinkyDIP] = Point3D{X: 0.37, Y: 0.72, Z: -0.04}
	hand.Points[PinkyTip] = Point3D{X: 0.35, Y: 0.74, Z: -0.02}

	return hand
}

// OpenPalmHand returns a preset Hand with all fingers extended, classified
// as an open palm.
func OpenPalmHand() Hand {
	hand := Hand{
		Handedness: "Right",
		Score:      0.95,
		Gestures:   []Category{{Name: CategoryOpenPalm, Score: 0.92}},
	}

	hand.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	// Thumb extended to the side
	hand.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	hand.Points[ThumbMCP] = Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	hand.Points[ThumbIP] = Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	hand.Points[ThumbTip] = Point3D{X: 0.73, Y: 0.60, Z: 0.03}

	// Index finger extended upward
	hand.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	hand.Points[IndexPIP] = Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	hand.Points[IndexDIP] = Point3D{X: 0.58, Y: 0.45, Z: 0.0}
	hand.Points[IndexTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	// Middle finger extended upward (slightly longer)
	hand.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	hand.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.52, Z: 0.0}
	hand.Points[MiddleDIP] = Point3D{X: 0.50, Y: 0.40, Z: 0.0}
	hand.Points[MiddleTip] = Point3D{X: 0.50, Y: 0.28, Z: 0.0}

	// Ring finger extended upward
	hand.Points[RingMCP] = Point3D{X: 0.45, Y: 0.68, Z: 0.0}
	hand.Points[RingPIP] = Point3D{X: 0.43, Y: 0.55, Z: 0.0}
	hand.Points[RingDIP] = Point3D{X: 0.42, Y: 0.45, Z: 0.0}
	hand.Points[RingTip] = Point3D{X: 0.42, Y: 0.35, Z: 0.0}

	// Pinky finger extended upward
	hand.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.70, Z: 0.0}
	hand.Points[PinkyPIP] = Point3D{X: 0.37, Y: 0.60, Z: 0.0}
	hand.Points[PinkyDIP] = Point3D{X: 0.35, Y: 0.50, Z: 0.0}
	hand.Points[PinkyTip] = Point3D{X: 0.34, Y: 0.42, Z: 0.0}

	return hand
}

// PinchHand returns a preset Hand with thumb and index tips touching and no
// recognized category.
func PinchHand() Hand {
	hand := OpenPalmHand()
	hand.Gestures = []Category{{Name: CategoryNone, Score: 0.7}}

	hand.Points[ThumbIP] = Point3D{X: 0.62, Y: 0.55, Z: 0.01}
	hand.Points[ThumbTip] = Point3D{X: 0.60, Y: 0.47, Z: 0.0}
	hand.Points[IndexDIP] = Point3D{X: 0.60, Y: 0.50, Z: 0.0}
	hand.Points[IndexTip] = Point3D{X: 0.61, Y: 0.48, Z: 0.0}

	return hand
}

// PointingHand returns a preset Hand with only the index finger extended.
func PointingHand() Hand {
	hand := FistHand()
	hand.Gestures = []Category{{Name: CategoryPointingUp, Score: 0.85}}

	hand.Points[IndexPIP] = Point3D{X: 0.56, Y: 0.55, Z: 0.0}
	hand.Points[IndexDIP] = Point3D{X: 0.57, Y: 0.45, Z: 0.0}
	hand.Points[IndexTip] = Point3D{X: 0.57, Y: 0.35, Z: 0.0}

	return hand
}

// WithWrist returns h translated so its wrist sits at (x, y).
func WithWrist(h Hand, x, y float64) Hand {
	dx := x - h.Points[Wrist].X
	dy := y - h.Points[Wrist].Y
	for i := range h.Points {
		h.Points[i].X += dx
		h.Points[i].Y += dy
	}
	return h
}
