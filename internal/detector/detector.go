package detector

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

var (
	// ErrTimestampNotIncreasing is returned when a frame timestamp is not
	// strictly greater than the previous one.
	ErrTimestampNotIncreasing = errors.New("timestamp not increasing")

	// ErrRecognizerClosed is returned by Recognize after Close.
	ErrRecognizerClosed = errors.New("recognizer closed")
)

// Recognizer defines the interface for hand gesture recognition implementations.
type Recognizer interface {
	// Recognize analyzes a video frame taken at timestampMs. Timestamps must
	// strictly increase across calls. An empty Result means no hand.
	Recognize(frame *gocv.Mat, timestampMs int64) (Result, error)

	// Close releases any resources held by the recognizer.
	Close() error
}

// Interrupter is implemented by recognizers whose Recognize can block on an
// outside process. Interrupt makes an in-flight Recognize return promptly
// and fails later calls with ErrRecognizerClosed. It is safe to call
// concurrently with Recognize and Close, and more than once.
type Interrupter interface {
	Interrupt()
}

// Config holds configuration options for gesture recognition.
type Config struct {
	// Python is the interpreter used to run the service script. Empty means
	// search for a virtualenv, then python3.
	Python string

	// Script is the path to the recognizer service. Empty means search the
	// usual locations.
	Script string

	// Model is the gesture recognizer model file passed to the service.
	Model string

	// NumHands is the maximum number of hands to report (default: 1).
	NumHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		NumHands:      1,
		MinConfidence: 0.5,
	}
}

// timestampGuard enforces strictly increasing timestamps.
type timestampGuard struct {
	last int64
	seen bool
}

func (g *timestampGuard) check(ts int64) error {
	if g.seen && ts <= g.last {
		return fmt.Errorf("%w: %d after %d", ErrTimestampNotIncreasing, ts, g.last)
	}
	g.last = ts
	g.seen = true
	return nil
}
