// Package detector provides hand gesture recognition interfaces and types.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Gesture category names reported by the MediaPipe gesture recognizer.
const (
	CategoryNone       = "None"
	CategoryClosedFist = "Closed_Fist"
	CategoryOpenPalm   = "Open_Palm"
	CategoryPointingUp = "Pointing_Up"
	CategoryThumbUp    = "Thumb_Up"
	CategoryVictory    = "Victory"
)

// Point3D represents a landmark in normalized image coordinates: x and y in
// [0, 1] from the top-left corner, z relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Category is one classified gesture with its confidence.
type Category struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Hand is one detected hand: the 21 landmarks plus its gesture categories,
// best first.
type Hand struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
	Gestures   []Category            `json:"gestures"`
}

// TopGesture returns the highest ranked category name, or "" if none.
func (h Hand) TopGesture() string {
	if len(h.Gestures) == 0 {
		return ""
	}
	return h.Gestures[0].Name
}

// Result is the outcome of recognizing one frame.
type Result struct {
	Hands []Hand `json:"hands"`
}

// Primary returns the first detected hand.
func (r Result) Primary() (Hand, bool) {
	if len(r.Hands) == 0 {
		return Hand{}, false
	}
	return r.Hands[0], true
}

// PlanarDistance is the distance between a and b ignoring depth.
func PlanarDistance(a, b Point3D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
