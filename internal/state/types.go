// Package state holds the application state machine: the current mode, the
// latest gesture and hand position, the accumulated rotation offset and the
// photo list. Changes happen only through Actions applied by Reduce.
package state

// AppState is the mode that governs every entity's animation target.
type AppState string

const (
	// Assembled gathers particles into the cake shape. It is the initial state.
	Assembled AppState = "ASSEMBLED"
	// Scattered spreads particles into a floating cloud.
	Scattered AppState = "SCATTERED"
	// PhotoZoom brings one photo to the front.
	PhotoZoom AppState = "PHOTO_ZOOM"
)

// Valid reports whether s is one of the known states.
func (s AppState) Valid() bool {
	switch s {
	case Assembled, Scattered, PhotoZoom:
		return true
	}
	return false
}

// StatusText is the headline shown for the state.
func (s AppState) StatusText() string {
	switch s {
	case Assembled:
		return "Happy Birthday!"
	case Scattered:
		return "Make a wish..."
	case PhotoZoom:
		return "Memory Lane"
	}
	return ""
}

// Gesture is the per-frame classification of the detected hand pose.
type Gesture string

const (
	GestureNone     Gesture = "NONE"
	GestureFist     Gesture = "FIST"
	GestureOpenPalm Gesture = "OPEN_PALM"
	GesturePinch    Gesture = "PINCH"
	GesturePointing Gesture = "POINTING"
)

// Valid reports whether g is one of the known gestures.
func (g Gesture) Valid() bool {
	switch g {
	case GestureNone, GestureFist, GestureOpenPalm, GesturePinch, GesturePointing:
		return true
	}
	return false
}

// Hint is the footer line describing what the gesture does.
func (g Gesture) Hint() string {
	switch g {
	case GestureFist:
		return "Fist detected: Assembling"
	case GestureOpenPalm:
		return "Open Palm: Scattering"
	case GesturePinch:
		return "Pinch: Zooming"
	case GesturePointing:
		return "Tracking Hand"
	}
	return "Position hand in camera..."
}

// HandPosition is the wrist position normalized to [-1, 1] on both axes,
// with +Y pointing up.
type HandPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Valid reports whether both axes lie in [-1, 1].
func (p HandPosition) Valid() bool {
	return p.X >= -1 && p.X <= 1 && p.Y >= -1 && p.Y <= 1
}

// Clamp returns p with both axes limited to [-1, 1]. NaN becomes 0.
func (p HandPosition) Clamp() HandPosition {
	return HandPosition{X: clampUnit(p.X), Y: clampUnit(p.Y)}
}

func clampUnit(v float64) float64 {
	switch {
	case v != v:
		return 0
	case v < -1:
		return -1
	case v > 1:
		return 1
	}
	return v
}

// Photo is a user-supplied image shown on the photo ring.
type Photo struct {
	ID          string  `json:"id"`
	URL         string  `json:"url"`
	AspectRatio float64 `json:"aspect_ratio"`
}

// Snapshot is an immutable view of the whole store.
// Photos must not be modified in place; Reduce always copies.
type Snapshot struct {
	State          AppState     `json:"state"`
	Gesture        Gesture      `json:"gesture"`
	Hand           HandPosition `json:"hand"`
	RotationOffset float64      `json:"rotation_offset"`
	Photos         []Photo      `json:"photos"`
	ActivePhoto    *int         `json:"active_photo"`
}

// Initial returns the snapshot the store starts from.
func Initial() Snapshot {
	return Snapshot{
		State:   Assembled,
		Gesture: GestureNone,
		Photos:  []Photo{},
	}
}

// ActiveIndex returns the active photo index and whether one is selected.
func (s Snapshot) ActiveIndex() (int, bool) {
	if s.ActivePhoto == nil {
		return 0, false
	}
	return *s.ActivePhoto, true
}
