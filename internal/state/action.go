package state

import (
	"fmt"

	"github.com/google/uuid"
)

// Action is a tagged store mutation. Reduce is the only interpreter.
type Action interface {
	actionMarker()
}

// SetGesture records the latest gesture and applies the transition rule.
type SetGesture struct{ Gesture Gesture }

// SetHandPosition records the latest normalized wrist position.
type SetHandPosition struct{ Position HandPosition }

// AddRotationOffset accumulates a manual rotation delta in radians.
type AddRotationOffset struct{ Delta float64 }

// AddPhoto appends a photo. The list never shrinks.
type AddPhoto struct{ Photo Photo }

// SetActivePhoto selects a photo index, or clears the selection when Index is nil.
// A selection only holds while the state is PHOTO_ZOOM.
type SetActivePhoto struct{ Index *int }

// AutoSelectPhoto selects Index only if the store is in PHOTO_ZOOM with no
// selection when the action is applied.
type AutoSelectPhoto struct{ Index int }

// SetAppState forces the application state.
type SetAppState struct{ State AppState }

func (SetGesture) actionMarker()        {}
func (SetHandPosition) actionMarker()   {}
func (AddRotationOffset) actionMarker() {}
func (AddPhoto) actionMarker()          {}
func (SetActivePhoto) actionMarker()    {}
func (AutoSelectPhoto) actionMarker()   {}
func (SetAppState) actionMarker()       {}

// Select returns a SetActivePhoto action for index i.
func Select(i int) SetActivePhoto {
	return SetActivePhoto{Index: &i}
}

// ClearSelection returns a SetActivePhoto action that clears the selection.
func ClearSelection() SetActivePhoto {
	return SetActivePhoto{}
}

// NewPhoto builds a photo with a fresh id. A non-positive aspect ratio becomes 1.
func NewPhoto(url string, aspectRatio float64) Photo {
	if aspectRatio <= 0 {
		aspectRatio = 1
	}
	return Photo{ID: uuid.New().String(), URL: url, AspectRatio: aspectRatio}
}

// Reduce applies a to s and returns the new snapshot. It never fails:
// unknown or invalid payloads leave the snapshot unchanged. Outside
// PHOTO_ZOOM the result never carries a selection.
func Reduce(s Snapshot, a Action) Snapshot {
	switch a := a.(type) {
	case SetGesture:
		if a.Gesture.Valid() {
			s.Gesture = a.Gesture
			s.State = Next(s.State, a.Gesture)
		}

	case SetHandPosition:
		if a.Position.Valid() {
			s.Hand = a.Position
		}

	case AddRotationOffset:
		s.RotationOffset += a.Delta

	case AddPhoto:
		photos := make([]Photo, len(s.Photos), len(s.Photos)+1)
		copy(photos, s.Photos)
		s.Photos = append(photos, a.Photo)

	case SetActivePhoto:
		switch {
		case a.Index == nil:
			s.ActivePhoto = nil
		case *a.Index >= 0 && *a.Index < len(s.Photos):
			i := *a.Index
			s.ActivePhoto = &i
		}

	case AutoSelectPhoto:
		if s.State == PhotoZoom && s.ActivePhoto == nil && a.Index >= 0 && a.Index < len(s.Photos) {
			i := a.Index
			s.ActivePhoto = &i
		}

	case SetAppState:
		if a.State.Valid() {
			s.State = a.State
		}
	}

	if s.State != PhotoZoom {
		s.ActivePhoto = nil
	}
	return s
}

// Describe renders an action for logs.
func Describe(a Action) string {
	switch a := a.(type) {
	case SetGesture:
		return "set_gesture " + string(a.Gesture)
	case SetHandPosition:
		return fmt.Sprintf("set_hand_position %.3f,%.3f", a.Position.X, a.Position.Y)
	case AddRotationOffset:
		return fmt.Sprintf("add_rotation_offset %.4f", a.Delta)
	case AddPhoto:
		return "add_photo " + a.Photo.ID
	case SetActivePhoto:
		if a.Index == nil {
			return "set_active_photo none"
		}
		return fmt.Sprintf("set_active_photo %d", *a.Index)
	case AutoSelectPhoto:
		return fmt.Sprintf("auto_select_photo %d", a.Index)
	case SetAppState:
		return "set_app_state " + string(a.State)
	}
	return fmt.Sprintf("%T", a)
}
