package state

// Next returns the state reached from current when gesture is observed.
//
//	any       + FIST      -> ASSEMBLED
//	any       + OPEN_PALM -> SCATTERED
//	SCATTERED + PINCH     -> PHOTO_ZOOM
//	otherwise             -> unchanged
func Next(current AppState, gesture Gesture) AppState {
	switch gesture {
	case GestureFist:
		return Assembled
	case GestureOpenPalm:
		return Scattered
	case GesturePinch:
		if current == Scattered {
			return PhotoZoom
		}
	}
	return current
}
