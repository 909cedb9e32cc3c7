package perception

import (
	"math"

	"github.com/ayusman/cakewish/internal/detector"
	"github.com/ayusman/cakewish/internal/state"
)

const (
	// PinchThreshold is the largest thumb-to-index tip distance, in
	// normalized image units, that counts as a pinch.
	PinchThreshold = 0.05

	// TorqueDeadZone is the hand offset from center below which no
	// rotation is applied.
	TorqueDeadZone = 0.2

	// TorqueGain scales hand offset into a rotation delta per frame.
	TorqueGain = 0.02
)

// Classify maps a recognizer result to a gesture. The recognizer's own
// categories win for fist and open palm; otherwise thumb and index tips
// decide between pinch and pointing.
func Classify(res detector.Result) state.Gesture {
	hand, ok := res.Primary()
	if !ok {
		return state.GestureNone
	}

	switch hand.TopGesture() {
	case detector.CategoryClosedFist:
		return state.GestureFist
	case detector.CategoryOpenPalm:
		return state.GestureOpenPalm
	}

	if detector.PlanarDistance(hand.Points[detector.IndexTip], hand.Points[detector.ThumbTip]) < PinchThreshold {
		return state.GesturePinch
	}
	return state.GesturePointing
}

// PositionFromWrist maps a wrist landmark to [-1, 1] on both axes with y up.
// x is mirrored so moving the hand right moves the cursor right on a
// selfie-view preview. Landmarks slightly outside the image are clamped.
func PositionFromWrist(wrist detector.Point3D) state.HandPosition {
	return state.HandPosition{
		X: -2 * (wrist.X - 0.5),
		Y: -2 * (wrist.Y - 0.5),
	}.Clamp()
}

// Torque returns the rotation delta for a hand position, and false inside
// the dead zone.
func Torque(pos state.HandPosition) (float64, bool) {
	if math.Abs(pos.X) <= TorqueDeadZone {
		return 0, false
	}
	return pos.X * TorqueGain, true
}

// Actions lists the store actions one recognition result produces, in
// dispatch order.
func Actions(res detector.Result) []state.Action {
	hand, ok := res.Primary()
	if !ok {
		return []state.Action{state.SetGesture{Gesture: state.GestureNone}}
	}

	pos := PositionFromWrist(hand.Points[detector.Wrist])
	actions := []state.Action{
		state.SetGesture{Gesture: Classify(res)},
		state.SetHandPosition{Position: pos},
	}
	if delta, ok := Torque(pos); ok {
		actions = append(actions, state.AddRotationOffset{Delta: delta})
	}
	return actions
}
