package rowan

import (
	"math"
	"time"
)

const (
	inchesToCM  = 2.54
	dragDeltaCM = 0.1 * inchesToCM
	dragDeltaSq = dragDeltaCM * dragDeltaCM

	twistThresholdRad = 5.0 * degreesToRadians

	pinchDeltaCM = 0.05 * inchesToCM
)

// pinchDirectionThreshold gates pinch starts: each moving touch must travel
// within 30 degrees of the line between the two touches.
var pinchDirectionThreshold = math.Cos(30.0 * degreesToRadians)

// calculateDeltaRotation returns the signed angle (radians) the segment
// between two touches rotated through, from the previous positions to the
// current ones. Positive is counter-clockwise in touchpad space.
func calculateDeltaRotation(cur1, cur2, prev1, prev2 Vec2) float64 {
	curDir := cur1.Sub(cur2).Normalized()
	prevDir := prev1.Sub(prev2).Normalized()
	sign := 1.0
	if prevDir.Cross(curDir) <= 0 {
		sign = -1.0
	}
	return curDir.Angle(prevDir) * sign
}

// OneFingerDragCallback receives the drag's state and the touch's current
// normalized location each frame. On GestureEnding and GestureCanceled the
// location is InvalidTouchLocation; a canceled drag should revert its side
// effects.
type OneFingerDragCallback func(state GestureState, target Entity, location Vec2)

// OneFingerDragRecognizer starts a drag once a single unowned touch has moved
// at least 0.1 inches from where it went down.
type OneFingerDragRecognizer struct {
	RecognizerBase
	callback OneFingerDragCallback
}

// NewOneFingerDragRecognizer creates a drag recognizer named "OneFingerDrag".
func NewOneFingerDragRecognizer(callback OneFingerDragCallback) *OneFingerDragRecognizer {
	return &OneFingerDragRecognizer{
		RecognizerBase: NewRecognizerBase("OneFingerDrag", 1),
		callback:       callback,
	}
}

// TryStart starts a drag if the touch is unowned and has moved past the drag
// threshold since it went down.
func (r *OneFingerDragRecognizer) TryStart(device DeviceType, touchpad TouchpadID, ids []TouchID) Gesture {
	// If the touch is already owned, ignore it.
	if r.processor.GetTouchOwner(device, touchpad, ids[0]) != nil {
		return nil
	}

	startPos := r.touchpadSizeCM.Mul(r.input.GetTouchGestureOrigin(device, touchpad, ids[0]))
	curPos := r.touchpadSizeCM.Mul(r.input.GetTouchLocation(device, touchpad, ids[0]))
	deltaCM := startPos.Sub(curPos)

	if deltaCM.LengthSquared() >= dragDeltaSq {
		return &oneFingerDrag{callback: r.callback}
	}
	return nil
}

type oneFingerDrag struct {
	GestureBase
	callback OneFingerDragCallback
}

func (g *oneFingerDrag) AdvanceFrame(dt time.Duration) GestureState {
	if g.state == GestureCanceled {
		// Callback should revert changes.
		g.callback(g.state, g.target, InvalidTouchLocation)
		return g.state
	}
	if !g.input.IsValidTouch(g.device, g.touchpad, g.ids[0]) {
		// Touch has been released, so end the gesture. Set state before the
		// callback, since this will be the last call.
		g.state = GestureEnding
		g.callback(g.state, g.target, InvalidTouchLocation)
		return g.state
	}
	curPos := g.input.GetTouchLocation(g.device, g.touchpad, g.ids[0])
	g.callback(g.state, g.target, curPos)
	// Set state after the callback, so that the first frame reports
	// GestureStarting.
	g.state = GestureRunning
	return g.state
}

// TwistCallback receives the twist's state and the rotation in radians since
// the previous frame. On GestureEnding and GestureCanceled the rotation is 0;
// a canceled twist should revert its side effects.
type TwistCallback func(state GestureState, target Entity, rotationRad float64)

// TwistRecognizer starts a twist once two unowned, moving touches have
// rotated the segment between them by at least 5 degrees from where they
// went down.
type TwistRecognizer struct {
	RecognizerBase
	callback TwistCallback
}

// NewTwistRecognizer creates a twist recognizer named "Twist".
func NewTwistRecognizer(callback TwistCallback) *TwistRecognizer {
	return &TwistRecognizer{
		RecognizerBase: NewRecognizerBase("Twist", 2),
		callback:       callback,
	}
}

// TryStart starts a twist if both touches are unowned, both are moving, and
// the line between them has rotated past the twist threshold.
func (r *TwistRecognizer) TryStart(device DeviceType, touchpad TouchpadID, ids []TouchID) Gesture {
	if r.processor.GetTouchOwner(device, touchpad, ids[0]) != nil ||
		r.processor.GetTouchOwner(device, touchpad, ids[1]) != nil {
		return nil
	}

	delta1 := r.input.GetTouchDelta(device, touchpad, ids[0])
	delta2 := r.input.GetTouchDelta(device, touchpad, ids[1])
	// Make sure both touches are moving.
	if delta1.LengthSquared() < 0.00001 || delta2.LengthSquared() < 0.00001 {
		return nil
	}

	// All positions must be in cm before calculating rotation.
	startPos1 := r.touchpadSizeCM.Mul(r.input.GetTouchGestureOrigin(device, touchpad, ids[0]))
	curPos1 := r.touchpadSizeCM.Mul(r.input.GetTouchLocation(device, touchpad, ids[0]))
	startPos2 := r.touchpadSizeCM.Mul(r.input.GetTouchGestureOrigin(device, touchpad, ids[1]))
	curPos2 := r.touchpadSizeCM.Mul(r.input.GetTouchLocation(device, touchpad, ids[1]))

	rotation := calculateDeltaRotation(curPos1, curPos2, startPos1, startPos2)
	if math.Abs(rotation) > twistThresholdRad {
		return &twist{callback: r.callback}
	}
	return nil
}

type twist struct {
	GestureBase
	callback TwistCallback
}

func (g *twist) AdvanceFrame(dt time.Duration) GestureState {
	if g.state == GestureCanceled {
		// Callback should revert changes.
		g.callback(g.state, g.target, 0.0)
		return g.state
	}
	if !g.input.IsValidTouch(g.device, g.touchpad, g.ids[0]) ||
		!g.input.IsValidTouch(g.device, g.touchpad, g.ids[1]) {
		// A touch has been released, so end the gesture. Set state before the
		// callback, since this will be the last call.
		g.state = GestureEnding
		g.callback(g.state, g.target, 0.0)
		return g.state
	}

	prevPos1 := g.touchpadSizeCM.Mul(g.input.GetPreviousTouchLocation(g.device, g.touchpad, g.ids[0]))
	curPos1 := g.touchpadSizeCM.Mul(g.input.GetTouchLocation(g.device, g.touchpad, g.ids[0]))
	prevPos2 := g.touchpadSizeCM.Mul(g.input.GetPreviousTouchLocation(g.device, g.touchpad, g.ids[1]))
	curPos2 := g.touchpadSizeCM.Mul(g.input.GetTouchLocation(g.device, g.touchpad, g.ids[1]))

	rotation := calculateDeltaRotation(curPos1, curPos2, prevPos1, prevPos2)
	g.callback(g.state, g.target, rotation)
	// Set state after the callback, so that the first frame reports
	// GestureStarting.
	g.state = GestureRunning
	return g.state
}

// PinchCallback receives the pinch's state and the ratio of the current gap
// between the touches to the gap when the gesture initialized. On
// GestureEnding and GestureCanceled the ratio is 1; a canceled pinch should
// revert its side effects.
type PinchCallback func(state GestureState, target Entity, ratio float64)

// PinchRecognizer starts a pinch once the gap between two unowned touches
// has changed by at least 0.05 inches, with each moving touch traveling
// roughly along the line between them.
type PinchRecognizer struct {
	RecognizerBase
	callback PinchCallback
}

// NewPinchRecognizer creates a pinch recognizer named "Pinch".
func NewPinchRecognizer(callback PinchCallback) *PinchRecognizer {
	return &PinchRecognizer{
		RecognizerBase: NewRecognizerBase("Pinch", 2),
		callback:       callback,
	}
}

// TryStart starts a pinch if both touches are unowned, each moving touch is
// heading toward or away from the other, and the gap between them has
// changed past the pinch threshold.
func (r *PinchRecognizer) TryStart(device DeviceType, touchpad TouchpadID, ids []TouchID) Gesture {
	if r.processor.GetTouchOwner(device, touchpad, ids[0]) != nil ||
		r.processor.GetTouchOwner(device, touchpad, ids[1]) != nil {
		return nil
	}

	delta1 := r.touchpadSizeCM.Mul(r.input.GetTouchDelta(device, touchpad, ids[0]))
	delta2 := r.touchpadSizeCM.Mul(r.input.GetTouchDelta(device, touchpad, ids[1]))

	startPos1 := r.touchpadSizeCM.Mul(r.input.GetTouchGestureOrigin(device, touchpad, ids[0]))
	startPos2 := r.touchpadSizeCM.Mul(r.input.GetTouchGestureOrigin(device, touchpad, ids[1]))
	curPos1 := r.touchpadSizeCM.Mul(r.input.GetTouchLocation(device, touchpad, ids[0]))
	curPos2 := r.touchpadSizeCM.Mul(r.input.GetTouchLocation(device, touchpad, ids[1]))

	firstToSecond := startPos1.Sub(startPos2)
	firstToSecondDir := firstToSecond.Normalized()

	dot1 := delta1.Normalized().Dot(firstToSecondDir.Scale(-1))
	dot2 := delta2.Normalized().Dot(firstToSecondDir)

	// Check that if a touch is moving, it's either moving towards or away
	// from the other touch.
	if delta1.LengthSquared() < 0.005 && math.Abs(dot1) < pinchDirectionThreshold {
		return nil
	}
	if delta2.LengthSquared() < 0.005 && math.Abs(dot2) < pinchDirectionThreshold {
		return nil
	}

	startGap := firstToSecond.Length()
	curGap := curPos1.Sub(curPos2).Length()
	if math.Abs(startGap-curGap) >= pinchDeltaCM {
		return &pinch{callback: r.callback}
	}
	return nil
}

type pinch struct {
	GestureBase
	callback PinchCallback
	startGap float64
}

// Initialize records the gap between the touches at the frame the gesture
// started, which becomes the denominator for every reported ratio. This is
// one frame later than the origin the recognizer measured from, so the first
// reported ratio already includes that frame's movement.
func (g *pinch) Initialize() {
	curPos1 := g.touchpadSizeCM.Mul(g.input.GetTouchLocation(g.device, g.touchpad, g.ids[0]))
	curPos2 := g.touchpadSizeCM.Mul(g.input.GetTouchLocation(g.device, g.touchpad, g.ids[1]))
	g.startGap = curPos1.Sub(curPos2).Length()
}

func (g *pinch) AdvanceFrame(dt time.Duration) GestureState {
	if g.state == GestureCanceled {
		// Callback should revert changes.
		g.callback(g.state, g.target, 1.0)
		return g.state
	}
	if !g.input.IsValidTouch(g.device, g.touchpad, g.ids[0]) ||
		!g.input.IsValidTouch(g.device, g.touchpad, g.ids[1]) {
		// A touch has been released, so end the gesture. Set state before the
		// callback, since this will be the last call.
		g.state = GestureEnding
		g.callback(g.state, g.target, 1.0)
		return g.state
	}
	curPos1 := g.touchpadSizeCM.Mul(g.input.GetTouchLocation(g.device, g.touchpad, g.ids[0]))
	curPos2 := g.touchpadSizeCM.Mul(g.input.GetTouchLocation(g.device, g.touchpad, g.ids[1]))

	ratio := curPos1.Sub(curPos2).Length() / g.startGap

	g.callback(g.state, g.target, ratio)
	// Set state after the callback, so that the first frame reports
	// GestureStarting.
	g.state = GestureRunning
	return g.state
}
