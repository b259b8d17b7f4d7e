package rowan

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// assumedScreenDPI is used to estimate the physical touch surface size when
// the platform doesn't report one. Gesture thresholds are in centimeters, so
// some physical estimate is needed.
const assumedScreenDPI = 96.0

// EbitenSource polls Ebitengine mouse and touch state into an InputManager.
// It connects DeviceMouse (three buttons, cursor pose, and a virtual touch
// while the left button is held so one-finger gestures work on desktop) and
// DeviceTouchscreen (real touch contacts).
//
// Call Poll from the game's Update before InputManager.AdvanceFrame.
type EbitenSource struct {
	input *InputManager

	layoutW, layoutH int

	// PointerDepth is how far the virtual eye sits behind the z=0 scene
	// plane, in layout pixels. The mouse pose looks from the eye through
	// the cursor, so cursor motion becomes angular ray motion the way a
	// tracked controller's would.
	PointerDepth float64

	prevTouchIDs []ebiten.TouchID
	liveTouches  map[TouchID]bool
}

// NewEbitenSource connects the mouse and touchscreen devices and returns a
// source polling into input. layoutW and layoutH are the game's layout size
// in pixels, used to normalize positions.
func NewEbitenSource(input *InputManager, layoutW, layoutH int) *EbitenSource {
	sizeCM := Vec2{
		X: float64(layoutW) / assumedScreenDPI * inchesToCM,
		Y: float64(layoutH) / assumedScreenDPI * inchesToCM,
	}
	input.ConnectDevice(DeviceMouse, DeviceProfile{
		NumButtons: 3,
		Touchpads:  map[TouchpadID]Vec2{PrimaryTouchpad: sizeCM},
		HasPose:    true,
	})
	input.ConnectDevice(DeviceTouchscreen, DeviceProfile{
		NumButtons: 1,
		Touchpads:  map[TouchpadID]Vec2{PrimaryTouchpad: sizeCM},
	})
	return &EbitenSource{
		input:        input,
		layoutW:      layoutW,
		layoutH:      layoutH,
		PointerDepth: 600,
		liveTouches:  map[TouchID]bool{},
	}
}

// Poll reads the current Ebitengine input state into the input manager.
func (s *EbitenSource) Poll() {
	s.pollMouse()
	s.pollTouches()
}

func (s *EbitenSource) pollMouse() {
	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	s.input.SetButton(DeviceMouse, ButtonPrimary, left)
	s.input.SetButton(DeviceMouse, ButtonSecondary,
		ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight))
	s.input.SetButton(DeviceMouse, ButtonRecenter,
		ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle))

	mx, my := ebiten.CursorPosition()
	eye := Vec3{
		X: float64(s.layoutW) / 2,
		Y: float64(s.layoutH) / 2,
		Z: s.PointerDepth,
	}
	cursor := Vec3{X: float64(mx), Y: float64(my)}
	s.input.SetDofWorldFromObjectMatrix(DeviceMouse, pointerPose(eye, cursor))

	// Mirror the held cursor as a touch contact so single-touch gesture
	// recognizers work with a mouse.
	if left {
		s.input.SetTouch(DeviceMouse, PrimaryTouchpad, 0, s.normalize(mx, my))
	} else {
		s.input.ClearTouch(DeviceMouse, PrimaryTouchpad, 0)
	}
}

func (s *EbitenSource) pollTouches() {
	touchIDs := ebiten.AppendTouchIDs(s.prevTouchIDs[:0])
	s.prevTouchIDs = touchIDs

	seen := map[TouchID]bool{}
	for _, tid := range touchIDs {
		id := TouchID(tid)
		seen[id] = true
		s.liveTouches[id] = true
		tx, ty := ebiten.TouchPosition(tid)
		s.input.SetTouch(DeviceTouchscreen, PrimaryTouchpad, id, s.normalize(tx, ty))
	}
	for id := range s.liveTouches {
		if !seen[id] {
			s.input.ClearTouch(DeviceTouchscreen, PrimaryTouchpad, id)
			delete(s.liveTouches, id)
		}
	}

	s.input.SetButton(DeviceTouchscreen, ButtonPrimary, len(touchIDs) > 0)
}

// pointerPose builds a pose at eye whose -Z axis points at target.
func pointerPose(eye, target Vec3) Mat4 {
	forward := target.Sub(eye).Normalized()
	zAxis := forward.Scale(-1)
	xAxis := Vec3{Y: 1}.Cross(zAxis)
	if xAxis.LengthSquared() < 1e-12 {
		xAxis = Vec3{X: 1}
	} else {
		xAxis = xAxis.Normalized()
	}
	yAxis := zAxis.Cross(xAxis)
	return Mat4{
		xAxis.X, yAxis.X, zAxis.X, eye.X,
		xAxis.Y, yAxis.Y, zAxis.Y, eye.Y,
		xAxis.Z, yAxis.Z, zAxis.Z, eye.Z,
		0, 0, 0, 1,
	}
}

func (s *EbitenSource) normalize(x, y int) Vec2 {
	return Vec2{
		X: float64(x) / float64(s.layoutW),
		Y: float64(y) / float64(s.layoutH),
	}
}
