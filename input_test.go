package rowan

import (
	"testing"
	"time"
)

const frame = 16 * time.Millisecond

func newTestInput(t *testing.T) *InputManager {
	t.Helper()
	im := NewInputManager()
	im.ConnectDevice(DeviceController, DeviceProfile{
		NumButtons: 2,
		Touchpads:  map[TouchpadID]Vec2{PrimaryTouchpad: {10, 10}},
		HasPose:    true,
	})
	return im
}

// --- button tests ---

func TestButtonLatchBits(t *testing.T) {
	im := newTestInput(t)

	im.SetButton(DeviceController, ButtonPrimary, true)
	im.AdvanceFrame(frame)
	bits := im.GetButtonState(DeviceController, ButtonPrimary)
	if !bits.HasBit(BitPressed) || !bits.HasBit(BitJustPressed) {
		t.Errorf("press frame bits = %b, want Pressed|JustPressed", bits)
	}

	im.AdvanceFrame(frame)
	bits = im.GetButtonState(DeviceController, ButtonPrimary)
	if !bits.HasBit(BitPressed) || bits.HasBit(BitJustPressed) {
		t.Errorf("held frame bits = %b, want Pressed without JustPressed", bits)
	}

	im.SetButton(DeviceController, ButtonPrimary, false)
	im.AdvanceFrame(frame)
	bits = im.GetButtonState(DeviceController, ButtonPrimary)
	if bits.HasBit(BitPressed) || !bits.HasBit(BitJustReleased) {
		t.Errorf("release frame bits = %b, want JustReleased without Pressed", bits)
	}

	im.AdvanceFrame(frame)
	if bits = im.GetButtonState(DeviceController, ButtonPrimary); bits != 0 {
		t.Errorf("idle frame bits = %b, want 0", bits)
	}
}

func TestButtonLongPress(t *testing.T) {
	im := newTestInput(t)
	im.SetButton(DeviceController, ButtonPrimary, true)
	im.AdvanceFrame(250 * time.Millisecond) // just pressed, heldMS = 0

	im.AdvanceFrame(250 * time.Millisecond) // heldMS = 250
	if bits := im.GetButtonState(DeviceController, ButtonPrimary); bits.HasBit(BitLongPressed) {
		t.Errorf("long at 250ms: bits = %b", bits)
	}

	im.AdvanceFrame(250 * time.Millisecond) // heldMS = 500
	bits := im.GetButtonState(DeviceController, ButtonPrimary)
	if !bits.HasBit(BitLongPressed) || !bits.HasBit(BitJustLongPressed) {
		t.Errorf("long at 500ms: bits = %b, want LongPressed|JustLongPressed", bits)
	}

	im.AdvanceFrame(250 * time.Millisecond)
	bits = im.GetButtonState(DeviceController, ButtonPrimary)
	if !bits.HasBit(BitLongPressed) || bits.HasBit(BitJustLongPressed) {
		t.Errorf("long sustained: bits = %b, want LongPressed only", bits)
	}

	// The long bit survives the release frame so release handling can
	// suppress clicks, then clears.
	im.SetButton(DeviceController, ButtonPrimary, false)
	im.AdvanceFrame(frame)
	bits = im.GetButtonState(DeviceController, ButtonPrimary)
	if !bits.HasBit(BitJustReleased) || !bits.HasBit(BitLongPressed) {
		t.Errorf("release frame: bits = %b, want JustReleased|LongPressed", bits)
	}
	im.AdvanceFrame(frame)
	if bits = im.GetButtonState(DeviceController, ButtonPrimary); bits.HasBit(BitLongPressed) {
		t.Errorf("post-release frame still long: bits = %b", bits)
	}
}

func TestButtonUnknownDeviceOrButton(t *testing.T) {
	im := newTestInput(t)
	if bits := im.GetButtonState(DeviceHmd, ButtonPrimary); bits != 0 {
		t.Errorf("unknown device bits = %b, want 0", bits)
	}
	if bits := im.GetButtonState(DeviceController, ButtonID(9)); bits != 0 {
		t.Errorf("unknown button bits = %b, want 0", bits)
	}
	// Feeding unknown buttons must not panic.
	im.SetButton(DeviceHmd, ButtonPrimary, true)
	im.SetButton(DeviceController, ButtonID(9), true)
}

// --- touch tests ---

func TestTouchLifecycle(t *testing.T) {
	im := newTestInput(t)
	const id TouchID = 7

	im.SetTouch(DeviceController, PrimaryTouchpad, id, Vec2{0.5, 0.5})
	im.AdvanceFrame(frame)
	if !im.IsValidTouch(DeviceController, PrimaryTouchpad, id) {
		t.Fatal("touch not valid after press frame")
	}
	if got := im.GetTouchGestureOrigin(DeviceController, PrimaryTouchpad, id); got != (Vec2{0.5, 0.5}) {
		t.Errorf("origin = %v, want (0.5, 0.5)", got)
	}
	// On the press frame the previous location equals the current one.
	if got := im.GetTouchDelta(DeviceController, PrimaryTouchpad, id); got != (Vec2{}) {
		t.Errorf("press frame delta = %v, want zero", got)
	}

	im.SetTouch(DeviceController, PrimaryTouchpad, id, Vec2{0.6, 0.5})
	im.AdvanceFrame(frame)
	if got := im.GetTouchDelta(DeviceController, PrimaryTouchpad, id); !approxEq(got.X, 0.1) || got.Y != 0 {
		t.Errorf("delta = %v, want (0.1, 0)", got)
	}
	if got := im.GetPreviousTouchLocation(DeviceController, PrimaryTouchpad, id); got != (Vec2{0.5, 0.5}) {
		t.Errorf("previous = %v, want (0.5, 0.5)", got)
	}
	// The origin stays where the touch went down.
	if got := im.GetTouchGestureOrigin(DeviceController, PrimaryTouchpad, id); got != (Vec2{0.5, 0.5}) {
		t.Errorf("origin after move = %v, want (0.5, 0.5)", got)
	}

	im.ClearTouch(DeviceController, PrimaryTouchpad, id)
	im.AdvanceFrame(frame)
	if im.IsValidTouch(DeviceController, PrimaryTouchpad, id) {
		t.Error("touch still valid after release frame")
	}
	if got := im.GetTouchLocation(DeviceController, PrimaryTouchpad, id); got != InvalidTouchLocation {
		t.Errorf("released location = %v, want InvalidTouchLocation", got)
	}
}

func TestActiveTouchesSorted(t *testing.T) {
	im := newTestInput(t)
	im.SetTouch(DeviceController, PrimaryTouchpad, 5, Vec2{})
	im.SetTouch(DeviceController, PrimaryTouchpad, 1, Vec2{})
	im.SetTouch(DeviceController, PrimaryTouchpad, 3, Vec2{})
	im.AdvanceFrame(frame)

	got := im.ActiveTouches(DeviceController, PrimaryTouchpad)
	want := []TouchID{1, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("ActiveTouches = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ActiveTouches = %v, want %v", got, want)
		}
	}
}

func TestDevicePose(t *testing.T) {
	im := newTestInput(t)
	if _, ok := im.GetDofWorldFromObjectMatrix(DeviceController); ok {
		t.Error("pose ok before any pose fed")
	}
	pose := Mat4FromTranslation(Vec3{X: 1, Y: 2, Z: 3})
	im.SetDofWorldFromObjectMatrix(DeviceController, pose)
	got, ok := im.GetDofWorldFromObjectMatrix(DeviceController)
	if !ok || got != pose {
		t.Errorf("pose = %v ok = %v, want fed pose", got, ok)
	}
}
