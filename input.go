package rowan

import (
	"sort"
	"time"
)

// longPressMS is how long a button must be held before it reports
// BitLongPressed. Presses shorter than this are eligible for click events.
const longPressMS = 500

// DeviceProfile describes the capabilities of a connected device.
type DeviceProfile struct {
	// NumButtons is how many buttons the device reports, indexed from 0.
	NumButtons int
	// Touchpads maps each touch surface to its physical size in centimeters.
	// Gesture thresholds multiply normalized touch deltas by this size so
	// that thresholds are independent of resolution.
	Touchpads map[TouchpadID]Vec2
	// HasPose is true for 6-DOF tracked devices.
	HasPose bool
}

type buttonRaw struct {
	raw       bool // latest state fed by the source
	cur, prev bool // latched at AdvanceFrame
	heldMS    int64
	long      bool
	justLong  bool
}

type touchRaw struct {
	raw       bool // latest state fed by the source
	cur, prev bool // latched at AdvanceFrame
	nextUV    Vec2 // latest location fed by the source
	uv        Vec2
	prevUV    Vec2
	origin    Vec2 // location at press; gesture recognizers measure from here
}

type touchpadRaw struct {
	sizeCM  Vec2
	touches map[TouchID]*touchRaw
}

type deviceRaw struct {
	profile   DeviceProfile
	buttons   []buttonRaw
	touchpads map[TouchpadID]*touchpadRaw
	pose      Mat4
	posed     bool
}

// InputManager holds raw per-device button, touch, and pose state. A source
// (for example [EbitenSource]) feeds it between frames; [AdvanceFrame]
// latches the state once per frame, deriving just-pressed/just-released
// bits; the [InputProcessor] then reads the latched state.
//
// All methods must be called from the update thread.
type InputManager struct {
	devices map[DeviceType]*deviceRaw
}

// NewInputManager creates an input manager with no connected devices.
func NewInputManager() *InputManager {
	return &InputManager{devices: map[DeviceType]*deviceRaw{}}
}

// ConnectDevice registers a device. Reconnecting an already-connected device
// resets its state.
func (im *InputManager) ConnectDevice(device DeviceType, profile DeviceProfile) {
	d := &deviceRaw{
		profile:   profile,
		buttons:   make([]buttonRaw, profile.NumButtons),
		touchpads: map[TouchpadID]*touchpadRaw{},
	}
	for id, size := range profile.Touchpads {
		d.touchpads[id] = &touchpadRaw{sizeCM: size, touches: map[TouchID]*touchRaw{}}
	}
	im.devices[device] = d
}

// DisconnectDevice removes a device and all of its state.
func (im *InputManager) DisconnectDevice(device DeviceType) {
	delete(im.devices, device)
}

// IsConnected reports whether the device is registered.
func (im *InputManager) IsConnected(device DeviceType) bool {
	_, ok := im.devices[device]
	return ok
}

// GetNumButtons returns the device's button count, or 0 if not connected.
func (im *InputManager) GetNumButtons(device DeviceType) int {
	if d, ok := im.devices[device]; ok {
		return d.profile.NumButtons
	}
	return 0
}

// SetButton feeds the raw pressed state of a button. Takes effect at the
// next AdvanceFrame.
func (im *InputManager) SetButton(device DeviceType, button ButtonID, pressed bool) {
	d, ok := im.devices[device]
	if !ok || int(button) >= len(d.buttons) {
		return
	}
	d.buttons[button].raw = pressed
}

// GetButtonState returns the latched state bits for a button. Returns 0 for
// unknown devices or buttons.
func (im *InputManager) GetButtonState(device DeviceType, button ButtonID) ButtonBits {
	d, ok := im.devices[device]
	if !ok || int(button) >= len(d.buttons) {
		return 0
	}
	b := &d.buttons[button]
	var bits ButtonBits
	if b.cur {
		bits |= BitPressed
	}
	if b.cur && !b.prev {
		bits |= BitJustPressed
	}
	if !b.cur && b.prev {
		bits |= BitJustReleased
	}
	if b.long {
		bits |= BitLongPressed
	}
	if b.justLong {
		bits |= BitJustLongPressed
	}
	return bits
}

// SetTouch feeds a touch contact's latest normalized [0, 1] location,
// creating the contact if it is new. Takes effect at the next AdvanceFrame.
func (im *InputManager) SetTouch(device DeviceType, touchpad TouchpadID, id TouchID, uv Vec2) {
	tp := im.touchpad(device, touchpad)
	if tp == nil {
		return
	}
	t, ok := tp.touches[id]
	if !ok {
		t = &touchRaw{}
		tp.touches[id] = t
	}
	t.raw = true
	t.nextUV = uv
}

// ClearTouch feeds the release of a touch contact. The contact reports
// invalid from the next AdvanceFrame and is forgotten the frame after.
func (im *InputManager) ClearTouch(device DeviceType, touchpad TouchpadID, id TouchID) {
	tp := im.touchpad(device, touchpad)
	if tp == nil {
		return
	}
	if t, ok := tp.touches[id]; ok {
		t.raw = false
	}
}

// IsValidTouch reports whether the touch is currently down (latched).
func (im *InputManager) IsValidTouch(device DeviceType, touchpad TouchpadID, id TouchID) bool {
	if t := im.touch(device, touchpad, id); t != nil {
		return t.cur
	}
	return false
}

// GetTouchLocation returns the touch's latched normalized location, or
// InvalidTouchLocation if the touch is not valid.
func (im *InputManager) GetTouchLocation(device DeviceType, touchpad TouchpadID, id TouchID) Vec2 {
	if t := im.touch(device, touchpad, id); t != nil && t.cur {
		return t.uv
	}
	return InvalidTouchLocation
}

// GetPreviousTouchLocation returns the touch's location at the previous
// frame, or InvalidTouchLocation if the touch is not valid.
func (im *InputManager) GetPreviousTouchLocation(device DeviceType, touchpad TouchpadID, id TouchID) Vec2 {
	if t := im.touch(device, touchpad, id); t != nil && t.cur {
		return t.prevUV
	}
	return InvalidTouchLocation
}

// GetTouchDelta returns the touch's normalized movement since the previous
// frame, or the zero vector if the touch is not valid.
func (im *InputManager) GetTouchDelta(device DeviceType, touchpad TouchpadID, id TouchID) Vec2 {
	if t := im.touch(device, touchpad, id); t != nil && t.cur {
		return t.uv.Sub(t.prevUV)
	}
	return Vec2{}
}

// GetTouchGestureOrigin returns the normalized location where the touch
// first went down, or InvalidTouchLocation if the touch is not valid.
func (im *InputManager) GetTouchGestureOrigin(device DeviceType, touchpad TouchpadID, id TouchID) Vec2 {
	if t := im.touch(device, touchpad, id); t != nil && t.cur {
		return t.origin
	}
	return InvalidTouchLocation
}

// ActiveTouches returns the ids of currently valid touches on a touchpad,
// sorted ascending for deterministic iteration.
func (im *InputManager) ActiveTouches(device DeviceType, touchpad TouchpadID) []TouchID {
	tp := im.touchpad(device, touchpad)
	if tp == nil {
		return nil
	}
	var ids []TouchID
	for id, t := range tp.touches {
		if t.cur {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Touchpads returns the device's touchpad ids, sorted ascending.
func (im *InputManager) Touchpads(device DeviceType) []TouchpadID {
	d, ok := im.devices[device]
	if !ok {
		return nil
	}
	var ids []TouchpadID
	for id := range d.touchpads {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// GetTouchpadSizeCM returns the physical size of a touchpad in centimeters.
func (im *InputManager) GetTouchpadSizeCM(device DeviceType, touchpad TouchpadID) (Vec2, bool) {
	tp := im.touchpad(device, touchpad)
	if tp == nil {
		return Vec2{}, false
	}
	return tp.sizeCM, true
}

// SetDofWorldFromObjectMatrix feeds the world pose of a tracked device.
func (im *InputManager) SetDofWorldFromObjectMatrix(device DeviceType, pose Mat4) {
	if d, ok := im.devices[device]; ok {
		d.pose = pose
		d.posed = true
	}
}

// GetDofWorldFromObjectMatrix returns the device's world pose. ok is false
// if the device is not connected or no pose has been fed yet.
func (im *InputManager) GetDofWorldFromObjectMatrix(device DeviceType) (Mat4, bool) {
	if d, ok := im.devices[device]; ok && d.posed {
		return d.pose, true
	}
	return Mat4Identity, false
}

// AdvanceFrame latches raw state into the current frame: previous/current
// button and touch states swap, just-pressed/just-released bits derive, and
// long-press timers accumulate. Call exactly once per frame, before
// InputProcessor.UpdateDevice.
func (im *InputManager) AdvanceFrame(dt time.Duration) {
	ms := dt.Milliseconds()
	for _, d := range im.devices {
		for i := range d.buttons {
			b := &d.buttons[i]
			b.prev = b.cur
			b.cur = b.raw
			b.justLong = false
			switch {
			case b.cur && !b.prev:
				b.heldMS = 0
				b.long = false
			case b.cur:
				b.heldMS += ms
				if !b.long && b.heldMS >= longPressMS {
					b.long = true
					b.justLong = true
				}
			case !b.cur && !b.prev:
				// Keep the long bit through the release frame so release
				// handling can distinguish long presses, then drop it.
				b.long = false
				b.heldMS = 0
			}
		}
		for _, tp := range d.touchpads {
			for id, t := range tp.touches {
				if !t.cur && !t.prev && !t.raw {
					delete(tp.touches, id)
					continue
				}
				t.prev = t.cur
				t.cur = t.raw
				t.prevUV = t.uv
				t.uv = t.nextUV
				if t.cur && !t.prev {
					t.origin = t.uv
					t.prevUV = t.uv
				}
			}
		}
	}
}

func (im *InputManager) touchpad(device DeviceType, touchpad TouchpadID) *touchpadRaw {
	d, ok := im.devices[device]
	if !ok {
		return nil
	}
	return d.touchpads[touchpad]
}

func (im *InputManager) touch(device DeviceType, touchpad TouchpadID, id TouchID) *touchRaw {
	tp := im.touchpad(device, touchpad)
	if tp == nil {
		return nil
	}
	return tp.touches[id]
}
