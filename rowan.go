package rowan

import "log"

// Entity identifies an application entity. Rowan never creates or destroys
// entities; it only tracks state keyed by them.
type Entity uint32

// NullEntity is the zero entity. Focus and event targets use it to mean
// "nothing".
const NullEntity Entity = 0

// DeviceType identifies a class of input device.
type DeviceType uint8

const (
	DeviceHmd         DeviceType = iota // head-mounted display (pose only)
	DeviceController                    // primary 6-DOF controller
	DeviceController2                   // secondary 6-DOF controller
	DeviceTouchscreen                   // touchscreen (touchpad 0 is the screen)
	DeviceMouse                         // desktop mouse emulating a pointer

	// MaxNumDeviceTypes doubles as the "no device" sentinel throughout the
	// package (e.g. Grabbable.HoldingDevice when not held).
	MaxNumDeviceTypes
)

// ButtonID identifies a button on a device.
type ButtonID uint8

const (
	ButtonPrimary   ButtonID = iota // trigger / left mouse / touch contact
	ButtonSecondary                 // grip / right mouse
	ButtonRecenter                  // system button
)

// InvalidButton marks device-level events that carry no button.
const InvalidButton ButtonID = 0xFF

// TouchpadID identifies a touch surface on a device.
type TouchpadID uint8

// PrimaryTouchpad is the default touch surface (the screen itself on a
// touchscreen device).
const PrimaryTouchpad TouchpadID = 0

// TouchID identifies a single touch contact on a touchpad. IDs are assigned
// by the platform and are unique among currently active touches.
type TouchID int64

// ButtonBits is a bitmask describing the raw state of a button this frame.
// Query it with HasBit.
type ButtonBits uint8

const (
	BitPressed         ButtonBits = 1 << iota // held down this frame
	BitJustPressed                            // went down this frame
	BitJustReleased                           // went up this frame
	BitLongPressed                            // held longer than the long-press threshold
	BitJustLongPressed                        // crossed the long-press threshold this frame
)

// HasBit reports whether all bits in mask are set.
func (b ButtonBits) HasBit(mask ButtonBits) bool {
	return b&mask == mask
}

// GestureState is the lifecycle state of an active Gesture.
type GestureState uint8

const (
	// GestureStarting means the gesture has been created but not yet updated.
	// A gesture callback sees this exactly once, on the first AdvanceFrame.
	GestureStarting GestureState = iota
	// GestureRunning means the gesture has been updated at least once.
	GestureRunning
	// GestureEnding means the gesture completed normally (a touch was
	// released, or another gesture interrupted it). Terminal.
	GestureEnding
	// GestureCanceled means the gesture was interrupted and consumers should
	// revert its side effects. Terminal.
	GestureCanceled
)

// String returns the state name without the "Gesture" prefix.
func (s GestureState) String() string {
	switch s {
	case GestureStarting:
		return "Starting"
	case GestureRunning:
		return "Running"
	case GestureEnding:
		return "Ending"
	case GestureCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// anyPrefix is prepended to the mirrored copy of every event.
const anyPrefix = "Any"

// Device-level event name suffixes.
const (
	eventFocusStart = "FocusStartEvent"
	eventFocusStop  = "FocusStopEvent"
)

// Button-level event name suffixes.
const (
	eventPress     = "PressEvent"
	eventRelease   = "ReleaseEvent"
	eventClick     = "ClickEvent"
	eventLongPress = "LongPressEvent"
	eventCancel    = "CancelEvent"
	eventDragStart = "DragStartEvent"
	eventDrag      = "DragEvent"
	eventDragStop  = "DragStopEvent"
)

// Touch-level event name suffixes (per touchpad).
const (
	eventTouchPress   = "TouchPressEvent"
	eventTouchRelease = "TouchReleaseEvent"
	eventTouchCancel  = "TouchCancelEvent"
	eventSwipeStart   = "SwipeStartEvent"
	eventSwipeStop    = "SwipeStopEvent"
)

// Gesture event name suffixes, appended to the recognizer name:
// <prefix><RecognizerName><suffix>, e.g. "AnyPinchStartEvent".
const (
	gestureSuffixStart  = "StartEvent"
	gestureSuffixStop   = "StopEvent"
	gestureSuffixCancel = "CancelEvent"
)

// Legacy event names, kept for apps migrating from the reticle-era API.
const (
	legacyEventPress      = "LegacyClickEvent"
	legacyEventRelease    = "ClickReleasedEvent"
	legacyEventClick      = "ClickPressedAndReleasedEvent"
	legacyEventLongPress  = "PrimaryButtonLongPressEvent"
	legacyEventFocusStart = "StartHoverEvent"
	legacyEventFocusStop  = "StopHoverEvent"
)

// logError reports caller-contract violations (grab without a handler,
// missing transforms, double releases). These are programming errors but are
// treated as recoverable no-ops. Swappable so tests can assert on them.
var logError = func(format string, args ...any) {
	log.Printf("rowan: "+format, args...)
}
