package rowan

import (
	"fmt"
	"time"
)

// MaxTouchesPerGesture is the maximum number of touches a single gesture may
// own, and the maximum arity a recognizer may declare. Limited by the touch
// combination logic in the processor's gesture update.
const MaxTouchesPerGesture = 2

// Gesture is one live multi-touch interaction owning a fixed set of touches.
// Implementations embed [GestureBase] and override AdvanceFrame (and
// Initialize, if they need values derived after construction).
type Gesture interface {
	// Base exposes the embedded GestureBase for processor bookkeeping.
	Base() *GestureBase

	// Initialize is called once, right after the processor has attached the
	// gesture to its touches and before the first AdvanceFrame.
	Initialize()

	// AdvanceFrame is called every frame while the gesture is active and
	// returns the gesture's state. Returning GestureEnding or
	// GestureCanceled destroys the gesture; Cancel is not called
	// automatically on a GestureCanceled return.
	AdvanceFrame(dt time.Duration) GestureState

	// Cancel marks the gesture canceled; any side effects should be
	// reverted on the next AdvanceFrame. May be called more than once in a
	// single frame during app resume.
	Cancel()
}

// GestureBase carries the bookkeeping every gesture needs. The processor
// fills it in when a recognizer's TryStart succeeds.
type GestureBase struct {
	processor      *InputProcessor
	input          *InputManager
	device         DeviceType
	touchpad       TouchpadID
	ids            []TouchID
	state          GestureState
	name           string
	target         Entity
	touchpadSizeCM Vec2
}

// Base returns the gesture's bookkeeping struct.
func (g *GestureBase) Base() *GestureBase { return g }

// Initialize is a no-op by default.
func (g *GestureBase) Initialize() {}

// Cancel marks the gesture canceled.
func (g *GestureBase) Cancel() { g.state = GestureCanceled }

// Name returns the recognizer name that created this gesture.
func (g *GestureBase) Name() string { return g.name }

// Touches returns the touch ids driving this gesture.
func (g *GestureBase) Touches() []TouchID { return g.ids }

// State returns the gesture's current lifecycle state.
func (g *GestureBase) State() GestureState { return g.state }

// Target returns the entity the owning device was focused on when the
// gesture started.
func (g *GestureBase) Target() Entity { return g.target }

// Device returns the device the gesture's touches belong to.
func (g *GestureBase) Device() DeviceType { return g.device }

// Touchpad returns the touchpad the gesture's touches belong to.
func (g *GestureBase) Touchpad() TouchpadID { return g.touchpad }

// Input returns the input manager to query touch state from.
func (g *GestureBase) Input() *InputManager { return g.input }

// TouchpadSizeCM returns the physical touchpad size in centimeters.
// Multiply normalized touch deltas by this before thresholding.
func (g *GestureBase) TouchpadSizeCM() Vec2 { return g.touchpadSizeCM }

func (g *GestureBase) setup(proc *InputProcessor, input *InputManager,
	device DeviceType, touchpad TouchpadID, ids []TouchID,
	sizeCM Vec2, name string, target Entity) {
	g.processor = proc
	g.input = input
	g.device = device
	g.touchpad = touchpad
	g.ids = append([]TouchID(nil), ids...)
	g.state = GestureStarting
	g.name = name
	g.target = target
	g.touchpadSizeCM = sizeCM
}

// GestureRecognizer inspects combinations of active touches once per frame
// and creates a Gesture when its geometric predicate matches. Recognizers
// are stateless between frames: TryStart must have no side effects when it
// returns nil, since it is called speculatively every frame.
type GestureRecognizer interface {
	// Rec exposes the embedded RecognizerBase for processor bookkeeping.
	Rec() *RecognizerBase

	// TryStart returns a new Gesture if and only if the given touches have
	// been identified as starting this gesture; otherwise nil. ids always
	// has exactly NumTouches entries. Touches currently owned by another
	// gesture are still passed in; recognizers that do not steal touches
	// should check GetTouchOwner and decline.
	TryStart(device DeviceType, touchpad TouchpadID, ids []TouchID) Gesture
}

// RecognizerBase carries a recognizer's configuration: its name (used to
// compose event names, e.g. "Pinch" -> "AnyPinchStartEvent"), its touch
// arity, and the touchpad size set by the processor before TryStart calls.
type RecognizerBase struct {
	processor      *InputProcessor
	input          *InputManager
	name           string
	numTouches     int
	touchpadSizeCM Vec2
}

// NewRecognizerBase validates the arity and returns a base to embed.
// An arity outside [1, MaxTouchesPerGesture] is a programming error.
func NewRecognizerBase(name string, numTouches int) RecognizerBase {
	if numTouches < 1 || numTouches > MaxTouchesPerGesture {
		panic(fmt.Sprintf("rowan: recognizer %q arity %d outside [1, %d]",
			name, numTouches, MaxTouchesPerGesture))
	}
	return RecognizerBase{name: name, numTouches: numTouches, touchpadSizeCM: Vec2{-1, -1}}
}

// Rec returns the recognizer's bookkeeping struct.
func (r *RecognizerBase) Rec() *RecognizerBase { return r }

// Name returns the recognizer name used in composed event names.
func (r *RecognizerBase) Name() string { return r.name }

// NumTouches returns how many touches a single instance of this gesture
// needs. TryStart is called once per combination of that many touches.
func (r *RecognizerBase) NumTouches() int { return r.numTouches }

// TouchpadSizeCM returns the physical touchpad size in centimeters, set by
// the processor before TryStart calls each frame.
func (r *RecognizerBase) TouchpadSizeCM() Vec2 { return r.touchpadSizeCM }

// Input returns the input manager to query touch state from.
func (r *RecognizerBase) Input() *InputManager { return r.input }

// Processor returns the owning input processor (for touch ownership
// queries).
func (r *RecognizerBase) Processor() *InputProcessor { return r.processor }

func (r *RecognizerBase) setContext(proc *InputProcessor, input *InputManager) {
	r.processor = proc
	r.input = input
}

func (r *RecognizerBase) setTouchpadSize(sizeCM Vec2) {
	r.touchpadSizeCM = sizeCM
}
