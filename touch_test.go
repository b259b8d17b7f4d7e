package rowan

import (
	"testing"
	"time"
)

// fakeGesture records the state it saw on each AdvanceFrame and behaves like
// the built-in gestures: ends when its touch lifts, reports canceled once.
type fakeGesture struct {
	GestureBase
	seen []GestureState
}

func (g *fakeGesture) AdvanceFrame(dt time.Duration) GestureState {
	g.seen = append(g.seen, g.state)
	if g.state == GestureCanceled {
		return g.state
	}
	if !g.input.IsValidTouch(g.device, g.touchpad, g.ids[0]) {
		g.state = GestureEnding
		return g.state
	}
	g.state = GestureRunning
	return g.state
}

// fakeRecognizer starts on any touch. With steal set it ignores ownership,
// taking touches from whatever gesture holds them.
type fakeRecognizer struct {
	RecognizerBase
	steal   bool
	started []*fakeGesture
}

func newFakeRecognizer(name string, steal bool) *fakeRecognizer {
	return &fakeRecognizer{RecognizerBase: NewRecognizerBase(name, 1), steal: steal}
}

func (r *fakeRecognizer) TryStart(device DeviceType, touchpad TouchpadID, ids []TouchID) Gesture {
	if !r.steal && r.processor.GetTouchOwner(device, touchpad, ids[0]) != nil {
		return nil
	}
	g := &fakeGesture{}
	r.started = append(r.started, g)
	return g
}

func (r *procRig) setTouch(id TouchID, uv Vec2) {
	r.input.SetTouch(DeviceController, PrimaryTouchpad, id, uv)
}

func (r *procRig) clearTouch(id TouchID) {
	r.input.ClearTouch(DeviceController, PrimaryTouchpad, id)
}

// --- contact and swipe fallback tests ---

func TestTouchPressAndReleaseEvents(t *testing.T) {
	r := newProcRig(t, NoLegacy)

	r.setTouch(1, Vec2{0.5, 0.5})
	r.step(frame, noFocus())
	press, ok := r.sink.find("TouchPressEvent")
	if !ok {
		t.Fatalf("no TouchPressEvent, got %v", eventNames(r.sink))
	}
	if press.UV != (Vec2{0.5, 0.5}) || len(press.Touches) != 1 || press.Touches[0] != 1 {
		t.Errorf("TouchPressEvent payload = %+v", press)
	}

	r.clearTouch(1)
	r.step(frame, noFocus())
	if !r.sink.has("TouchReleaseEvent") || !r.sink.has("AnyTouchReleaseEvent") {
		t.Errorf("no TouchReleaseEvent, got %v", eventNames(r.sink))
	}
	if r.sink.has("SwipeStartEvent") {
		t.Error("SwipeStartEvent for a stationary touch")
	}
}

func TestSwipeFallback(t *testing.T) {
	r := newProcRig(t, NoLegacy)

	// 10 cm touchpad: 0.01 normalized is 0.1 cm, under the threshold.
	r.setTouch(1, Vec2{0.5, 0.5})
	r.step(frame, noFocus())
	r.setTouch(1, Vec2{0.51, 0.5})
	r.step(frame, noFocus())
	if r.sink.has("SwipeStartEvent") {
		t.Error("SwipeStartEvent under the swipe threshold")
	}

	// 0.3 cm from the origin crosses the 0.254 cm threshold.
	r.setTouch(1, Vec2{0.53, 0.5})
	r.step(frame, noFocus())
	if !r.sink.has("SwipeStartEvent") {
		t.Fatalf("no SwipeStartEvent past the threshold, got %v", eventNames(r.sink))
	}

	r.clearTouch(1)
	r.step(frame, noFocus())
	if !r.sink.has("SwipeStopEvent") {
		t.Error("no SwipeStopEvent when a swiping touch lifts")
	}
	if r.sink.count("SwipeStartEvent") != 1 {
		t.Error("SwipeStartEvent repeated for one contact")
	}
}

// --- gesture arbitration tests ---

func TestGestureStartClaimsTouch(t *testing.T) {
	r := newProcRig(t, NoLegacy)
	rec := newFakeRecognizer("Tap", false)
	r.processor.AddGestureRecognizer(DeviceController, PrimaryTouchpad, rec)

	r.setTouch(1, Vec2{0.5, 0.5})
	r.step(frame, noFocus())
	if !r.sink.has("TapStartEvent") || !r.sink.has("AnyTapStartEvent") {
		t.Fatalf("no gesture start events, got %v", eventNames(r.sink))
	}
	owner := r.processor.GetTouchOwner(DeviceController, PrimaryTouchpad, 1)
	if owner == nil || len(rec.started) != 1 || owner != Gesture(rec.started[0]) {
		t.Errorf("touch owner = %v, want the started gesture", owner)
	}
	// The swipe fallback is disabled when recognizers are registered.
	r.setTouch(1, Vec2{0.9, 0.5})
	r.step(frame, noFocus())
	if r.sink.has("SwipeStartEvent") {
		t.Error("swipe fallback ran on a touchpad with recognizers")
	}
}

func TestRecognizerPriorityOrder(t *testing.T) {
	r := newProcRig(t, NoLegacy)
	first := newFakeRecognizer("First", false)
	second := newFakeRecognizer("Second", false)
	r.processor.AddGestureRecognizer(DeviceController, PrimaryTouchpad, first)
	r.processor.AddGestureRecognizer(DeviceController, PrimaryTouchpad, second)

	r.setTouch(1, Vec2{0.5, 0.5})
	r.step(frame, noFocus())
	if len(first.started) != 1 {
		t.Errorf("first recognizer started %d gestures, want 1", len(first.started))
	}
	// The touch was claimed this frame, so the second recognizer never saw a
	// combination.
	if len(second.started) != 0 {
		t.Errorf("second recognizer started %d gestures, want 0", len(second.started))
	}
}

func TestGestureEndsWhenTouchLifts(t *testing.T) {
	r := newProcRig(t, NoLegacy)
	rec := newFakeRecognizer("Tap", false)
	r.processor.AddGestureRecognizer(DeviceController, PrimaryTouchpad, rec)

	r.setTouch(1, Vec2{0.5, 0.5})
	r.step(frame, noFocus())
	r.clearTouch(1)
	r.step(frame, noFocus())
	if !r.sink.has("TapStopEvent") {
		t.Fatalf("no TapStopEvent after the touch lifted, got %v", eventNames(r.sink))
	}
	if r.processor.GetTouchOwner(DeviceController, PrimaryTouchpad, 1) != nil {
		t.Error("touch still owned after the gesture ended")
	}
	// First AdvanceFrame reports the starting state.
	if len(rec.started[0].seen) == 0 || rec.started[0].seen[0] != GestureStarting {
		t.Errorf("first observed state = %v, want Starting", rec.started[0].seen)
	}
}

func TestGestureInterruption(t *testing.T) {
	r := newProcRig(t, NoLegacy)
	polite := newFakeRecognizer("Tap", false)
	thief := newFakeRecognizer("Steal", true)
	r.processor.AddGestureRecognizer(DeviceController, PrimaryTouchpad, polite)

	r.setTouch(1, Vec2{0.5, 0.5})
	r.step(frame, noFocus())
	if len(polite.started) != 1 {
		t.Fatal("polite recognizer did not start")
	}

	r.processor.AddGestureRecognizer(DeviceController, PrimaryTouchpad, thief)
	r.step(frame, noFocus())
	if !r.sink.has("TapStopEvent") {
		t.Errorf("interrupted gesture sent no stop event, got %v", eventNames(r.sink))
	}
	if !r.sink.has("StealStartEvent") {
		t.Errorf("stealing gesture sent no start event, got %v", eventNames(r.sink))
	}
	owner := r.processor.GetTouchOwner(DeviceController, PrimaryTouchpad, 1)
	if len(thief.started) != 1 || owner != Gesture(thief.started[0]) {
		t.Errorf("owner = %v, want the stealing gesture", owner)
	}
}

func TestGestureTargetFromFocus(t *testing.T) {
	r := newProcRig(t, NoLegacy)
	rec := newFakeRecognizer("Tap", false)
	r.processor.AddGestureRecognizer(DeviceController, PrimaryTouchpad, rec)

	r.setTouch(1, Vec2{0.5, 0.5})
	r.step(frame, focusAtAngle(1, 0))
	start, ok := r.sink.find("TapStartEvent")
	if !ok || start.Target != 1 {
		t.Errorf("TapStartEvent target = %+v ok %v, want entity 1", start, ok)
	}
}

func TestCancelAllGestures(t *testing.T) {
	r := newProcRig(t, NoLegacy)
	rec := newFakeRecognizer("Tap", false)
	r.processor.AddGestureRecognizer(DeviceController, PrimaryTouchpad, rec)

	r.setTouch(1, Vec2{0.5, 0.5})
	r.step(frame, noFocus())

	r.processor.CancelAllGestures()
	if !r.sink.has("TouchCancelEvent") {
		t.Fatalf("no TouchCancelEvent, got %v", eventNames(r.sink))
	}
	if rec.started[0].State() != GestureCanceled {
		t.Errorf("gesture state = %v, want Canceled", rec.started[0].State())
	}

	// The gesture reverts and reports its cancel event on the next frame.
	r.step(frame, noFocus())
	if !r.sink.has("TapCancelEvent") {
		t.Errorf("no TapCancelEvent on the frame after cancel, got %v", eventNames(r.sink))
	}

	// The canceled contact lifts silently.
	r.clearTouch(1)
	r.step(frame, noFocus())
	if r.sink.has("TouchReleaseEvent") {
		t.Error("TouchReleaseEvent for a canceled contact")
	}
}

func TestCancelAllGesturesSwipeFallback(t *testing.T) {
	r := newProcRig(t, NoLegacy)
	r.setTouch(1, Vec2{0.5, 0.5})
	r.step(frame, noFocus())
	r.setTouch(1, Vec2{0.6, 0.5})
	r.step(frame, noFocus())
	if !r.sink.has("SwipeStartEvent") {
		t.Fatal("swipe did not start")
	}

	r.processor.CancelAllGestures()
	if !r.sink.has("SwipeStopEvent") || !r.sink.has("TouchCancelEvent") {
		t.Errorf("cancel events missing, got %v", eventNames(r.sink))
	}
}
