package rowan

import (
	"math"
	"testing"
	"time"
)

func (s *recordingSink) count(name string) int {
	n := 0
	for _, e := range s.events {
		if e.Name == name {
			n++
		}
	}
	return n
}

func (s *recordingSink) has(name string) bool { return s.count(name) > 0 }

func (s *recordingSink) find(name string) (Event, bool) {
	for _, e := range s.events {
		if e.Name == name {
			return e, true
		}
	}
	return Event{}, false
}

type procRig struct {
	input      *InputManager
	transforms *TransformSystem
	dispatcher *Dispatcher
	processor  *InputProcessor
	sink       *recordingSink
}

// newProcRig builds a controller-driven processor with empty prefixes, so
// tests can assert on the bare event names, and an entity 1 at the origin.
func newProcRig(t *testing.T, mode LegacyMode) *procRig {
	t.Helper()
	r := &procRig{
		input:      NewInputManager(),
		transforms: NewTransformSystem(),
		dispatcher: NewDispatcher(),
		sink:       &recordingSink{},
	}
	r.input.ConnectDevice(DeviceController, DeviceProfile{
		NumButtons: 2,
		Touchpads:  map[TouchpadID]Vec2{PrimaryTouchpad: {10, 10}},
		HasPose:    true,
	})
	r.dispatcher.SetSink(r.sink)
	r.processor = NewInputProcessor(r.input, r.transforms, r.dispatcher, mode)
	r.processor.SetPrimaryDevice(DeviceController)
	r.processor.SetPrefix(DeviceController, "")
	r.processor.SetButtonPrefix(DeviceController, ButtonPrimary, "")
	r.transforms.Create(1, identitySqtAt(Vec3{}))
	return r
}

func (r *procRig) step(dt time.Duration, focus InputFocus) {
	r.input.AdvanceFrame(dt)
	r.processor.UpdateDevice(dt, focus)
}

// focusAtAngle builds a focus whose collision ray starts at (0, 0, 5) and has
// been deflected deg degrees around Y from straight at the origin.
func focusAtAngle(target Entity, deg float64) InputFocus {
	rad := deg * math.Pi / 180
	origin := Vec3{Z: 5}
	dir := Vec3{X: math.Sin(rad), Z: -math.Cos(rad)}
	return InputFocus{
		Device:              DeviceController,
		Target:              target,
		CollisionRay:        Ray{Origin: origin, Direction: dir},
		CursorPosition:      Vec3{},
		NoHitCursorPosition: origin.Add(dir.Scale(10)),
		Interactive:         target != NullEntity,
		Draggable:           target != NullEntity,
	}
}

func noFocus() InputFocus { return focusAtAngle(NullEntity, 0) }

// --- focus tests ---

func TestFocusStartStop(t *testing.T) {
	r := newProcRig(t, NoLegacy)

	r.step(frame, noFocus())
	if len(r.sink.events) != 0 {
		t.Fatalf("events with no focus: %v", r.sink.events)
	}

	r.step(frame, focusAtAngle(1, 0))
	if !r.sink.has("FocusStartEvent") || !r.sink.has("AnyFocusStartEvent") {
		t.Errorf("missing focus start events, got %v", eventNames(r.sink))
	}
	if e, _ := r.sink.find("FocusStartEvent"); e.Target != 1 || e.Device != DeviceController {
		t.Errorf("FocusStartEvent payload = %+v", e)
	}

	r.step(frame, focusAtAngle(1, 0))
	if r.sink.count("FocusStartEvent") != 1 {
		t.Error("FocusStartEvent repeated while focus unchanged")
	}

	r.step(frame, noFocus())
	if !r.sink.has("FocusStopEvent") || !r.sink.has("AnyFocusStopEvent") {
		t.Errorf("missing focus stop events, got %v", eventNames(r.sink))
	}
}

func TestFocusNonInteractiveIgnored(t *testing.T) {
	r := newProcRig(t, NoLegacy)
	focus := focusAtAngle(1, 0)
	focus.Interactive = false
	r.step(frame, focus)
	if r.sink.has("FocusStartEvent") {
		t.Error("FocusStartEvent sent for non-interactive target")
	}
}

func TestFocusSwitchesEntity(t *testing.T) {
	r := newProcRig(t, NoLegacy)
	r.transforms.Create(2, identitySqtAt(Vec3{X: 1}))

	r.step(frame, focusAtAngle(1, 0))
	r.step(frame, focusAtAngle(2, 0))

	stop, _ := r.sink.find("FocusStopEvent")
	if stop.Target != 1 {
		t.Errorf("FocusStopEvent target = %d, want 1", stop.Target)
	}
	if r.sink.count("FocusStartEvent") != 2 {
		t.Errorf("FocusStartEvent count = %d, want 2", r.sink.count("FocusStartEvent"))
	}
}

// --- button tests ---

func TestPressAndClick(t *testing.T) {
	r := newProcRig(t, NoLegacy)
	var scoped []string
	r.dispatcher.ConnectEntity(1, "ClickEvent", func(e Event) { scoped = append(scoped, e.Name) })

	r.input.SetButton(DeviceController, ButtonPrimary, true)
	r.step(frame, focusAtAngle(1, 0))
	press, ok := r.sink.find("PressEvent")
	if !ok {
		t.Fatalf("no PressEvent, got %v", eventNames(r.sink))
	}
	if press.Target != 1 || press.Button != ButtonPrimary {
		t.Errorf("PressEvent payload = %+v", press)
	}

	r.step(300*time.Millisecond, focusAtAngle(1, 0))

	r.input.SetButton(DeviceController, ButtonPrimary, false)
	r.step(frame, focusAtAngle(1, 0))
	if !r.sink.has("ReleaseEvent") {
		t.Error("no ReleaseEvent on release")
	}
	click, ok := r.sink.find("ClickEvent")
	if !ok {
		t.Fatalf("no ClickEvent, got %v", eventNames(r.sink))
	}
	if click.DurationMS != 300 {
		t.Errorf("ClickEvent duration = %d, want 300", click.DurationMS)
	}
	if len(scoped) != 1 {
		t.Errorf("entity-scoped ClickEvent fired %d times, want 1", len(scoped))
	}
	// Every event has its Any mirror.
	for _, name := range []string{"PressEvent", "ReleaseEvent", "ClickEvent"} {
		if r.sink.count(name) != r.sink.count("Any"+name) {
			t.Errorf("%s count %d != Any count %d",
				name, r.sink.count(name), r.sink.count("Any"+name))
		}
	}
}

func TestDragStartDragAndStop(t *testing.T) {
	r := newProcRig(t, NoLegacy)

	r.input.SetButton(DeviceController, ButtonPrimary, true)
	r.step(frame, focusAtAngle(1, 0))

	// 3 degrees: outside the 2-degree drag slop, inside the cancel threshold.
	r.step(frame, focusAtAngle(1, 3))
	if !r.sink.has("DragStartEvent") {
		t.Fatalf("no DragStartEvent at 3 degrees, got %v", eventNames(r.sink))
	}
	if r.sink.has("DragEvent") {
		t.Error("DragEvent on the same frame as DragStartEvent")
	}

	r.step(frame, focusAtAngle(1, 4))
	if !r.sink.has("DragEvent") {
		t.Error("no per-frame DragEvent while dragging")
	}

	r.input.SetButton(DeviceController, ButtonPrimary, false)
	r.step(frame, focusAtAngle(1, 4))
	if !r.sink.has("DragStopEvent") {
		t.Error("no DragStopEvent on release")
	}
	if r.sink.has("ClickEvent") {
		t.Error("ClickEvent sent after a drag")
	}
}

func TestSmallMovementStaysInsideSlop(t *testing.T) {
	r := newProcRig(t, NoLegacy)
	r.input.SetButton(DeviceController, ButtonPrimary, true)
	r.step(frame, focusAtAngle(1, 0))
	r.step(frame, focusAtAngle(1, 1)) // inside the 2-degree slop
	if r.sink.has("DragStartEvent") {
		t.Error("DragStartEvent inside the drag slop")
	}
	r.input.SetButton(DeviceController, ButtonPrimary, false)
	r.step(frame, focusAtAngle(1, 1))
	if !r.sink.has("ClickEvent") {
		t.Error("no ClickEvent after a press inside the slop")
	}
}

func TestNonDraggableNeverDrags(t *testing.T) {
	r := newProcRig(t, NoLegacy)
	focus := focusAtAngle(1, 0)
	focus.Draggable = false
	r.input.SetButton(DeviceController, ButtonPrimary, true)
	r.step(frame, focus)

	moved := focusAtAngle(1, 5)
	moved.Draggable = false
	r.step(frame, moved)
	if r.sink.has("DragStartEvent") {
		t.Error("DragStartEvent on a non-draggable target")
	}

	r.input.SetButton(DeviceController, ButtonPrimary, false)
	r.step(frame, moved)
	if !r.sink.has("ClickEvent") {
		t.Error("no ClickEvent: non-draggable presses stay inside slop")
	}
}

func TestCancelBeyondThreshold(t *testing.T) {
	r := newProcRig(t, NoLegacy)
	r.input.SetButton(DeviceController, ButtonPrimary, true)
	r.step(frame, focusAtAngle(1, 0))
	r.step(frame, focusAtAngle(1, 3)) // dragging
	r.step(frame, focusAtAngle(1, 40))
	if !r.sink.has("CancelEvent") {
		t.Fatalf("no CancelEvent at 40 degrees, got %v", eventNames(r.sink))
	}
	if !r.sink.has("DragStopEvent") {
		t.Error("no DragStopEvent when an active drag is canceled")
	}

	r.step(frame, focusAtAngle(1, 45))
	if r.sink.count("CancelEvent") != 1 {
		t.Error("CancelEvent repeated while already canceled")
	}

	r.input.SetButton(DeviceController, ButtonPrimary, false)
	r.step(frame, focusAtAngle(1, 45))
	if r.sink.has("ClickEvent") {
		t.Error("ClickEvent after a canceled press")
	}
}

func TestFocusChangeDuringPress(t *testing.T) {
	r := newProcRig(t, NoLegacy)
	r.transforms.Create(2, identitySqtAt(Vec3{}))

	r.input.SetButton(DeviceController, ButtonPrimary, true)
	r.step(frame, focusAtAngle(1, 0))
	r.step(frame, focusAtAngle(2, 0))
	cancel, ok := r.sink.find("CancelEvent")
	if !ok || cancel.Target != 1 {
		t.Errorf("CancelEvent on old target: got %+v ok %v", cancel, ok)
	}

	r.input.SetButton(DeviceController, ButtonPrimary, false)
	r.step(frame, focusAtAngle(2, 0))
	// Release goes to both the current target and the pressed entity.
	if got := r.sink.count("ReleaseEvent"); got != 2 {
		t.Errorf("ReleaseEvent count = %d, want 2 (current and pressed entity)", got)
	}
	if r.sink.has("ClickEvent") {
		t.Error("ClickEvent after focus changed mid-press")
	}
}

func TestLongPressSuppressesClick(t *testing.T) {
	r := newProcRig(t, NoLegacy)
	r.input.SetButton(DeviceController, ButtonPrimary, true)
	r.step(frame, focusAtAngle(1, 0))
	r.step(600*time.Millisecond, focusAtAngle(1, 0))
	if e, ok := r.sink.find("LongPressEvent"); !ok || e.Target != 1 {
		t.Fatalf("LongPressEvent = %+v ok %v", e, ok)
	}

	r.input.SetButton(DeviceController, ButtonPrimary, false)
	r.step(frame, focusAtAngle(1, 0))
	if !r.sink.has("ReleaseEvent") {
		t.Error("no ReleaseEvent after long press")
	}
	if r.sink.has("ClickEvent") {
		t.Error("ClickEvent after a long press")
	}
}

// --- prefix tests ---

func TestEventPrefixes(t *testing.T) {
	r := newProcRig(t, NoLegacy)
	r.processor.SetPrefix(DeviceController, "Main")
	r.processor.SetButtonPrefix(DeviceController, ButtonPrimary, "System")

	r.input.SetButton(DeviceController, ButtonPrimary, true)
	r.step(frame, focusAtAngle(1, 0))

	if !r.sink.has("MainFocusStartEvent") {
		t.Errorf("no MainFocusStartEvent, got %v", eventNames(r.sink))
	}
	if !r.sink.has("SystemPressEvent") || !r.sink.has("AnyPressEvent") {
		t.Errorf("button prefix missing, got %v", eventNames(r.sink))
	}
	if r.sink.has("PressEvent") {
		t.Error("bare PressEvent sent despite a configured prefix")
	}
}

func TestClearButtonPrefix(t *testing.T) {
	r := newProcRig(t, NoLegacy)
	r.processor.ClearButtonPrefix(DeviceController, ButtonPrimary)
	r.input.SetButton(DeviceController, ButtonPrimary, true)
	r.step(frame, focusAtAngle(1, 0))
	if r.sink.has("PressEvent") {
		t.Error("bare PressEvent sent after ClearButtonPrefix")
	}
	if !r.sink.has("AnyPressEvent") {
		t.Error("AnyPressEvent missing after ClearButtonPrefix")
	}
}

// --- legacy mode tests ---

func TestLegacyEventsMode(t *testing.T) {
	r := newProcRig(t, LegacyEvents)

	r.input.SetButton(DeviceController, ButtonPrimary, true)
	r.step(frame, focusAtAngle(1, 0))
	if !r.sink.has("StartHoverEvent") {
		t.Error("no StartHoverEvent on the primary device")
	}
	if !r.sink.has("LegacyClickEvent") {
		t.Error("no legacy press event")
	}

	r.input.SetButton(DeviceController, ButtonPrimary, false)
	r.step(frame, focusAtAngle(1, 0))
	if !r.sink.has("ClickReleasedEvent") {
		t.Error("no legacy release event")
	}
	if !r.sink.has("ClickPressedAndReleasedEvent") {
		t.Error("no legacy click event")
	}
	// The new names are sent too in this mode.
	if !r.sink.has("ClickEvent") || !r.sink.has("PressEvent") {
		t.Errorf("new events missing in LegacyEvents mode: %v", eventNames(r.sink))
	}
}

func TestLegacyEventsOnlyForPrimaryDevice(t *testing.T) {
	r := newProcRig(t, LegacyEvents)
	r.processor.SetPrimaryDevice(DeviceController2)

	r.input.SetButton(DeviceController, ButtonPrimary, true)
	r.step(frame, focusAtAngle(1, 0))
	if r.sink.has("LegacyClickEvent") || r.sink.has("StartHoverEvent") {
		t.Errorf("legacy events from a non-primary device: %v", eventNames(r.sink))
	}
}

func TestLegacyLogicSendsNoDragOrCancel(t *testing.T) {
	r := newProcRig(t, LegacyEventsAndLogic)
	r.input.SetButton(DeviceController, ButtonPrimary, true)
	r.step(frame, focusAtAngle(1, 0))
	r.step(frame, focusAtAngle(1, 10))
	r.step(frame, focusAtAngle(1, 40))
	if r.sink.has("DragStartEvent") || r.sink.has("CancelEvent") {
		t.Errorf("drag/cancel events in legacy logic mode: %v", eventNames(r.sink))
	}

	r.input.SetButton(DeviceController, ButtonPrimary, false)
	r.step(frame, focusAtAngle(1, 40))
	if !r.sink.has("ClickEvent") {
		t.Error("no ClickEvent: legacy logic has no slop machine")
	}
}

func TestNoEventsStoresFocusOnly(t *testing.T) {
	r := newProcRig(t, NoEvents)
	r.input.SetButton(DeviceController, ButtonPrimary, true)
	r.step(frame, focusAtAngle(1, 0))
	if len(r.sink.events) != 0 {
		t.Errorf("events sent in NoEvents mode: %v", eventNames(r.sink))
	}
	focus := r.processor.GetInputFocus(DeviceController)
	if focus == nil || focus.Target != 1 {
		t.Errorf("stored focus = %+v, want target 1", focus)
	}
}

func TestGetInputFocusUnknown(t *testing.T) {
	r := newProcRig(t, NoLegacy)
	if r.processor.GetInputFocus(DeviceHmd) != nil {
		t.Error("focus for a never-updated device should be nil")
	}
	if r.processor.GetInputFocus(MaxNumDeviceTypes) != nil {
		t.Error("focus for the no-device sentinel should be nil")
	}
	if r.processor.GetPreviousFocus(DeviceHmd) != nil {
		t.Error("previous focus for a never-updated device should be nil")
	}
}

func TestPreviousFocusLagsOneFrame(t *testing.T) {
	r := newProcRig(t, NoLegacy)
	r.step(frame, focusAtAngle(1, 0))
	r.step(frame, noFocus())
	if prev := r.processor.GetPreviousFocus(DeviceController); prev == nil || prev.Target != 1 {
		t.Errorf("previous focus = %+v, want target 1", prev)
	}
	if cur := r.processor.GetInputFocus(DeviceController); cur == nil || cur.Target != NullEntity {
		t.Errorf("current focus = %+v, want no target", cur)
	}
}

func eventNames(s *recordingSink) []string {
	names := make([]string, len(s.events))
	for i, e := range s.events {
		names[i] = e.Name
	}
	return names
}
