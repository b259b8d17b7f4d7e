package rowan

import (
	"math"
	"time"
)

// Angle in radians between the focus's collision ray and a ray from the
// collision ray's origin to the current cursor position.
const (
	rayDragSlop   = 2.0 * degreesToRadians
	rayCancelSlop = 35.0 * degreesToRadians
)

// LegacyMode configures the backward-compatibility behavior of the
// processor.
type LegacyMode int

const (
	// LegacyEventsAndLogic uses the reticle-era event names and logic, plus
	// the new events when they line up with an old one. This mode does not
	// send cancel or drag events.
	LegacyEventsAndLogic LegacyMode = iota
	// LegacyEvents uses the new logic but sends both old and new events.
	LegacyEvents
	// NoLegacy sends only the new events.
	NoLegacy
	// NoEvents sends nothing; the processor only stores focus data.
	NoEvents
)

type deviceEventType int

const (
	evFocusStart deviceEventType = iota
	evFocusStop
	numDeviceEventTypes
)

type buttonEventType int

const (
	evPress buttonEventType = iota
	evRelease
	evClick
	evLongPress
	evCancel
	evDragStart
	evDrag
	evDragStop
	numButtonEventTypes
)

type deviceEventSet [numDeviceEventTypes]string
type buttonEventSet [numButtonEventTypes]string

func makeDeviceEvents(prefix string) deviceEventSet {
	return deviceEventSet{
		evFocusStart: prefix + eventFocusStart,
		evFocusStop:  prefix + eventFocusStop,
	}
}

func makeButtonEvents(prefix string) buttonEventSet {
	return buttonEventSet{
		evPress:     prefix + eventPress,
		evRelease:   prefix + eventRelease,
		evClick:     prefix + eventClick,
		evLongPress: prefix + eventLongPress,
		evCancel:    prefix + eventCancel,
		evDragStart: prefix + eventDragStart,
		evDrag:      prefix + eventDrag,
		evDragStop:  prefix + eventDragStop,
	}
}

// pressState is the logical state of one button press cycle.
type pressState uint8

const (
	// pressInsideSlop: collision ray still inside the drag slop.
	pressInsideSlop pressState = iota
	// pressDragging: collision ray between the drag slop and the cancel
	// threshold.
	pressDragging
	// pressBeforeFocus: focus changed after the press. Only a Release can be
	// sent from this state.
	pressBeforeFocus
	// pressCanceled: collision ray exceeded the cancel threshold.
	pressCanceled
	// pressReleased: button is up. Baseline between press cycles.
	pressReleased
)

// buttonPress tracks one device/button pair across a press cycle.
type buttonPress struct {
	// Entity the device was focused on when the button went down.
	pressedEntity Entity
	// Entity the device was focused on the last time this button updated.
	focusedEntity Entity
	state         pressState
	// Local-space cursor location on focusedEntity at press time.
	pressedLocation Vec3
	msSincePress    int64
}

type deviceButtonKey struct {
	device DeviceType
	button ButtonID
}

type deviceTouchpadKey struct {
	device   DeviceType
	touchpad TouchpadID
}

// InputProcessor turns per-device focus plus raw button and touch state into
// a named event stream, and stores what each device is focused on.
//
// Apps first set up prefixes: the main device usually gets an empty prefix,
// and its primary button too, so entities can listen for plain
// "FocusStartEvent" or "ClickEvent". Every event is also mirrored with the
// "Any" prefix (e.g. "AnyClickEvent"); handlers of Any events should check
// the event's Device and Button fields.
//
// Each frame, after InputManager.AdvanceFrame, decide what entity each
// device points at, build an InputFocus, and call UpdateDevice exactly once
// per device. Calling UpdateDevice twice for the same device in one frame
// corrupts focus-change detection.
type InputProcessor struct {
	input      *InputManager
	transforms *TransformSystem
	dispatcher *Dispatcher
	legacyMode LegacyMode

	foci    map[DeviceType]*focusPair
	buttons map[deviceButtonKey]*buttonPress

	deviceEvents   map[DeviceType]deviceEventSet
	buttonEvents   map[deviceButtonKey]buttonEventSet
	devicePrefixes map[DeviceType]string

	anyDeviceEvents deviceEventSet
	anyButtonEvents buttonEventSet

	legacyDeviceEvents deviceEventSet
	legacyButtonEvents buttonEventSet

	touchpads map[deviceTouchpadKey]*touchpadState

	primaryDevice DeviceType
}

// NewInputProcessor creates a processor reading raw state from input,
// resolving entity poses through transforms, and sending events through
// dispatcher.
func NewInputProcessor(input *InputManager, transforms *TransformSystem,
	dispatcher *Dispatcher, legacyMode LegacyMode) *InputProcessor {
	p := &InputProcessor{
		input:          input,
		transforms:     transforms,
		dispatcher:     dispatcher,
		legacyMode:     legacyMode,
		foci:           map[DeviceType]*focusPair{},
		buttons:        map[deviceButtonKey]*buttonPress{},
		deviceEvents:   map[DeviceType]deviceEventSet{},
		buttonEvents:   map[deviceButtonKey]buttonEventSet{},
		devicePrefixes: map[DeviceType]string{},
		touchpads:      map[deviceTouchpadKey]*touchpadState{},
		primaryDevice:  MaxNumDeviceTypes,
	}
	if legacyMode != NoEvents {
		p.anyDeviceEvents = makeDeviceEvents(anyPrefix)
		p.anyButtonEvents = makeButtonEvents(anyPrefix)
		if legacyMode != NoLegacy {
			p.legacyButtonEvents[evPress] = legacyEventPress
			p.legacyButtonEvents[evRelease] = legacyEventRelease
			p.legacyButtonEvents[evClick] = legacyEventClick
			p.legacyButtonEvents[evLongPress] = legacyEventLongPress
			p.legacyDeviceEvents[evFocusStart] = legacyEventFocusStart
			p.legacyDeviceEvents[evFocusStop] = legacyEventFocusStop
		}
	}
	return p
}

// GetInputFocus returns what the device is focused on this frame, or nil if
// the device has never been updated.
func (p *InputProcessor) GetInputFocus(device DeviceType) *InputFocus {
	if device == MaxNumDeviceTypes {
		return nil
	}
	if pair, ok := p.foci[device]; ok {
		return &pair.current
	}
	return nil
}

// GetPreviousFocus returns what the device was focused on last frame, or nil
// if the device has never been updated.
func (p *InputProcessor) GetPreviousFocus(device DeviceType) *InputFocus {
	if device == MaxNumDeviceTypes {
		return nil
	}
	if pair, ok := p.foci[device]; ok {
		return &pair.previous
	}
	return nil
}

// SetPrimaryDevice sets which device is the main selection device. Not used
// directly by the processor's state machines, but legacy events only fire
// for the primary device, and other systems may query it.
func (p *InputProcessor) SetPrimaryDevice(device DeviceType) {
	p.primaryDevice = device
}

// GetPrimaryDevice returns the main device used for interaction with UI.
func (p *InputProcessor) GetPrimaryDevice() DeviceType {
	return p.primaryDevice
}

// SetPrefix sets the prefix for a device's focus events: with prefix "Main",
// "FocusStartEvent" becomes "MainFocusStartEvent". An empty prefix sends the
// bare names. Every device also sends the "Any"-prefixed copy.
func (p *InputProcessor) SetPrefix(device DeviceType, prefix string) {
	p.deviceEvents[device] = makeDeviceEvents(prefix)
	p.devicePrefixes[device] = prefix
}

// SetButtonPrefix sets the prefix for a device/button pair's events: with
// prefix "System", "ClickEvent" becomes "SystemClickEvent". An empty prefix
// sends the bare names. Every button also sends the "Any"-prefixed copy.
func (p *InputProcessor) SetButtonPrefix(device DeviceType, button ButtonID, prefix string) {
	p.buttonEvents[deviceButtonKey{device, button}] = makeButtonEvents(prefix)
}

// ClearPrefix removes a device's prefix, so its focus events are only sent
// with the "Any" prefix.
func (p *InputProcessor) ClearPrefix(device DeviceType) {
	delete(p.deviceEvents, device)
	delete(p.devicePrefixes, device)
}

// ClearButtonPrefix removes a device/button pair's prefix, so its events are
// only sent with the "Any" prefix.
func (p *InputProcessor) ClearButtonPrefix(device DeviceType, button ButtonID) {
	delete(p.buttonEvents, deviceButtonKey{device, button})
}

// UpdateDevice updates focus, button, and touch state for the focus's device
// and sends the resulting events. Call once per frame per device, after
// InputManager.AdvanceFrame.
func (p *InputProcessor) UpdateDevice(dt time.Duration, focus InputFocus) {
	p.swapBuffers(focus)
	if p.legacyMode == NoEvents {
		return
	}

	p.updateFocus(focus.Device)
	if p.legacyMode == LegacyEventsAndLogic {
		p.updateButtonsLegacy(dt, focus.Device)
	} else {
		p.updateButtons(dt, focus.Device)
	}
	p.updateTouchpads(dt, focus.Device)
}

func (p *InputProcessor) swapBuffers(focus InputFocus) {
	pair, ok := p.foci[focus.Device]
	if !ok {
		pair = &focusPair{}
		p.foci[focus.Device] = pair
	}
	pair.previous = pair.current
	pair.current = focus
}

func (p *InputProcessor) updateFocus(device DeviceType) {
	pair := p.foci[device]
	current := interactiveTarget(&pair.current)
	previous := interactiveTarget(&pair.previous)
	if current != previous {
		if previous != NullEntity {
			p.sendDeviceEvent(device, evFocusStop, previous, nil)
		}
		if current != NullEntity {
			p.sendDeviceEvent(device, evFocusStart, current, nil)
		}
	}
}

func interactiveTarget(focus *InputFocus) Entity {
	if focus.Interactive {
		return focus.Target
	}
	return NullEntity
}

func (p *InputProcessor) buttonState(device DeviceType, button ButtonID) *buttonPress {
	key := deviceButtonKey{device, button}
	bs, ok := p.buttons[key]
	if !ok {
		bs = &buttonPress{state: pressReleased}
		p.buttons[key] = bs
	}
	return bs
}

func (p *InputProcessor) updateButtons(dt time.Duration, device DeviceType) {
	focus := &p.foci[device].current
	numButtons := p.input.GetNumButtons(device)
	for i := 0; i < numButtons; i++ {
		buttonID := ButtonID(i)
		bits := p.input.GetButtonState(device, buttonID)
		bs := p.buttonState(device, buttonID)
		if bits.HasBit(BitJustPressed) {
			bs.state = pressInsideSlop
			p.handlePress(device, buttonID, bs)
		} else if bits.HasBit(BitPressed) {
			current := interactiveTarget(focus)
			bs.msSincePress += dt.Milliseconds()

			if bs.focusedEntity != current {
				if bs.state != pressCanceled {
					// Cancel the press on the previous target.
					p.handleCancel(device, buttonID, bs)
				}
				// Retarget the press at the new focus. pressBeforeFocus
				// blocks Click, LongPress, DragStart, and DragStop for the
				// rest of this press.
				p.setButtonTarget(device, bs)
				bs.state = pressBeforeFocus
			}

			newState := pressCanceled
			if bs.state != pressCanceled {
				slopAngle := p.calculateRaySlop(bs, focus)
				if bs.state == pressBeforeFocus {
					if slopAngle <= rayCancelSlop {
						newState = pressBeforeFocus
					}
				} else {
					if slopAngle <= rayDragSlop {
						newState = pressInsideSlop
					} else if slopAngle <= rayCancelSlop {
						if focus.Draggable {
							newState = pressDragging
						} else {
							newState = pressInsideSlop
						}
					}
				}
			}

			if newState == pressCanceled && bs.state != pressCanceled {
				// Just left the cancel threshold for the first time.
				p.handleCancel(device, buttonID, bs)
				bs.state = pressCanceled
			}

			if newState == pressDragging && bs.state == pressInsideSlop {
				// Just left the drag threshold for the first time.
				bs.state = pressDragging
				p.handleDragStart(device, buttonID)
			} else if bs.state == pressDragging {
				p.handleDrag(device, buttonID)
			}

			if bits.HasBit(BitJustLongPressed) && bs.state == pressInsideSlop {
				p.sendButtonEvent(device, buttonID, evLongPress, bs.focusedEntity, nil)
			}
		}
		if bits.HasBit(BitJustReleased) {
			p.handleRelease(device, buttonID, bits, bs)
			bs.state = pressReleased
		} else if !bits.HasBit(BitPressed) && bs.state != pressReleased {
			// The press cycle thinks it's live, but the button isn't actually
			// down. Happens across an app pause/resume, so just cancel it.
			p.handleCancel(device, buttonID, bs)
			bs.state = pressReleased
		}
	}
}

func (p *InputProcessor) updateButtonsLegacy(dt time.Duration, device DeviceType) {
	numButtons := p.input.GetNumButtons(device)
	for i := 0; i < numButtons; i++ {
		buttonID := ButtonID(i)
		bs := p.buttonState(device, buttonID)
		bits := p.input.GetButtonState(device, buttonID)
		if bits.HasBit(BitJustPressed) {
			p.handlePress(device, buttonID, bs)
		} else if bits.HasBit(BitPressed) {
			bs.msSincePress += dt.Milliseconds()
			if bits.HasBit(BitJustLongPressed) {
				p.handleLongPressLegacy(device, buttonID, bs)
			}
		} else if bits.HasBit(BitJustReleased) {
			p.handleReleaseLegacy(device, buttonID, bits, bs)
		}
	}
}

func (p *InputProcessor) handlePress(device DeviceType, buttonID ButtonID, bs *buttonPress) {
	focus := &p.foci[device].current
	bs.pressedEntity = interactiveTarget(focus)
	bs.msSincePress = 0
	p.setButtonTarget(device, bs)
	location := bs.pressedLocation
	p.sendButtonEvent(device, buttonID, evPress, bs.focusedEntity, func(e *Event) {
		e.Location = location
	})
}

func (p *InputProcessor) handleDragStart(device DeviceType, buttonID ButtonID) {
	focus := &p.foci[device].current
	current := interactiveTarget(focus)
	location := p.localCursorPosition(current, focus)
	p.sendButtonEvent(device, buttonID, evDragStart, current, func(e *Event) {
		e.Location = location
	})
}

func (p *InputProcessor) handleDrag(device DeviceType, buttonID ButtonID) {
	focus := &p.foci[device].current
	current := interactiveTarget(focus)
	location := p.localCursorPosition(current, focus)
	p.sendButtonEvent(device, buttonID, evDrag, current, func(e *Event) {
		e.Location = location
	})
}

// localCursorPosition converts the focus's world-space cursor position into
// the entity's local space, or returns it unchanged for the null entity.
func (p *InputProcessor) localCursorPosition(entity Entity, focus *InputFocus) Vec3 {
	if entity == NullEntity {
		return Vec3{}
	}
	world, ok := p.transforms.GetWorldFromEntityMatrix(entity)
	if !ok {
		return Vec3{}
	}
	return world.Inverse().TransformPoint(focus.CursorPosition)
}

func (p *InputProcessor) handleRelease(device DeviceType, buttonID ButtonID,
	bits ButtonBits, bs *buttonPress) {
	focus := &p.foci[device].current
	current := interactiveTarget(focus)

	p.sendButtonEvent(device, buttonID, evRelease, current, nil)
	if current != bs.pressedEntity {
		p.sendButtonEvent(device, buttonID, evRelease, bs.pressedEntity, nil)
	}
	if bs.state == pressDragging {
		p.sendButtonEvent(device, buttonID, evDragStop, current, nil)
	} else if bs.state == pressInsideSlop && bs.focusedEntity == current &&
		!bits.HasBit(BitLongPressed) {
		duration := bs.msSincePress
		p.sendButtonEvent(device, buttonID, evClick, current, func(e *Event) {
			e.DurationMS = duration
		})
	}

	resetButton(bs)
}

func (p *InputProcessor) handleCancel(device DeviceType, buttonID ButtonID, bs *buttonPress) {
	p.sendButtonEvent(device, buttonID, evCancel, bs.focusedEntity, nil)
	if bs.state == pressDragging {
		p.sendButtonEvent(device, buttonID, evDragStop, bs.focusedEntity, nil)
	}
}

func (p *InputProcessor) handleReleaseLegacy(device DeviceType, buttonID ButtonID,
	bits ButtonBits, bs *buttonPress) {
	focus := &p.foci[device].current
	current := interactiveTarget(focus)

	// The reticle-era logic sent release to both the pressed and released
	// entities, so emulate that here.
	if current != bs.focusedEntity && bs.focusedEntity != NullEntity &&
		p.legacyMode == LegacyEventsAndLogic && device == p.primaryDevice &&
		buttonID == ButtonPrimary {
		p.dispatcher.SendToEntity(bs.focusedEntity, Event{
			Name:          legacyEventRelease,
			Target:        bs.focusedEntity,
			Device:        device,
			Button:        buttonID,
			PressedEntity: bs.focusedEntity,
		})
	}

	pressed := bs.focusedEntity
	p.sendButtonEvent(device, buttonID, evRelease, current, func(e *Event) {
		e.PressedEntity = pressed
	})

	if bs.focusedEntity == current && !bits.HasBit(BitLongPressed) {
		duration := bs.msSincePress
		p.sendButtonEvent(device, buttonID, evClick, bs.focusedEntity, func(e *Event) {
			e.DurationMS = duration
		})
	}
	resetButton(bs)
}

func (p *InputProcessor) handleLongPressLegacy(device DeviceType, buttonID ButtonID, bs *buttonPress) {
	focus := &p.foci[device].current
	current := interactiveTarget(focus)
	if bs.focusedEntity == current {
		p.sendButtonEvent(device, buttonID, evLongPress, current, nil)
	}
}

func (p *InputProcessor) setButtonTarget(device DeviceType, bs *buttonPress) {
	focus := &p.foci[device].current
	bs.focusedEntity = interactiveTarget(focus)

	bs.pressedLocation = Vec3{}
	if bs.state != pressReleased && bs.focusedEntity != NullEntity {
		world, ok := p.transforms.GetWorldFromEntityMatrix(bs.focusedEntity)
		if ok {
			bs.pressedLocation = world.Inverse().TransformPoint(focus.CursorPosition)
		} else {
			logError("no world matrix on focused entity %d", bs.focusedEntity)
		}
	}
}

func resetButton(bs *buttonPress) {
	bs.pressedEntity = NullEntity
	bs.focusedEntity = NullEntity
	bs.pressedLocation = Vec3{}
	bs.msSincePress = 0
}

// calculateRaySlop returns the angle in radians [0, pi] between a ray from
// the collision ray's origin to the original press location and a ray from
// that origin to the current no-hit cursor position. Returns 0 if there is
// no focused entity, and +Inf-like max if the focused entity has no
// transform.
func (p *InputProcessor) calculateRaySlop(bs *buttonPress, focus *InputFocus) float64 {
	if bs.focusedEntity == NullEntity {
		return 0
	}
	world, ok := p.transforms.GetWorldFromEntityMatrix(bs.focusedEntity)
	if !ok {
		return math.MaxFloat64
	}
	pressedWorld := world.TransformPoint(bs.pressedLocation)

	sourceToOriginal := pressedWorld.Sub(focus.CollisionRay.Origin)
	sourceToCurrent := focus.NoHitCursorPosition.Sub(focus.CollisionRay.Origin)
	return sourceToOriginal.Angle(sourceToCurrent)
}

func (p *InputProcessor) sendDeviceEvent(device DeviceType, eventType deviceEventType,
	target Entity, fill func(*Event)) {
	if set, ok := p.deviceEvents[device]; ok {
		p.sendEvent(set[eventType], target, device, InvalidButton, fill)
	}
	p.sendEvent(p.anyDeviceEvents[eventType], target, device, InvalidButton, fill)

	if p.legacyMode != NoLegacy && device == p.primaryDevice &&
		p.legacyDeviceEvents[eventType] != "" {
		p.sendEvent(p.legacyDeviceEvents[eventType], target, device, InvalidButton, fill)
	}
}

func (p *InputProcessor) sendButtonEvent(device DeviceType, button ButtonID,
	eventType buttonEventType, target Entity, fill func(*Event)) {
	if set, ok := p.buttonEvents[deviceButtonKey{device, button}]; ok {
		p.sendEvent(set[eventType], target, device, button, fill)
	}
	p.sendEvent(p.anyButtonEvents[eventType], target, device, button, fill)

	if p.legacyMode != NoLegacy && device == p.primaryDevice &&
		button == ButtonPrimary && p.legacyButtonEvents[eventType] != "" {
		if eventType == evLongPress {
			// The old logic already sent this globally, so only send the
			// entity-scoped copy.
			if target != NullEntity {
				p.dispatcher.SendToEntity(target, Event{
					Name:   p.legacyButtonEvents[eventType],
					Target: target,
					Device: device,
					Button: button,
				})
			}
		} else {
			p.sendEvent(p.legacyButtonEvents[eventType], target, device, button, fill)
		}
	}
}

func (p *InputProcessor) sendEvent(name string, target Entity, device DeviceType,
	button ButtonID, fill func(*Event)) {
	event := Event{
		Name:   name,
		Target: target,
		Device: device,
		Button: button,
	}
	if fill != nil {
		fill(&event)
	}
	p.dispatcher.Send(event)
	if target != NullEntity {
		p.dispatcher.SendToEntity(target, event)
	}
}
