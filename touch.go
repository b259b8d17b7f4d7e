package rowan

import "time"

// touchContact tracks per-touch event state independent of gestures: press
// and release events always fire, and the swipe fallback runs only on
// touchpads with no registered recognizers.
type touchContact struct {
	swiping  bool
	canceled bool
}

// touchpadState is the per-device/touchpad gesture bookkeeping: registered
// recognizers in priority order, live gestures, and touch ownership.
type touchpadState struct {
	recognizers []GestureRecognizer
	gestures    []Gesture
	owners      map[TouchID]Gesture
	contacts    map[TouchID]*touchContact
}

func (p *InputProcessor) touchpadState(device DeviceType, touchpad TouchpadID) *touchpadState {
	key := deviceTouchpadKey{device, touchpad}
	tp, ok := p.touchpads[key]
	if !ok {
		tp = &touchpadState{
			owners:   map[TouchID]Gesture{},
			contacts: map[TouchID]*touchContact{},
		}
		p.touchpads[key] = tp
	}
	return tp
}

// AddGestureRecognizer registers a recognizer on a touchpad. Recognizers are
// consulted in registration order; the first one whose TryStart returns a
// gesture claims the touches for that frame. The recognizer's arity is
// validated when its base is constructed with NewRecognizerBase.
func (p *InputProcessor) AddGestureRecognizer(device DeviceType, touchpad TouchpadID,
	recognizer GestureRecognizer) {
	recognizer.Rec().setContext(p, p.input)
	tp := p.touchpadState(device, touchpad)
	tp.recognizers = append(tp.recognizers, recognizer)
}

// GetTouchOwner returns the gesture currently consuming a touch, or nil.
func (p *InputProcessor) GetTouchOwner(device DeviceType, touchpad TouchpadID, id TouchID) Gesture {
	tp, ok := p.touchpads[deviceTouchpadKey{device, touchpad}]
	if !ok {
		return nil
	}
	return tp.owners[id]
}

// CancelAllGestures cancels every live gesture and touch contact. Call this
// when the app resumes after a pause; gestures revert their side effects and
// send their cancel events on the next frame. Cancel may be invoked more
// than once on a gesture owning multiple touches.
func (p *InputProcessor) CancelAllGestures() {
	for key, tp := range p.touchpads {
		for _, owner := range tp.owners {
			owner.Cancel()
		}
		for id, contact := range tp.contacts {
			if contact.canceled {
				continue
			}
			contact.canceled = true
			if contact.swiping {
				contact.swiping = false
				p.sendTouchEvent(key.device, key.touchpad, eventSwipeStop, id)
			}
			p.sendTouchEvent(key.device, key.touchpad, eventTouchCancel, id)
		}
	}
}

// updateTouchpads runs the per-touchpad touch machinery for one device:
// press/release events, then either gesture recognition or the swipe
// fallback.
func (p *InputProcessor) updateTouchpads(dt time.Duration, device DeviceType) {
	for _, touchpad := range p.input.Touchpads(device) {
		tp := p.touchpadState(device, touchpad)
		p.updateTouchContacts(device, touchpad, tp)
		if len(tp.recognizers) > 0 {
			p.updateTouchGestures(dt, device, touchpad, tp)
		} else {
			p.updateTouchSwipes(device, touchpad, tp)
		}
	}
}

// updateTouchContacts sends TouchPress for new touches and TouchRelease for
// lifted ones, and keeps the contact map in sync with the input manager.
func (p *InputProcessor) updateTouchContacts(device DeviceType, touchpad TouchpadID,
	tp *touchpadState) {
	active := map[TouchID]bool{}
	for _, id := range p.input.ActiveTouches(device, touchpad) {
		active[id] = true
		if _, ok := tp.contacts[id]; !ok {
			tp.contacts[id] = &touchContact{}
			p.sendTouchEvent(device, touchpad, eventTouchPress, id)
		}
	}
	for id, contact := range tp.contacts {
		if active[id] {
			continue
		}
		if !contact.canceled {
			if contact.swiping {
				p.sendTouchEvent(device, touchpad, eventSwipeStop, id)
			}
			p.sendTouchEvent(device, touchpad, eventTouchRelease, id)
		}
		delete(tp.contacts, id)
	}
}

// updateTouchSwipes is the fallback for touchpads with no recognizers:
// button-like swipe detection using the same physical threshold as the drag
// recognizer.
func (p *InputProcessor) updateTouchSwipes(device DeviceType, touchpad TouchpadID,
	tp *touchpadState) {
	sizeCM, ok := p.input.GetTouchpadSizeCM(device, touchpad)
	if !ok {
		return
	}
	for id, contact := range tp.contacts {
		if contact.swiping || contact.canceled {
			continue
		}
		origin := sizeCM.Mul(p.input.GetTouchGestureOrigin(device, touchpad, id))
		cur := sizeCM.Mul(p.input.GetTouchLocation(device, touchpad, id))
		if origin.Sub(cur).LengthSquared() >= dragDeltaSq {
			contact.swiping = true
			p.sendTouchEvent(device, touchpad, eventSwipeStart, id)
		}
	}
}

func (p *InputProcessor) updateTouchGestures(dt time.Duration, device DeviceType,
	touchpad TouchpadID, tp *touchpadState) {
	// Advance live gestures first; finished ones free their touches before
	// recognition runs.
	live := tp.gestures[:0]
	for _, g := range tp.gestures {
		state := g.AdvanceFrame(dt)
		if state == GestureEnding || state == GestureCanceled {
			p.finishGesture(device, touchpad, tp, g, state)
			continue
		}
		live = append(live, g)
	}
	tp.gestures = live

	sizeCM, _ := p.input.GetTouchpadSizeCM(device, touchpad)
	active := p.input.ActiveTouches(device, touchpad)
	claimed := map[TouchID]bool{}
	for _, r := range tp.recognizers {
		r.Rec().setTouchpadSize(sizeCM)
		forEachTouchCombination(active, r.Rec().NumTouches(), claimed,
			func(ids []TouchID) {
				g := r.TryStart(device, touchpad, ids)
				if g == nil {
					return
				}
				p.startGesture(device, touchpad, tp, r, g, ids, sizeCM)
				for _, id := range ids {
					claimed[id] = true
				}
			})
	}
}

// forEachTouchCombination calls fn for every unordered combination of n ids,
// skipping combinations that include a touch already claimed this frame.
// ids must be sorted; combinations are produced in lexicographic order.
func forEachTouchCombination(ids []TouchID, n int, claimed map[TouchID]bool,
	fn func([]TouchID)) {
	combo := make([]TouchID, 0, n)
	var walk func(start int)
	walk = func(start int) {
		if len(combo) == n {
			fn(combo)
			return
		}
		for i := start; i < len(ids); i++ {
			if claimed[ids[i]] {
				continue
			}
			combo = append(combo, ids[i])
			walk(i + 1)
			combo = combo[:len(combo)-1]
		}
	}
	walk(0)
}

// startGesture claims the touches for g, interrupting any gesture that
// previously owned them, then initializes g and sends its start event.
func (p *InputProcessor) startGesture(device DeviceType, touchpad TouchpadID,
	tp *touchpadState, r GestureRecognizer, g Gesture, ids []TouchID, sizeCM Vec2) {
	for _, id := range ids {
		if prior := tp.owners[id]; prior != nil && prior != g {
			prior.Base().state = GestureEnding
			p.finishGesture(device, touchpad, tp, prior, GestureEnding)
			tp.gestures = removeGesture(tp.gestures, prior)
		}
	}

	var target Entity
	if pair, ok := p.foci[device]; ok {
		target = interactiveTarget(&pair.current)
	}
	g.Base().setup(p, p.input, device, touchpad, ids, sizeCM,
		r.Rec().Name(), target)
	g.Initialize()

	for _, id := range ids {
		tp.owners[id] = g
	}
	tp.gestures = append(tp.gestures, g)
	p.sendGestureEvent(g, gestureSuffixStart)
}

// finishGesture sends the gesture's stop or cancel event and frees its
// touches.
func (p *InputProcessor) finishGesture(device DeviceType, touchpad TouchpadID,
	tp *touchpadState, g Gesture, state GestureState) {
	suffix := gestureSuffixStop
	if state == GestureCanceled {
		suffix = gestureSuffixCancel
	}
	p.sendGestureEvent(g, suffix)
	for id, owner := range tp.owners {
		if owner == g {
			delete(tp.owners, id)
		}
	}
}

func removeGesture(gestures []Gesture, g Gesture) []Gesture {
	for i := range gestures {
		if gestures[i] == g {
			copy(gestures[i:], gestures[i+1:])
			gestures[len(gestures)-1] = nil
			return gestures[:len(gestures)-1]
		}
	}
	return gestures
}

// sendGestureEvent composes <prefix><RecognizerName><suffix> (e.g.
// "PinchStartEvent") plus the "Any" copy and sends both.
func (p *InputProcessor) sendGestureEvent(g Gesture, suffix string) {
	base := g.Base()
	fill := func(e *Event) {
		e.Touchpad = base.touchpad
		e.Touches = append([]TouchID(nil), base.ids...)
	}
	if prefix, ok := p.devicePrefixes[base.device]; ok {
		p.sendEvent(prefix+base.name+suffix, base.target, base.device, InvalidButton, fill)
	}
	p.sendEvent(anyPrefix+base.name+suffix, base.target, base.device, InvalidButton, fill)
}

// sendTouchEvent sends a touch event with the device's prefix plus the "Any"
// copy, carrying the touch's current normalized location.
func (p *InputProcessor) sendTouchEvent(device DeviceType, touchpad TouchpadID,
	name string, id TouchID) {
	var target Entity
	if pair, ok := p.foci[device]; ok {
		target = interactiveTarget(&pair.current)
	}
	uv := p.input.GetTouchLocation(device, touchpad, id)
	fill := func(e *Event) {
		e.Touchpad = touchpad
		e.Touches = []TouchID{id}
		e.UV = uv
	}
	if prefix, ok := p.devicePrefixes[device]; ok {
		p.sendEvent(prefix+name, target, device, InvalidButton, fill)
	}
	p.sendEvent(anyPrefix+name, target, device, InvalidButton, fill)
}
