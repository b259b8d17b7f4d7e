package rowan

// Event is a dispatched interaction event. Name is the fully composed event
// name (prefix + suffix, e.g. "AnyClickEvent"); the remaining fields are
// payload and are only meaningful for the event kinds that set them.
type Event struct {
	Name   string
	Target Entity

	Device   DeviceType
	Button   ButtonID   // InvalidButton for device-level events
	Touchpad TouchpadID // touch and gesture events only
	Touches  []TouchID  // gesture events only

	Location      Vec3    // local-space press / drag-start location
	UV            Vec2    // touch location in normalized coordinates
	DurationMS    int64   // ms since press (release and click events)
	Value         float64 // gesture scalar (twist angle, pinch ratio)
	PressedEntity Entity  // legacy release events
	Sqt           *Sqt    // grab released/canceled events
}

// EventSink receives a copy of every globally dispatched event. Used by the
// ECS bridge in rowan/ecs.
type EventSink interface {
	EmitEvent(event Event)
}

type eventHandler struct {
	id uint32
	fn func(Event)
}

type entityEventKey struct {
	entity Entity
	name   string
}

// Dispatcher routes named events to subscribers. Events are delivered
// synchronously, in registration order, both to global subscribers of the
// event name and (via SendToEntity) to subscribers scoped to a single
// entity. Not safe for concurrent use; all calls happen on the update
// thread.
type Dispatcher struct {
	global map[string][]eventHandler
	scoped map[entityEventKey][]eventHandler
	sink   EventSink
	nextID uint32
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		global: map[string][]eventHandler{},
		scoped: map[entityEventKey][]eventHandler{},
	}
}

// ConnectionHandle allows removing a registered callback.
type ConnectionHandle struct {
	id     uint32
	d      *Dispatcher
	name   string
	entity Entity
	scoped bool
}

// Remove unregisters this callback so it no longer fires.
// The entry is removed from the slice to avoid nil iteration waste.
func (h ConnectionHandle) Remove() {
	if h.d == nil {
		return
	}
	if h.scoped {
		key := entityEventKey{h.entity, h.name}
		h.d.scoped[key] = removeEventHandler(h.d.scoped[key], h.id)
		if len(h.d.scoped[key]) == 0 {
			delete(h.d.scoped, key)
		}
		return
	}
	h.d.global[h.name] = removeEventHandler(h.d.global[h.name], h.id)
	if len(h.d.global[h.name]) == 0 {
		delete(h.d.global, h.name)
	}
}

func removeEventHandler(s []eventHandler, id uint32) []eventHandler {
	for i := range s {
		if s[i].id == id {
			copy(s[i:], s[i+1:])
			s[len(s)-1] = eventHandler{}
			return s[:len(s)-1]
		}
	}
	return s
}

// Connect registers a global callback for events with the given name.
func (d *Dispatcher) Connect(name string, fn func(Event)) ConnectionHandle {
	d.nextID++
	d.global[name] = append(d.global[name], eventHandler{id: d.nextID, fn: fn})
	return ConnectionHandle{id: d.nextID, d: d, name: name}
}

// ConnectEntity registers a callback for events with the given name sent to
// a specific entity via SendToEntity.
func (d *Dispatcher) ConnectEntity(entity Entity, name string, fn func(Event)) ConnectionHandle {
	d.nextID++
	key := entityEventKey{entity, name}
	d.scoped[key] = append(d.scoped[key], eventHandler{id: d.nextID, fn: fn})
	return ConnectionHandle{id: d.nextID, d: d, name: name, entity: entity, scoped: true}
}

// Send delivers the event to all global subscribers of event.Name and to the
// sink, if one is set.
func (d *Dispatcher) Send(event Event) {
	for _, h := range d.global[event.Name] {
		h.fn(event)
	}
	if d.sink != nil {
		d.sink.EmitEvent(event)
	}
}

// SendToEntity delivers the event to subscribers scoped to the given entity.
func (d *Dispatcher) SendToEntity(entity Entity, event Event) {
	for _, h := range d.scoped[entityEventKey{entity, event.Name}] {
		h.fn(event)
	}
}

// SetSink sets the optional sink receiving every globally dispatched event.
func (d *Dispatcher) SetSink(sink EventSink) {
	d.sink = sink
}
