package rowan

import (
	"sort"
	"time"
)

// Grab event names, sent both globally and entity-scoped with the pose in
// Event.Sqt.
const (
	EventGrabReleased = "GrabReleasedEvent"
	EventGrabCanceled = "GrabCanceledEvent"
)

// EndGrabType says why a grab ended.
type EndGrabType int

const (
	// EndGrabReleased: the grab ended normally.
	EndGrabReleased EndGrabType = iota
	// EndGrabCanceled: the grab was canceled; the entity may snap back.
	EndGrabCanceled
	// EndGrabDestroyed: the entity is being destroyed. No events are sent.
	EndGrabDestroyed
)

// GrabInputInterface turns device input into a pose for a grabbed entity.
// Implementations are registered per entity with GrabSystem.SetInputHandler;
// [PlanarGrabInputSystem] and [SpatialGrabInputSystem] are the built-in
// ones.
type GrabInputInterface interface {
	// StartGrab is called when a grab begins. Returning false aborts the
	// grab; the grab system then cancels it.
	StartGrab(entity Entity, device DeviceType) bool
	// UpdateGrab returns the ideal pose for the grabbed entity this frame,
	// given its current pose. Mutators are applied to the result afterwards.
	UpdateGrab(entity Entity, device DeviceType, original Sqt) Sqt
	// ShouldCancel reports whether the grab has become untenable (e.g. the
	// pointing ray diverged too far). Checked after UpdateGrab each frame.
	ShouldCancel(entity Entity, device DeviceType) bool
	// EndGrab is called exactly once when the grab ends for any reason.
	EndGrab(entity Entity, device DeviceType)
}

// GrabDef configures grab behavior for one entity.
type GrabDef struct {
	// Group selects which mutator chain adjusts the grabbed pose.
	Group string
	// SnapToFinal snaps the transform to the finalized pose on release and
	// back to the starting pose on cancel.
	SnapToFinal bool
	// DefaultDevice is the device passed to Grab when a grab event fires.
	DefaultDevice DeviceType
	// GrabEvents are entity-scoped event names that trigger Grab.
	GrabEvents []string
	// ReleaseEvents are entity-scoped event names that trigger Release.
	ReleaseEvents []string
}

type grabbable struct {
	group         string
	snapToFinal   bool
	input         GrabInputInterface
	holdingDevice DeviceType // MaxNumDeviceTypes when not held
	startingSqt   Sqt
	connections   []ConnectionHandle
}

// GrabSystem coordinates a grabbed entity's transform: each frame it asks
// the entity's input handler for an ideal pose, applies the entity's mutator
// chain, writes the result back, and handles release/cancel transitions.
type GrabSystem struct {
	transforms *TransformSystem
	mutators   *MutatorSystem
	dispatcher *Dispatcher

	grabbables map[Entity]*grabbable
	grabbed    map[Entity]bool
}

// NewGrabSystem creates a grab system using the given collaborators.
func NewGrabSystem(transforms *TransformSystem, mutators *MutatorSystem,
	dispatcher *Dispatcher) *GrabSystem {
	return &GrabSystem{
		transforms: transforms,
		mutators:   mutators,
		dispatcher: dispatcher,
		grabbables: map[Entity]*grabbable{},
		grabbed:    map[Entity]bool{},
	}
}

func (g *GrabSystem) grabbableFor(entity Entity) *grabbable {
	gr, ok := g.grabbables[entity]
	if !ok {
		gr = &grabbable{holdingDevice: MaxNumDeviceTypes}
		g.grabbables[entity] = gr
	}
	return gr
}

// Create configures grab behavior for an entity and connects its grab and
// release event triggers. The grabbable record may already exist if an input
// handler or mutate group was set first; Create keeps those.
func (g *GrabSystem) Create(entity Entity, def GrabDef) {
	gr := g.grabbableFor(entity)
	gr.group = def.Group
	gr.snapToFinal = def.SnapToFinal

	device := def.DefaultDevice
	for _, name := range def.GrabEvents {
		handle := g.dispatcher.ConnectEntity(entity, name, func(Event) {
			g.Grab(entity, device)
		})
		gr.connections = append(gr.connections, handle)
	}
	for _, name := range def.ReleaseEvents {
		handle := g.dispatcher.ConnectEntity(entity, name, func(Event) {
			g.Release(entity)
		})
		gr.connections = append(gr.connections, handle)
	}
}

// Destroy ends any live grab silently and removes the entity's grabbable
// record and event connections.
func (g *GrabSystem) Destroy(entity Entity) {
	g.endGrab(entity, EndGrabDestroyed)
	if gr, ok := g.grabbables[entity]; ok {
		for _, handle := range gr.connections {
			handle.Remove()
		}
	}
	delete(g.grabbables, entity)
}

// AdvanceFrame updates every held entity: input handler pose, mutator chain,
// transform write-back, then a deferred cancel pass. Cancels are collected
// first so the grabbed set is not mutated mid-iteration.
func (g *GrabSystem) AdvanceFrame(dt time.Duration) {
	var canceled []Entity
	for _, grabbed := range g.sortedGrabbed() {
		gr := g.grabbables[grabbed]
		original, ok := g.transforms.GetSqt(grabbed)
		if !ok {
			logError("missing transform in GrabSystem.AdvanceFrame")
			continue
		}
		// Get the ideal sqt based on the input, then apply any mutations to
		// get the actual sqt.
		current := gr.input.UpdateGrab(grabbed, gr.holdingDevice, original)
		g.mutators.ApplySqtMutator(grabbed, gr.group, &current, false)
		g.transforms.SetSqt(grabbed, current)

		// Check if the mutated sqt is still valid for the current input.
		if gr.input.ShouldCancel(grabbed, gr.holdingDevice) {
			canceled = append(canceled, grabbed)
		}
	}
	for _, entity := range canceled {
		g.Cancel(entity)
	}
}

func (g *GrabSystem) sortedGrabbed() []Entity {
	entities := make([]Entity, 0, len(g.grabbed))
	for entity := range g.grabbed {
		entities = append(entities, entity)
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i] < entities[j] })
	return entities
}

// SetInputHandler binds the handler that drives the entity's pose while
// grabbed. May be called while the entity is held: the old handler's grab is
// ended and the new handler's started, in that order; if the new StartGrab
// fails, the entity is released rather than left held with a broken handler.
func (g *GrabSystem) SetInputHandler(entity Entity, handler GrabInputInterface) {
	gr, ok := g.grabbables[entity]
	if !ok {
		// Grabbable doesn't exist yet; this happens when a handler is
		// registered before Create runs.
		g.grabbableFor(entity).input = handler
		return
	}

	holdingDevice := gr.holdingDevice
	if holdingDevice != MaxNumDeviceTypes {
		gr.input.EndGrab(entity, holdingDevice)
	}

	gr.input = handler

	if holdingDevice != MaxNumDeviceTypes {
		if !gr.input.StartGrab(entity, holdingDevice) {
			g.Release(entity)
		}
	}
}

// RemoveInputHandler unbinds handler from the entity if it is the bound one,
// canceling any live grab first.
func (g *GrabSystem) RemoveInputHandler(entity Entity, handler GrabInputInterface) {
	gr, ok := g.grabbables[entity]
	if !ok {
		return
	}
	if gr.input == handler {
		g.Cancel(entity)
		gr.input = nil
	}
}

// SetMutateGroup sets which mutator chain adjusts the entity's grabbed pose.
func (g *GrabSystem) SetMutateGroup(entity Entity, group string) {
	g.grabbableFor(entity).group = group
}

// Grab starts holding the entity with the given device. The entity must have
// a grabbable record, a bound input handler, and a transform; violations are
// logged and the call is a no-op. If the handler's StartGrab fails the grab
// is immediately canceled.
func (g *GrabSystem) Grab(entity Entity, device DeviceType) {
	gr, ok := g.grabbables[entity]
	if !ok {
		logError("Grab called on entity %d without grab configuration", entity)
		return
	}
	if gr.input == nil {
		logError("Grab called on entity %d before an input handler was set", entity)
		return
	}
	original, ok := g.transforms.GetSqt(entity)
	if !ok {
		logError("Grab called on entity %d without a transform", entity)
		return
	}

	gr.holdingDevice = device
	gr.startingSqt = original
	g.grabbed[entity] = true

	if !gr.input.StartGrab(entity, device) {
		g.Cancel(entity)
	}
}

// Release ends the grab normally, finalizing the pose through the mutator
// chain and sending EventGrabReleased.
func (g *GrabSystem) Release(entity Entity) { g.endGrab(entity, EndGrabReleased) }

// Cancel ends the grab abnormally, snapping back to the starting pose if
// configured and sending EventGrabCanceled.
func (g *GrabSystem) Cancel(entity Entity) { g.endGrab(entity, EndGrabCanceled) }

// IsGrabbed reports whether the entity is currently held.
func (g *GrabSystem) IsGrabbed(entity Entity) bool { return g.grabbed[entity] }

// HoldingDevice returns the device holding the entity, or MaxNumDeviceTypes.
func (g *GrabSystem) HoldingDevice(entity Entity) DeviceType {
	if gr, ok := g.grabbables[entity]; ok {
		return gr.holdingDevice
	}
	return MaxNumDeviceTypes
}

func (g *GrabSystem) endGrab(entity Entity, endType EndGrabType) {
	gr, ok := g.grabbables[entity]
	if !ok {
		if endType != EndGrabDestroyed {
			logError("EndGrab called on entity %d without grab configuration", entity)
		}
		return
	}
	if gr.holdingDevice == MaxNumDeviceTypes {
		// Tried to release something that isn't actually being held. Happens
		// easily with multiple release conditions, so just return.
		return
	}
	if gr.input == nil {
		logError("EndGrab called on entity %d before an input handler was set", entity)
		return
	}

	switch endType {
	case EndGrabCanceled:
		if gr.snapToFinal {
			g.transforms.SetSqt(entity, gr.startingSqt)
		}
		g.sendGrabEvent(EventGrabCanceled, entity, gr.startingSqt)
	case EndGrabReleased:
		// Calculate a valid final pose for the entity.
		if original, ok := g.transforms.GetSqt(entity); ok {
			current := original
			g.mutators.ApplySqtMutator(entity, gr.group, &current, true)
			if gr.snapToFinal {
				g.transforms.SetSqt(entity, current)
			}
			g.sendGrabEvent(EventGrabReleased, entity, current)
		}
	}

	gr.input.EndGrab(entity, gr.holdingDevice)
	gr.holdingDevice = MaxNumDeviceTypes
	delete(g.grabbed, entity)
}

func (g *GrabSystem) sendGrabEvent(name string, entity Entity, sqt Sqt) {
	event := Event{Name: name, Target: entity, Sqt: &sqt}
	g.dispatcher.Send(event)
	g.dispatcher.SendToEntity(entity, event)
}
