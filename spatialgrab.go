package rowan

// SpatialGrabInputDef configures spatial (6-DOF) grab handling for one
// entity.
type SpatialGrabInputDef struct {
	// GrabOffset is the fixed pose of the entity relative to the device
	// while held. Ignored when SetGrabOffsetOnStart is set.
	GrabOffset Sqt
	// SetGrabOffsetOnStart captures the offset from the actual relative pose
	// at grab time, so the entity doesn't pop to the configured offset.
	SetGrabOffsetOnStart bool
	// BreakAngleDeg cancels the grab once the pointing ray diverges from the
	// entity by this many degrees.
	BreakAngleDeg float64
}

type spatialHandler struct {
	def    SpatialGrabInputDef
	offset Mat4 // device-from-entity, captured or configured at StartGrab
}

// SpatialGrabInputSystem is a GrabInputInterface that keeps a constant 6-DOF
// offset between a tracked device's pose and the grabbed entity: each frame
// the entity's world transform becomes device_pose * offset.
type SpatialGrabInputSystem struct {
	transforms *TransformSystem
	processor  *InputProcessor
	grabs      *GrabSystem
	input      *InputManager

	handlers map[Entity]*spatialHandler
}

// NewSpatialGrabInputSystem creates a spatial grab input system.
func NewSpatialGrabInputSystem(transforms *TransformSystem, processor *InputProcessor,
	grabs *GrabSystem, input *InputManager) *SpatialGrabInputSystem {
	return &SpatialGrabInputSystem{
		transforms: transforms,
		processor:  processor,
		grabs:      grabs,
		input:      input,
		handlers:   map[Entity]*spatialHandler{},
	}
}

// Create configures spatial grab handling for an entity and binds this
// system as the entity's grab input handler.
func (s *SpatialGrabInputSystem) Create(entity Entity, def SpatialGrabInputDef) {
	s.handlers[entity] = &spatialHandler{def: def}
	s.grabs.SetInputHandler(entity, s)
}

// Destroy unbinds the entity from this system, canceling any live grab.
func (s *SpatialGrabInputSystem) Destroy(entity Entity) {
	s.grabs.RemoveInputHandler(entity, s)
	delete(s.handlers, entity)
}

// StartGrab establishes the device-from-entity offset, either from the
// configured pose or from the actual relative pose at grab time.
func (s *SpatialGrabInputSystem) StartGrab(entity Entity, device DeviceType) bool {
	h, ok := s.handlers[entity]
	if !ok {
		logError("spatial grab handler not found for entity %d", entity)
		return false
	}
	devicePose, ok := s.input.GetDofWorldFromObjectMatrix(device)
	if !ok {
		return false
	}
	if h.def.SetGrabOffsetOnStart {
		entityWorld, ok := s.transforms.GetWorldFromEntityMatrix(entity)
		if !ok {
			logError("can't grab entity %d without a transform", entity)
			return false
		}
		h.offset = devicePose.Inverse().Mul(entityWorld)
	} else {
		h.offset = h.def.GrabOffset.Mat4()
	}
	return true
}

// UpdateGrab writes the entity's world transform as device pose times the
// stored offset and returns the resulting local pose.
func (s *SpatialGrabInputSystem) UpdateGrab(entity Entity, device DeviceType, original Sqt) Sqt {
	h, ok := s.handlers[entity]
	if !ok {
		logError("spatial grab handler not found for entity %d", entity)
		return original
	}
	devicePose, ok := s.input.GetDofWorldFromObjectMatrix(device)
	if !ok {
		return original
	}
	s.transforms.SetWorldFromEntityMatrix(entity, devicePose.Mul(h.offset))
	if sqt, ok := s.transforms.GetSqt(entity); ok {
		return sqt
	}
	return original
}

// ShouldCancel reports whether the pointing ray has diverged from the entity
// past the configured break angle.
func (s *SpatialGrabInputSystem) ShouldCancel(entity Entity, device DeviceType) bool {
	h, ok := s.handlers[entity]
	if !ok {
		logError("spatial grab handler not found for entity %d", entity)
		return true
	}
	focus := s.processor.GetInputFocus(device)
	if focus == nil {
		return false
	}
	world, ok := s.transforms.GetWorldFromEntityMatrix(entity)
	if !ok {
		logError("can't grab entity %d without a transform", entity)
		return true
	}
	angle := acosClamped(CosAngleFromRay(focus.CollisionRay, world.Translation()))
	return angle >= h.def.BreakAngleDeg*degreesToRadians
}

// EndGrab has nothing to clean up; the offset is recaptured on the next
// grab.
func (s *SpatialGrabInputSystem) EndGrab(entity Entity, device DeviceType) {}
