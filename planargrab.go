package rowan

// offsetDecay is the per-frame decay rate of the difference between the
// ideal and actual grab offset.
const offsetDecay = 1.2

// PlanarGrabInputDef configures planar grab handling for one entity.
type PlanarGrabInputDef struct {
	// Normal of the constraint plane. Interpreted in the entity's local
	// orientation unless WorldSpaceNormal is set.
	Normal Vec3
	// WorldSpaceNormal uses Normal as-is in world space.
	WorldSpaceNormal bool
	// BreakAngleDeg cancels the grab once the pointing ray diverges from the
	// entity by this many degrees.
	BreakAngleDeg float64
}

type planarHandler struct {
	planeNormal   Vec3
	worldSpace    bool
	breakAngle    float64
	grabOffset    Vec3
	initialOffset Vec3
}

// PlanarGrabInputSystem is a GrabInputInterface that constrains a grabbed
// entity's motion to a plane through its origin. Each frame it casts the
// device's pointing ray against the plane and rebuilds the translation from
// the hit point, keeping the cursor on the part of the entity that was
// originally clicked.
type PlanarGrabInputSystem struct {
	transforms *TransformSystem
	processor  *InputProcessor
	grabs      *GrabSystem
	locker     *InputFocusLocker

	handlers map[Entity]*planarHandler
}

// NewPlanarGrabInputSystem creates a planar grab input system.
func NewPlanarGrabInputSystem(transforms *TransformSystem, processor *InputProcessor,
	grabs *GrabSystem, locker *InputFocusLocker) *PlanarGrabInputSystem {
	return &PlanarGrabInputSystem{
		transforms: transforms,
		processor:  processor,
		grabs:      grabs,
		locker:     locker,
		handlers:   map[Entity]*planarHandler{},
	}
}

// Create configures planar grab handling for an entity and binds this system
// as the entity's grab input handler.
func (p *PlanarGrabInputSystem) Create(entity Entity, def PlanarGrabInputDef) {
	p.handlers[entity] = &planarHandler{
		planeNormal: def.Normal,
		worldSpace:  def.WorldSpaceNormal,
		breakAngle:  def.BreakAngleDeg * degreesToRadians,
	}
	p.grabs.SetInputHandler(entity, p)
}

// Destroy unbinds the entity from this system, canceling any live grab.
func (p *PlanarGrabInputSystem) Destroy(entity Entity) {
	p.grabs.RemoveInputHandler(entity, p)
	delete(p.handlers, entity)
}

// planeIntersection casts ray against the entity's constraint plane, which
// passes through the entity's origin.
func (h *planarHandler) planeIntersection(space Mat4, ray Ray) (Vec3, bool) {
	planePos := space.Translation()
	normal := h.planeNormal
	if !h.worldSpace {
		normal = space.TransformPoint(h.planeNormal).Sub(planePos)
	}
	return RayPlaneCollision(ray, Plane{Point: planePos, Normal: normal.Normalized()})
}

// StartGrab casts the pointing ray into the collision plane and records the
// local-space offset from the entity's origin to the clicked point. It also
// records the difference between the ideal offset (from the cursor position
// at press) and the actual plane intersection; that difference is decayed
// toward zero over the following frames to hide the initial discontinuity.
func (p *PlanarGrabInputSystem) StartGrab(entity Entity, device DeviceType) bool {
	h, ok := p.handlers[entity]
	if !ok {
		logError("planar grab handler not found for entity %d", entity)
		return false
	}

	focus := p.processor.GetInputFocus(device)
	if focus == nil {
		return false
	}
	grabbedMatrix, ok := p.transforms.GetWorldFromEntityMatrix(entity)
	if !ok {
		logError("can't grab entity %d without a transform", entity)
		h.grabOffset = Vec3{}
		return false
	}

	grabPos, foundHit := h.planeIntersection(grabbedMatrix, focus.CollisionRay)
	if !foundHit {
		// Ray is not pointing at the entity's hemisphere; cancel the grab.
		h.grabOffset = Vec3{}
		return false
	}

	inverse := grabbedMatrix.Inverse()

	// Lock the cursor to the entity, offset so the cursor doesn't jump.
	localCursorPos := inverse.TransformPoint(focus.CursorPosition)
	p.locker.LockOn(device, entity, localCursorPos)

	// Ideal offset from the entity's origin, projected perpendicular to the
	// plane normal.
	h.grabOffset = localCursorPos.Scale(-1)
	h.grabOffset = h.grabOffset.Sub(h.planeNormal.Scale(h.grabOffset.Dot(h.planeNormal)))

	// Difference between the ideal offset (position at press) and the actual
	// one (position at drag start).
	localPlaneIntersection := inverse.TransformPoint(grabPos).Scale(-1)
	h.initialOffset = localPlaneIntersection.Sub(h.grabOffset)
	return true
}

// UpdateGrab re-intersects the pointing ray with the collision plane and
// rebuilds the entity's translation from the hit point.
func (p *PlanarGrabInputSystem) UpdateGrab(entity Entity, device DeviceType, original Sqt) Sqt {
	h, ok := p.handlers[entity]
	if !ok {
		logError("planar grab handler not found for entity %d", entity)
		return original
	}
	grabbedMatrix, ok := p.transforms.GetWorldFromEntityMatrix(entity)
	if !ok {
		logError("can't grab entity %d without a transform", entity)
		return original
	}
	focus := p.processor.GetInputFocus(device)
	if focus == nil {
		return original
	}

	result := original
	if grabPos, foundHit := h.planeIntersection(grabbedMatrix, focus.CollisionRay); foundHit {
		// grabPos is in world space; convert to local, then add back the
		// offsets so the user is still grabbing the same part of the entity.
		local := grabbedMatrix.Inverse().TransformPoint(grabPos)
		result.Translation = result.Translation.
			Add(local).Add(h.grabOffset).Add(h.initialOffset)
	}

	h.initialOffset = h.initialOffset.Scale(1 / offsetDecay)

	return result
}

// ShouldCancel reports whether the pointing ray has diverged from the entity
// past the configured break angle.
func (p *PlanarGrabInputSystem) ShouldCancel(entity Entity, device DeviceType) bool {
	h, ok := p.handlers[entity]
	if !ok {
		logError("planar grab handler not found for entity %d", entity)
		return true
	}
	focus := p.processor.GetInputFocus(device)
	if focus == nil {
		return true
	}
	grabbedMatrix, ok := p.transforms.GetWorldFromEntityMatrix(entity)
	if !ok {
		logError("can't grab entity %d without a transform", entity)
		return true
	}

	angle := acosClamped(CosAngleFromRay(focus.CollisionRay, grabbedMatrix.Translation()))
	return angle >= h.breakAngle
}

// EndGrab releases the focus lock on the holding device.
func (p *PlanarGrabInputSystem) EndGrab(entity Entity, device DeviceType) {
	p.locker.Unlock(device)
}
