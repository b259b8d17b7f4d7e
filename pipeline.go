package rowan

import "time"

// defaultNoHitDistance is how far along the pointing ray the cursor sits
// when nothing is hit, in world units.
const defaultNoHitDistance = 2.0

// RaycastHit is the result of an application hit test.
type RaycastHit struct {
	Entity      Entity
	Position    Vec3 // world-space hit point
	Interactive bool
	Draggable   bool
}

// RaycastFn is the application's hit test: cast the pointing ray into the
// scene and report what it hits. ok is false on a miss.
type RaycastFn func(ray Ray) (hit RaycastHit, ok bool)

// StandardPipeline is the default per-frame wiring: it latches raw input,
// builds an InputFocus per device from the device's pose and the app's
// raycast, honors focus locks held by grab handlers, and feeds the
// processor. Apps with their own reticle or cursor logic can skip it and
// call InputProcessor.UpdateDevice directly.
type StandardPipeline struct {
	Input      *InputManager
	Processor  *InputProcessor
	Transforms *TransformSystem
	Locker     *InputFocusLocker

	// Raycast is the app's hit test. With no Raycast set, devices never
	// focus anything unless locked.
	Raycast RaycastFn

	// NoHitDistance is the cursor depth on a miss; zero means the default.
	NoHitDistance float64
}

// AdvanceFrame runs one frame for the given devices: latches input, then
// builds and applies a focus per device. Call once per frame.
func (s *StandardPipeline) AdvanceFrame(dt time.Duration, devices ...DeviceType) {
	s.Input.AdvanceFrame(dt)
	for _, device := range devices {
		s.Processor.UpdateDevice(dt, s.MakeFocus(device))
	}
}

// MakeFocus builds this frame's InputFocus for a device: pointing ray from
// the device pose, cursor from the focus lock if one is held, otherwise from
// the raycast.
func (s *StandardPipeline) MakeFocus(device DeviceType) InputFocus {
	noHitDistance := s.NoHitDistance
	if noHitDistance == 0 {
		noHitDistance = defaultNoHitDistance
	}

	ray := Ray{Direction: Vec3{Z: -1}}
	if pose, ok := s.Input.GetDofWorldFromObjectMatrix(device); ok {
		ray.Origin = pose.Translation()
		ray.Direction = pose.TransformVector(Vec3{Z: -1}).Normalized()
	}

	focus := InputFocus{
		Device:              device,
		CollisionRay:        ray,
		NoHitCursorPosition: ray.Origin.Add(ray.Direction.Scale(noHitDistance)),
	}
	focus.CursorPosition = focus.NoHitCursorPosition

	// A lock pins focus to the grabbed entity, with the cursor riding the
	// recorded local offset.
	if entity, offset, ok := s.Locker.GetLock(device); ok {
		if world, ok := s.Transforms.GetWorldFromEntityMatrix(entity); ok {
			focus.Target = entity
			focus.CursorPosition = world.TransformPoint(offset)
			focus.Interactive = true
			focus.Draggable = true
			return focus
		}
	}

	if s.Raycast != nil {
		if hit, ok := s.Raycast(ray); ok {
			focus.Target = hit.Entity
			focus.CursorPosition = hit.Position
			focus.Interactive = hit.Interactive
			focus.Draggable = hit.Draggable
		}
	}
	return focus
}
