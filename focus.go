package rowan

// InputFocus is a per-device, per-frame snapshot of what the device is
// pointed at. The embedding application (typically a reticle or raycast
// module, or the [StandardPipeline]) produces one per device per frame and
// passes it to [InputProcessor.UpdateDevice]; it is replaced wholesale each
// frame and has no identity across frames other than the device key.
type InputFocus struct {
	// Device is the device this snapshot belongs to.
	Device DeviceType
	// Target is the entity the device is pointed at, or NullEntity.
	Target Entity
	// CollisionRay is the world-space pointing ray used for the hit test.
	CollisionRay Ray
	// CursorPosition is the world-space position of the cursor, on the
	// target if there was a hit.
	CursorPosition Vec3
	// NoHitCursorPosition is where the cursor would be had nothing been hit
	// (the ray carried out to its default depth). Slop calculations use this
	// so that dragging off an entity keeps measuring ray divergence.
	NoHitCursorPosition Vec3
	// Interactive is true if Target accepts press/click interaction. A
	// non-interactive target is treated as no target by focus and button
	// handling.
	Interactive bool
	// Draggable is true if Target accepts drag interaction; presses on
	// non-draggable targets stay inside slop instead of starting drags.
	Draggable bool
}

type focusPair struct {
	current  InputFocus
	previous InputFocus
}

type focusLock struct {
	entity      Entity
	localOffset Vec3
}

// InputFocusLocker pins a device's focus to a specific entity while a grab
// is in progress, with a local-space cursor offset so the cursor does not
// jump to the entity's origin. The focus-building pipeline consults it
// before raycasting.
type InputFocusLocker struct {
	locks map[DeviceType]focusLock
}

// NewInputFocusLocker creates an empty locker.
func NewInputFocusLocker() *InputFocusLocker {
	return &InputFocusLocker{locks: map[DeviceType]focusLock{}}
}

// LockOn pins the device's focus to entity. localOffset is the cursor
// position in the entity's local space at lock time.
func (l *InputFocusLocker) LockOn(device DeviceType, entity Entity, localOffset Vec3) {
	l.locks[device] = focusLock{entity: entity, localOffset: localOffset}
}

// Unlock releases the device's focus lock. Safe to call when not locked.
func (l *InputFocusLocker) Unlock(device DeviceType) {
	delete(l.locks, device)
}

// GetLock returns the locked entity and cursor offset for a device. ok is
// false when the device is not locked.
func (l *InputFocusLocker) GetLock(device DeviceType) (entity Entity, localOffset Vec3, ok bool) {
	lock, ok := l.locks[device]
	return lock.entity, lock.localOffset, ok
}
