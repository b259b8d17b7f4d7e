// Package rowan is a 3D interaction core for entity-component based
// applications: per-device input focus, press/drag/release state machines,
// multi-touch gesture recognition, and grab ("pick up and move") behavior.
//
// Rowan does not render anything. It sits between a raw input source (mouse,
// touchscreen, 6-DOF controller) and an application's entity transforms,
// turning per-frame device state into named events and transform updates.
//
// # Frame loop
//
// Once per frame the embedding application feeds raw state into an
// [InputManager], latches it with [InputManager.AdvanceFrame], and then calls
// [InputProcessor.UpdateDevice] once per device with an [InputFocus] snapshot
// describing what that device is pointed at. The [StandardPipeline] bundles
// those steps for the common case:
//
//	pipeline := &rowan.StandardPipeline{
//		Input:      input,
//		Processor:  processor,
//		Transforms: transforms,
//		Locker:     locker,
//		Raycast:    myRaycastFn,
//	}
//	pipeline.AdvanceFrame(dt, rowan.DeviceController)
//
// Grabbable entities are driven separately by a [GrabSystem], whose
// AdvanceFrame asks the bound [GrabInputInterface] for an updated pose,
// applies mutators, and commits the transform.
//
// # Events
//
// Events are named strings composed from a per-device (or per-device-button)
// prefix and a fixed suffix, e.g. "ClickEvent" or "MainFocusStartEvent".
// Every event is also mirrored under the "Any" prefix ("AnyClickEvent") so
// that global listeners can observe all devices. Subscribe through the
// [Dispatcher], either globally or scoped to a single entity.
//
// # Raw input
//
// The [EbitenSource] adapter polls mouse and touch state from [Ebitengine]
// into an InputManager; any other backend can feed the same setters. ECS
// integration (via [Donburi] adapter in rowan/ecs) forwards all dispatched
// events into a donburi world.
//
// [Ebitengine]: https://ebitengine.org
// [Donburi]: https://github.com/yohamta/donburi
package rowan
