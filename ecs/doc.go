// Package ecs provides ECS adapters for rowan's event system.
//
// The primary adapter is [NewDonburiSink], which bridges rowan input events
// (focus, button, touch, gesture, grab) into a [Donburi] world as typed
// events. Subscribe to [InputEventType] in your ECS systems to receive them.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	dispatcher.SetSink(sink)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
