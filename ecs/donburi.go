package ecs

import (
	"github.com/phanxgames/rowan"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// InputEventType is the Donburi event type for rowan input events.
// Subscribe to this in your ECS systems to receive focus, button, touch,
// gesture, and grab events.
var InputEventType = events.NewEventType[rowan.Event]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates an EventSink backed by a Donburi world. Register it
// with Dispatcher.SetSink; every globally dispatched event is published to
// InputEventType and can be consumed with events.Subscribe and
// ProcessEvents.
func NewDonburiSink(world donburi.World) rowan.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitEvent(event rowan.Event) {
	InputEventType.Publish(s.world, event)
}
