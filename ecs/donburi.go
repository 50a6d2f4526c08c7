package ecs

import (
	"github.com/phanxgames/pane"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// WindowEventType is the Donburi event type for pane window events.
var WindowEventType = events.NewEventType[pane.WindowEvent]()

type donburiStore struct {
	world donburi.World
}

// NewDonburiStore creates an EntityStore backed by a Donburi world. Events
// are queued on WindowEventType; consume them with events.Subscribe and
// ProcessEvents.
func NewDonburiStore(world donburi.World) pane.EntityStore {
	return &donburiStore{world: world}
}

func (s *donburiStore) EmitEvent(event pane.WindowEvent) {
	WindowEventType.Publish(s.world, event)
}
