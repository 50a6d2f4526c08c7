// Package ecs provides ECS adapters for pane's window lifecycle events.
//
// The primary adapter is [NewDonburiStore], which bridges window events
// (finished opening, finished closing) into a [Donburi] world as typed
// events. Subscribe to [WindowEventType] in your ECS systems to receive them.
//
// Usage:
//
//	store := ecs.NewDonburiStore(world)
//	scene.SetEntityStore(store)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
