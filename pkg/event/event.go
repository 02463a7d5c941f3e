// pkg/event/event.go
package event

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Type represents the type of event
type Type string

// Simulation event types
const (
	MarbleSpawned    Type = "marble_spawned"
	MarbleRecycled   Type = "marble_recycled"
	MarbleRecolored  Type = "marble_recolored"
	PlatformHit      Type = "platform_hit"
	WallBounce       Type = "wall_bounce"
	FloorBounce      Type = "floor_bounce"
	TimeScaleChanged Type = "time_scale_changed"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// Subscription identifies a registered handler. Cancel removes it.
type Subscription struct {
	ID     uint64
	Cancel func()
}

type subscriber struct {
	id      uint64
	handler Handler
}

// Bus manages event subscriptions and dispatching. Handlers run
// synchronously on the publishing goroutine, in subscription order.
type Bus struct {
	handlers map[Type][]subscriber
	nextID   uint64
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]subscriber),
		nextID:   1,
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], subscriber{id: id, handler: handler})

	return &Subscription{
		ID:     id,
		Cancel: func() { b.unsubscribe(eventType, id) },
	}
}

func (b *Bus) unsubscribe(eventType Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[eventType]
	for i, s := range subs {
		if s.id == id {
			b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish sends an event to all subscribed handlers. A nil bus drops the event.
func (b *Bus) Publish(event Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	subs := b.handlers[event.GetType()]
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(event)
	}
}

// MarbleEvent reports something that happened to one marble
type MarbleEvent struct {
	BaseEvent
	MarbleID uint64
	Position mgl64.Vec3
	Velocity mgl64.Vec3
}

// NewMarbleEvent creates a new marble event
func NewMarbleEvent(eventType Type, source interface{}, marbleID uint64, position, velocity mgl64.Vec3) *MarbleEvent {
	return &MarbleEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		MarbleID: marbleID,
		Position: position,
		Velocity: velocity,
	}
}

// CollisionEvent is published when a marble is inside a platform's band
type CollisionEvent struct {
	BaseEvent
	MarbleID   uint64
	PlatformID uint64
	Normal     mgl64.Vec3
}

// NewCollisionEvent creates a new collision event
func NewCollisionEvent(source interface{}, marbleID, platformID uint64, normal mgl64.Vec3) *CollisionEvent {
	return &CollisionEvent{
		BaseEvent: BaseEvent{
			EventType: PlatformHit,
			Source:    source,
		},
		MarbleID:   marbleID,
		PlatformID: platformID,
		Normal:     normal,
	}
}

// TimeScaleEvent carries the old and new simulation speed
type TimeScaleEvent struct {
	BaseEvent
	Old float64
	New float64
}

// NewTimeScaleEvent creates a new time scale event
func NewTimeScaleEvent(source interface{}, oldScale, newScale float64) *TimeScaleEvent {
	return &TimeScaleEvent{
		BaseEvent: BaseEvent{
			EventType: TimeScaleChanged,
			Source:    source,
		},
		Old: oldScale,
		New: newScale,
	}
}
