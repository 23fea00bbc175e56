package event

import (
	"reflect"

	"github.com/arenakit/arena/internal/core/ecs"
)

// Bus is a double-buffered event bus. Events emitted in tick N are delivered
// in tick N+1: SwapBuffers is called at tick start, then DispatchAll.
//
// Handlers are keyed by event type and target handle. A subscription with a
// zero target receives every event of its type; a targeted subscription only
// receives events emitted for that handle. Single-goroutine access only.
type Bus struct {
	front    []envelope
	back     []envelope
	handlers map[key][]*Subscription
	nextID   uint64
}

type key struct {
	typ    reflect.Type
	target ecs.EntityID
}

type envelope struct {
	typ    reflect.Type
	target ecs.EntityID
	event  any
}

func NewBus() *Bus {
	return &Bus{
		front:    make([]envelope, 0, 64),
		back:     make([]envelope, 0, 64),
		handlers: make(map[key][]*Subscription),
	}
}

// Emit queues an event for target into the back buffer.
func Emit[T any](b *Bus, target ecs.EntityID, event T) {
	b.back = append(b.back, envelope{typ: typeOf[T](), target: target, event: event})
}

// Connect subscribes fn to events of type T for target (zero = all targets).
// Delivery continues until the returned subscription is disconnected.
func Connect[T any](b *Bus, target ecs.EntityID, fn func(T)) *Subscription {
	b.nextID++
	s := &Subscription{
		bus:       b,
		key:       key{typ: typeOf[T](), target: target},
		id:        b.nextID,
		connected: true,
		deliver:   func(ev any) { fn(ev.(T)) },
	}
	b.handlers[s.key] = append(b.handlers[s.key], s)
	return s
}

// SwapBuffers rotates back to front and clears the new back buffer.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front[:0]
}

// DispatchAll delivers all front-buffer events in emission order and returns
// the number of handler invocations. Events emitted by handlers land in the
// back buffer and wait for the next tick.
func (b *Bus) DispatchAll() int {
	calls := 0
	for _, env := range b.front {
		calls += b.deliver(key{typ: env.typ, target: env.target}, env.event)
		if env.target != 0 {
			calls += b.deliver(key{typ: env.typ}, env.event)
		}
	}
	b.front = b.front[:0]
	return calls
}

// Pending returns the number of events waiting for the next dispatch.
func (b *Bus) Pending() int {
	return len(b.back)
}

// Subscribers returns the number of live subscriptions for T on target.
func Subscribers[T any](b *Bus, target ecs.EntityID) int {
	return len(b.handlers[key{typ: typeOf[T](), target: target}])
}

func (b *Bus) deliver(k key, ev any) int {
	subs := b.handlers[k]
	if len(subs) == 0 {
		return 0
	}
	// Handlers may connect or disconnect while we iterate.
	snapshot := make([]*Subscription, len(subs))
	copy(snapshot, subs)
	n := 0
	for _, s := range snapshot {
		if !s.connected {
			continue
		}
		s.deliver(ev)
		n++
	}
	return n
}

func (b *Bus) remove(s *Subscription) {
	subs := b.handlers[s.key]
	for i, other := range subs {
		if other.id == s.id {
			subs = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(b.handlers, s.key)
		return
	}
	b.handlers[s.key] = subs
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
