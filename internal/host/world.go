package host

import (
	"sort"

	"github.com/arenakit/arena/internal/core/ecs"
	"github.com/arenakit/arena/internal/core/event"
	"go.uber.org/zap"
)

// Transform is the placement component of an object.
type Transform struct {
	Position Vec3
	Rotation Quat
}

// Meta carries an object's editor name and scene parent.
type Meta struct {
	Name   string
	Parent ecs.EntityID
}

// Presence holds visibility and authority.
type Presence struct {
	Visible bool
	Owner   ActorID
}

// Actor is a connected player.
type Actor struct {
	ID       ActorID
	Name     string
	Position Vec3
}

// World is an in-memory host: it places objects, stores their transform,
// visibility and ownership, and raises input/collision callbacks on the bus.
type World struct {
	ents       *ecs.World
	bus        *event.Bus
	log        *zap.Logger
	transforms *ecs.PtrComponentStore[Transform]
	meta       *ecs.PtrComponentStore[Meta]
	presence   *ecs.PtrComponentStore[Presence]
	actors     map[ActorID]*Actor
	nextActor  ActorID
}

var _ Host = (*World)(nil)

func NewWorld(bus *event.Bus, log *zap.Logger) *World {
	w := &World{
		ents:       ecs.NewWorld(),
		bus:        bus,
		log:        log,
		transforms: ecs.NewPtrComponentStore[Transform](),
		meta:       ecs.NewPtrComponentStore[Meta](),
		presence:   ecs.NewPtrComponentStore[Presence](),
		actors:     make(map[ActorID]*Actor),
		nextActor:  ServerActor + 1,
	}
	st := w.ents.Stores()
	st.Track(w.transforms)
	st.Track(w.meta)
	st.Track(w.presence)
	return w
}

func (w *World) Bus() *event.Bus { return w.bus }

// Place creates an object at world-build time. It starts owned by the server.
func (w *World) Place(name string, parent ecs.EntityID, pos Vec3, visible bool) ecs.EntityID {
	id := w.ents.CreateEntity()
	w.transforms.Set(id, &Transform{Position: pos, Rotation: Identity})
	w.meta.Set(id, &Meta{Name: name, Parent: parent})
	w.presence.Set(id, &Presence{Visible: visible, Owner: ServerActor})
	return id
}

// Remove queues an object for deletion at the end of the tick.
func (w *World) Remove(h ecs.EntityID) {
	if w.ents.Alive(h) {
		w.ents.MarkForDestruction(h)
	}
}

// Flush applies queued removals and returns how many objects were deleted.
func (w *World) Flush() int {
	return w.ents.FlushDestroyQueue()
}

func (w *World) Alive(h ecs.EntityID) bool { return w.ents.Alive(h) }

func (w *World) ObjectCount() int { return w.ents.Count() }

// Children returns the objects placed under parent in placement order.
func (w *World) Children(parent ecs.EntityID) []ecs.EntityID {
	var out []ecs.EntityID
	w.meta.Each(func(id ecs.EntityID, m *Meta) {
		if m.Parent == parent {
			out = append(out, id)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Index() < out[j].Index() })
	return out
}

// VisibleObjects returns every visible object with its position.
func (w *World) VisibleObjects() map[ecs.EntityID]Vec3 {
	out := make(map[ecs.EntityID]Vec3)
	ecs.Each2(w.transforms, w.presence, func(id ecs.EntityID, t *Transform, p *Presence) {
		if p.Visible {
			out[id] = t.Position
		}
	})
	return out
}

func (w *World) Name(h ecs.EntityID) string {
	if m, ok := w.meta.Get(h); ok {
		return m.Name
	}
	return ""
}

func (w *World) Parent(h ecs.EntityID) ecs.EntityID {
	if m, ok := w.meta.Get(h); ok {
		return m.Parent
	}
	return 0
}

func (w *World) Position(h ecs.EntityID) Vec3 {
	if t, ok := w.transforms.Get(h); ok {
		return t.Position
	}
	return Vec3{}
}

func (w *World) SetPosition(h ecs.EntityID, p Vec3) {
	if t, ok := w.transforms.Get(h); ok {
		t.Position = p
		return
	}
	w.unknown("set_position", h)
}

func (w *World) Rotation(h ecs.EntityID) Quat {
	if t, ok := w.transforms.Get(h); ok {
		return t.Rotation
	}
	return Quat{}
}

func (w *World) SetRotation(h ecs.EntityID, r Quat) {
	if t, ok := w.transforms.Get(h); ok {
		t.Rotation = r
		return
	}
	w.unknown("set_rotation", h)
}

func (w *World) Visible(h ecs.EntityID) bool {
	if p, ok := w.presence.Get(h); ok {
		return p.Visible
	}
	return false
}

func (w *World) SetVisible(h ecs.EntityID, v bool) {
	if p, ok := w.presence.Get(h); ok {
		p.Visible = v
		return
	}
	w.unknown("set_visible", h)
}

func (w *World) Owner(h ecs.EntityID) ActorID {
	if p, ok := w.presence.Get(h); ok {
		return p.Owner
	}
	return NoActor
}

func (w *World) SetOwner(h ecs.EntityID, a ActorID) {
	if p, ok := w.presence.Get(h); ok {
		p.Owner = a
		return
	}
	w.unknown("set_owner", h)
}

func (w *World) unknown(op string, h ecs.EntityID) {
	w.log.Debug("host op on unknown object", zap.String("op", op), zap.Uint64("handle", uint64(h)))
}

// ── Actors ──────────────────────────────────────────────────────────

// Join adds a player and returns its id.
func (w *World) Join(name string, pos Vec3) *Actor {
	a := &Actor{ID: w.nextActor, Name: name, Position: pos}
	w.nextActor++
	w.actors[a.ID] = a
	return a
}

// Leave removes a player. Objects it owns keep their owner until freed.
func (w *World) Leave(id ActorID) {
	delete(w.actors, id)
}

// Actors returns the connected players by id.
func (w *World) Actors() []*Actor {
	out := make([]*Actor, 0, len(w.actors))
	for _, a := range w.actors {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (w *World) Actor(id ActorID) (*Actor, bool) {
	a, ok := w.actors[id]
	return a, ok
}

// ── Input and physics callbacks ─────────────────────────────────────

// Grab raises GrabStartEvent on obj for the next dispatch.
func (w *World) Grab(obj ecs.EntityID, actor ActorID) {
	event.Emit(w.bus, obj, GrabStartEvent{Object: obj, Actor: actor})
}

// Release raises GrabEndEvent on obj for the next dispatch.
func (w *World) Release(obj ecs.EntityID, actor ActorID) {
	event.Emit(w.bus, obj, GrabEndEvent{Object: obj, Actor: actor})
}

// Collide raises an object/object CollisionEvent on obj.
func (w *World) Collide(obj, other ecs.EntityID) {
	event.Emit(w.bus, obj, CollisionEvent{
		Object: obj,
		Kind:   CollideObject,
		Other:  other,
		At:     w.Position(obj),
	})
}

// Touch raises an object/actor CollisionEvent on obj.
func (w *World) Touch(obj ecs.EntityID, actor ActorID) {
	event.Emit(w.bus, obj, CollisionEvent{
		Object: obj,
		Kind:   CollideActor,
		Actor:  actor,
		At:     w.Position(obj),
	})
}
