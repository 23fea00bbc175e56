package host

import (
	"math"
	"time"

	"github.com/arenakit/arena/internal/core/ecs"
)

// ActorID identifies a player or the server. Ownership of an object decides
// which actor has authority over it.
type ActorID uint32

const (
	// NoActor means "no owner supplied"; ownership is left untouched.
	NoActor ActorID = 0
	// ServerActor is the neutral owner of every object nobody is using.
	ServerActor ActorID = 1
)

type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(f float64) Vec3 { return Vec3{v.X * f, v.Y * f, v.Z * f} }
func (v Vec3) Len() float64         { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }
func (v Vec3) Dist(o Vec3) float64  { return v.Sub(o).Len() }

// Normalize returns the unit vector of v, or the zero vector.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Quat is a rotation quaternion.
type Quat struct {
	X, Y, Z, W float64
}

var Identity = Quat{W: 1}

// Host is the engine surface the gameplay core drives: transform, visibility
// and ownership setters on placed objects. Operations on an unknown handle
// are no-ops and getters return zero values.
type Host interface {
	Name(h ecs.EntityID) string
	Parent(h ecs.EntityID) ecs.EntityID
	Position(h ecs.EntityID) Vec3
	SetPosition(h ecs.EntityID, p Vec3)
	Rotation(h ecs.EntityID) Quat
	SetRotation(h ecs.EntityID, r Quat)
	Visible(h ecs.EntityID) bool
	SetVisible(h ecs.EntityID, v bool)
	Owner(h ecs.EntityID) ActorID
	SetOwner(h ecs.EntityID, a ActorID)
	// Remove deletes an object at the end of the tick.
	Remove(h ecs.EntityID)
}

// TickEvent is broadcast once per tick before other queued events.
type TickEvent struct {
	Tick uint64
	Dt   time.Duration
}

// GrabStartEvent fires on the grabbed object when an actor picks it up.
type GrabStartEvent struct {
	Object ecs.EntityID
	Actor  ActorID
}

// GrabEndEvent fires on the grabbed object when the actor lets go.
type GrabEndEvent struct {
	Object ecs.EntityID
	Actor  ActorID
}

type CollisionKind uint8

const (
	CollideObject CollisionKind = iota // object hit another object
	CollideActor                       // object hit an actor
)

func (k CollisionKind) String() string {
	if k == CollideActor {
		return "actor"
	}
	return "object"
}

// CollisionEvent fires on Object. Other is set for CollideObject, Actor for
// CollideActor.
type CollisionEvent struct {
	Object ecs.EntityID
	Kind   CollisionKind
	Other  ecs.EntityID
	Actor  ActorID
	At     Vec3
}
