package pool

import (
	"github.com/arenakit/arena/internal/behavior"
	"github.com/arenakit/arena/internal/core/ecs"
	"github.com/arenakit/arena/internal/host"
)

// Parked implements Allocatable against the host for one pooled object.
// Behaviors embed it and call Enlist from their Setup hook.
//
// The parked position is the pool's location at the object's first setup.
// If the pool object moves later the parked position is not refreshed.
type Parked struct {
	host     host.Host
	handle   ecs.EntityID
	pool     *Pool
	parkedAt host.Vec3
	captured bool
}

func NewParked(h host.Host, handle ecs.EntityID) Parked {
	return Parked{host: h, handle: handle}
}

// Enlist finds the pool behavior on the object's scene parent, records the
// parked position and adds the object to that pool.
func (p *Parked) Enlist(reg *behavior.Registry) (*Pool, bool) {
	if p.pool != nil {
		return p.pool, true
	}
	pl, ok := behavior.As[*Pool](reg, p.host.Parent(p.handle))
	if !ok {
		return nil, false
	}
	p.Capture(p.host.Position(pl.Handle()))
	pl.AddEntity(p.handle)
	p.pool = pl
	return pl, true
}

// Capture records the parked position once; later calls are ignored.
func (p *Parked) Capture(at host.Vec3) {
	if p.captured {
		return
	}
	p.parkedAt = at
	p.captured = true
}

// ParkedAt returns the recorded parked position.
func (p *Parked) ParkedAt() (host.Vec3, bool) {
	return p.parkedAt, p.captured
}

// Pool returns the pool the object enlisted in, if any.
func (p *Parked) Pool() *Pool { return p.pool }

// Release frees the object through its pool.
func (p *Parked) Release() bool {
	if p.pool == nil {
		return false
	}
	return p.pool.Free(p.handle)
}

func (p *Parked) OnAllocate(pos host.Vec3, rot host.Quat, owner host.ActorID) {
	p.host.SetPosition(p.handle, pos)
	p.host.SetRotation(p.handle, rot)
	if owner != host.NoActor && p.host.Owner(p.handle) != owner {
		p.host.SetOwner(p.handle, owner)
	}
	p.host.SetVisible(p.handle, true)
}

func (p *Parked) OnFree() {
	p.host.SetVisible(p.handle, false)
	if p.captured {
		p.host.SetPosition(p.handle, p.parkedAt)
	}
	p.host.SetRotation(p.handle, host.Identity)
	if p.host.Owner(p.handle) != host.ServerActor {
		p.host.SetOwner(p.handle, host.ServerActor)
	}
}
