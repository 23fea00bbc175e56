package gameplay

import (
	"time"

	"github.com/arenakit/arena/internal/behavior"
	"github.com/arenakit/arena/internal/core/ecs"
	"github.com/arenakit/arena/internal/host"
	"github.com/arenakit/arena/internal/pool"
	"go.uber.org/zap"
)

// WeaponStats configures a weapon and the projectiles it fires.
type WeaponStats struct {
	Damage   int
	Speed    float64 // units per second
	Range    float64
	Cooldown time.Duration
	Charges  int // shots before the weapon is spent, 0 for unlimited
}

// Weapon is a grabbable launcher. Whoever holds it owns it and the
// projectiles it fires. A weapon with limited charges is deleted from the
// world once the last one is fired.
type Weapon struct {
	behavior.Base

	host        host.Host
	log         *zap.Logger
	reg         *behavior.Registry
	adapter     *behavior.Adapter
	projectiles *pool.Pool
	stats       WeaponStats
	holder      host.ActorID
	cooldown    time.Duration
	shots       int
	spent       bool
}

func NewWeapon(h host.Host, handle ecs.EntityID, projectiles *pool.Pool, stats WeaponStats, log *zap.Logger) *Weapon {
	return &Weapon{
		Base:        behavior.NewBase(handle),
		host:        h,
		log:         log,
		projectiles: projectiles,
		stats:       stats,
	}
}

func (w *Weapon) Setup(a *behavior.Adapter) {
	w.reg = a.Registry()
	w.adapter = a
	a.Keep(behavior.ChannelUpdate)
	a.Keep(behavior.ChannelGrabStart)
	a.Keep(behavior.ChannelGrabEnd)
}

func (w *Weapon) Update(_ *behavior.Adapter, ev host.TickEvent) {
	if w.cooldown > 0 {
		w.cooldown -= ev.Dt
		if w.cooldown < 0 {
			w.cooldown = 0
		}
	}
}

func (w *Weapon) GrabStart(_ *behavior.Adapter, ev host.GrabStartEvent) {
	w.holder = ev.Actor
	w.host.SetOwner(w.Handle(), ev.Actor)
}

func (w *Weapon) GrabEnd(_ *behavior.Adapter, ev host.GrabEndEvent) {
	if ev.Actor != w.holder {
		return
	}
	w.holder = host.NoActor
	w.host.SetOwner(w.Handle(), host.ServerActor)
}

func (w *Weapon) Holder() host.ActorID { return w.holder }

func (w *Weapon) Spent() bool { return w.spent }

// Shots returns how many projectiles the weapon has fired.
func (w *Weapon) Shots() int { return w.shots }

// Fire launches a projectile along dir from the weapon's position. It fails
// when nobody holds the weapon, it is cooling down or spent, or no
// projectile is free.
func (w *Weapon) Fire(dir host.Vec3) (ecs.EntityID, bool) {
	if w.spent || w.holder == host.NoActor || w.cooldown > 0 {
		return 0, false
	}
	dir = dir.Normalize()
	if dir == (host.Vec3{}) {
		return 0, false
	}
	h, ok := w.projectiles.Allocate(w.host.Position(w.Handle()), host.Identity, w.holder)
	if !ok {
		return 0, false
	}
	w.cooldown = w.stats.Cooldown
	if p, ok := behavior.As[*Projectile](w.reg, h); ok {
		p.Launch(dir.Scale(w.stats.Speed), w.stats.Damage, w.stats.Range, w.holder)
	} else {
		w.log.Warn("projectile pool object is not a projectile", zap.Uint64("handle", uint64(h)))
	}
	w.shots++
	if w.stats.Charges > 0 && w.shots >= w.stats.Charges {
		w.retire()
	}
	return h, true
}

// retire stops the weapon's callbacks and deletes its object. Projectiles
// already in flight keep flying.
func (w *Weapon) retire() {
	w.log.Info("weapon spent",
		zap.Uint64("handle", uint64(w.Handle())),
		zap.Uint32("holder", uint32(w.holder)),
		zap.Int("shots", w.shots),
	)
	w.spent = true
	w.holder = host.NoActor
	if w.adapter != nil {
		w.adapter.Dispose()
	}
	w.reg.Remove(w.Handle())
	w.host.Remove(w.Handle())
}

// Projectile is a pooled shot. It flies until it hits something or runs out
// of range, then returns itself to its pool.
type Projectile struct {
	behavior.Base
	pool.Parked

	host      host.Host
	velocity  host.Vec3
	damage    int
	rangeLeft float64
	shooter   host.ActorID
	flying    bool
}

func NewProjectile(h host.Host, handle ecs.EntityID) *Projectile {
	return &Projectile{
		Base:   behavior.NewBase(handle),
		Parked: pool.NewParked(h, handle),
		host:   h,
	}
}

func (p *Projectile) Setup(a *behavior.Adapter) {
	p.Enlist(a.Registry())
	a.Keep(behavior.ChannelUpdate)
	a.Keep(behavior.ChannelCollision)
}

func (p *Projectile) OnAllocate(pos host.Vec3, rot host.Quat, owner host.ActorID) {
	p.Parked.OnAllocate(pos, rot, owner)
	p.velocity = host.Vec3{}
	p.damage = 0
	p.rangeLeft = 0
	p.shooter = owner
	p.flying = false
}

func (p *Projectile) OnFree() {
	p.Parked.OnFree()
	p.velocity = host.Vec3{}
	p.flying = false
	p.shooter = host.NoActor
}

// Launch sets the projectile in motion.
func (p *Projectile) Launch(velocity host.Vec3, damage int, maxRange float64, shooter host.ActorID) {
	p.velocity = velocity
	p.damage = damage
	p.rangeLeft = maxRange
	p.shooter = shooter
	p.flying = true
}

func (p *Projectile) Flying() bool { return p.flying }

func (p *Projectile) Update(_ *behavior.Adapter, ev host.TickEvent) {
	if !p.flying {
		return
	}
	step := p.velocity.Scale(ev.Dt.Seconds())
	p.host.SetPosition(p.Handle(), p.host.Position(p.Handle()).Add(step))
	p.rangeLeft -= step.Len()
	if p.rangeLeft <= 0 {
		p.Release()
	}
}

func (p *Projectile) Collide(a *behavior.Adapter, ev host.CollisionEvent) {
	if !p.flying || ev.Kind != host.CollideObject {
		return
	}
	// The collision only carries a handle; whatever is there decides
	// whether it can take damage.
	if target, ok := behavior.As[Damageable](a.Registry(), ev.Other); ok {
		target.Damage(p.damage, p.shooter)
	}
	p.Release()
}
