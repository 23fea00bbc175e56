package gameplay

import (
	"testing"
	"time"

	"github.com/arenakit/arena/internal/behavior"
	"github.com/arenakit/arena/internal/core/ecs"
	"github.com/arenakit/arena/internal/host"
	"github.com/arenakit/arena/internal/pool"
)

// dummy takes damage and records who dealt it.
type dummy struct {
	behavior.Base
	hits []host.ActorID
	dmg  int
}

func (d *dummy) Damage(amount int, by host.ActorID) bool {
	d.dmg += amount
	d.hits = append(d.hits, by)
	return false
}

type armory struct {
	weapon      *Weapon
	projectiles *pool.Pool
	handle      ecs.EntityID
}

func newArmory(r *rig, size int, stats WeaponStats) armory {
	p := r.pool("projectile", size, func(h ecs.EntityID) behavior.Hooks {
		return NewProjectile(r.deps.World, h)
	})
	h := r.deps.World.Place("weapon", 0, host.Vec3{}, true)
	w := NewWeapon(r.deps.World, h, p, stats, r.deps.Log)
	r.start(w)
	return armory{weapon: w, projectiles: p, handle: h}
}

var testStats = WeaponStats{Damage: 7, Speed: 10, Range: 5, Cooldown: 500 * time.Millisecond}

func TestWeaponGrabAndRelease(t *testing.T) {
	r := newRig(t)
	a := newArmory(r, 2, testStats)
	w := r.deps.World
	ann := w.Join("ann", host.Vec3{})
	bob := w.Join("bob", host.Vec3{})

	if _, ok := a.weapon.Fire(host.Vec3{Z: 1}); ok {
		t.Fatal("fired without a holder")
	}
	w.Grab(a.handle, ann.ID)
	r.tick(time.Millisecond)
	if a.weapon.Holder() != ann.ID || w.Owner(a.handle) != ann.ID {
		t.Fatalf("holder %d owner %d", a.weapon.Holder(), w.Owner(a.handle))
	}

	// A second grab and a release by someone else: the weapon keeps its
	// channels and only the holder's release counts.
	w.Release(a.handle, bob.ID)
	r.tick(time.Millisecond)
	if a.weapon.Holder() != ann.ID {
		t.Error("release by non-holder dropped the weapon")
	}
	w.Release(a.handle, ann.ID)
	r.tick(time.Millisecond)
	if a.weapon.Holder() != host.NoActor || w.Owner(a.handle) != host.ServerActor {
		t.Errorf("after release holder %d owner %d", a.weapon.Holder(), w.Owner(a.handle))
	}
	w.Grab(a.handle, bob.ID)
	r.tick(time.Millisecond)
	if a.weapon.Holder() != bob.ID {
		t.Error("second grab not delivered")
	}
}

func TestWeaponCooldown(t *testing.T) {
	r := newRig(t)
	a := newArmory(r, 2, testStats)
	ann := r.deps.World.Join("ann", host.Vec3{})
	r.deps.World.Grab(a.handle, ann.ID)
	r.tick(time.Millisecond)

	shot, ok := a.weapon.Fire(host.Vec3{X: 3})
	if !ok {
		t.Fatal("fire failed")
	}
	if r.deps.World.Owner(shot) != ann.ID {
		t.Error("projectile not owned by the shooter")
	}
	if _, ok := a.weapon.Fire(host.Vec3{X: 1}); ok {
		t.Error("fired during cooldown")
	}
	if _, ok := a.weapon.Fire(host.Vec3{}); ok {
		t.Error("fired with no direction")
	}
	r.tick(500 * time.Millisecond)
	if _, ok := a.weapon.Fire(host.Vec3{X: 1}); !ok {
		t.Fatal("fire after cooldown failed")
	}
	r.tick(500 * time.Millisecond)
	r.tick(500 * time.Millisecond)
	if a.projectiles.AllocatedCount() != 0 {
		t.Fatalf("projectiles in flight = %d", a.projectiles.AllocatedCount())
	}
}

func TestProjectileFliesAndExpires(t *testing.T) {
	r := newRig(t)
	a := newArmory(r, 1, testStats)
	ann := r.deps.World.Join("ann", host.Vec3{})
	r.deps.World.Grab(a.handle, ann.ID)
	r.tick(time.Millisecond)

	shot, _ := a.weapon.Fire(host.Vec3{Z: 2})
	r.tick(200 * time.Millisecond)
	if got := r.deps.World.Position(shot); got.Z < 1.99 || got.Z > 2.01 {
		t.Errorf("after 0.2s at speed 10: z = %v", got.Z)
	}
	if !a.projectiles.IsAllocated(shot) {
		t.Fatal("projectile freed early")
	}
	r.tick(400 * time.Millisecond)
	if a.projectiles.IsAllocated(shot) {
		t.Error("projectile past its range still allocated")
	}
	if r.deps.World.Visible(shot) {
		t.Error("expired projectile visible")
	}
}

func TestProjectileHitsDamageable(t *testing.T) {
	r := newRig(t)
	a := newArmory(r, 1, testStats)
	ann := r.deps.World.Join("ann", host.Vec3{})
	r.deps.World.Grab(a.handle, ann.ID)
	r.tick(time.Millisecond)

	th := r.deps.World.Place("dummy", 0, host.Vec3{Z: 1}, true)
	target := &dummy{Base: behavior.NewBase(th)}
	r.deps.Registry.Register(th, target)
	wall := r.deps.World.Place("wall", 0, host.Vec3{}, true)

	shot, _ := a.weapon.Fire(host.Vec3{Z: 1})
	r.deps.World.Collide(shot, th)
	r.tick(time.Millisecond)
	if target.dmg != 7 || len(target.hits) != 1 || target.hits[0] != ann.ID {
		t.Errorf("target took %d from %v", target.dmg, target.hits)
	}
	if a.projectiles.IsAllocated(shot) {
		t.Error("projectile not returned after hit")
	}

	// A wall has no behavior: the shot is still consumed.
	r.tick(time.Second)
	shot, _ = a.weapon.Fire(host.Vec3{Z: 1})
	r.deps.World.Collide(shot, wall)
	r.tick(time.Millisecond)
	if a.projectiles.IsAllocated(shot) || target.dmg != 7 {
		t.Error("hit on a wall mishandled")
	}
}

func TestSpentWeaponIsRemoved(t *testing.T) {
	r := newRig(t)
	stats := testStats
	stats.Cooldown = 0
	stats.Charges = 2
	a := newArmory(r, 2, stats)
	w := r.deps.World
	ann := w.Join("ann", host.Vec3{})
	w.Grab(a.handle, ann.ID)
	r.tick(time.Millisecond)

	for i := 0; i < 2; i++ {
		if _, ok := a.weapon.Fire(host.Vec3{Z: 1}); !ok {
			t.Fatalf("shot %d failed", i)
		}
	}
	if !a.weapon.Spent() || a.weapon.Holder() != host.NoActor {
		t.Fatalf("spent %v holder %d", a.weapon.Spent(), a.weapon.Holder())
	}
	if _, ok := a.weapon.Fire(host.Vec3{Z: 1}); ok {
		t.Error("spent weapon fired")
	}
	if _, ok := r.deps.Registry.Lookup(a.handle); ok {
		t.Error("spent weapon still registered")
	}

	// The object survives until the end-of-tick flush.
	if !w.Alive(a.handle) {
		t.Fatal("weapon removed before flush")
	}
	if n := w.Flush(); n != 1 {
		t.Errorf("flush removed %d objects", n)
	}
	if w.Alive(a.handle) {
		t.Error("spent weapon still alive")
	}
	if a.projectiles.AllocatedCount() != 2 {
		t.Errorf("in-flight projectiles = %d", a.projectiles.AllocatedCount())
	}
}
