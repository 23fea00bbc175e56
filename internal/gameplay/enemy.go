package gameplay

import (
	"github.com/arenakit/arena/internal/behavior"
	"github.com/arenakit/arena/internal/core/ecs"
	"github.com/arenakit/arena/internal/data"
	"github.com/arenakit/arena/internal/host"
	"github.com/arenakit/arena/internal/pool"
)

// Damageable is the capability projectiles look for on whatever they hit.
type Damageable interface {
	// Damage applies amount dealt by actor and reports whether it killed.
	Damage(amount int, by host.ActorID) bool
}

// Enemy is a pooled wave enemy.
type Enemy struct {
	behavior.Base
	pool.Parked

	def    *data.EnemyDef
	waves  *WaveSpawner
	health int
	maxHP  int
	wave   int
}

func NewEnemy(h host.Host, handle ecs.EntityID, def *data.EnemyDef, waves *WaveSpawner) *Enemy {
	return &Enemy{
		Base:   behavior.NewBase(handle),
		Parked: pool.NewParked(h, handle),
		def:    def,
		waves:  waves,
	}
}

func (e *Enemy) Setup(a *behavior.Adapter) {
	e.Enlist(a.Registry())
}

func (e *Enemy) OnAllocate(pos host.Vec3, rot host.Quat, owner host.ActorID) {
	e.Parked.OnAllocate(pos, rot, owner)
	e.maxHP = e.def.Health
	e.health = e.maxHP
	e.wave = 0
}

func (e *Enemy) OnFree() {
	e.Parked.OnFree()
	e.health = 0
	e.wave = 0
}

// Arm sets the wave the enemy belongs to and its scaled health.
func (e *Enemy) Arm(wave, health int) {
	e.wave = wave
	if health > 0 {
		e.maxHP = health
		e.health = health
	}
}

func (e *Enemy) Kind() string { return e.def.Kind }
func (e *Enemy) Wave() int    { return e.wave }
func (e *Enemy) Health() int  { return e.health }
func (e *Enemy) Alive() bool  { return e.health > 0 }

func (e *Enemy) Damage(amount int, by host.ActorID) bool {
	if e.health <= 0 || amount <= 0 {
		return false
	}
	e.health -= amount
	if e.health > 0 {
		return false
	}
	e.waves.defeated(e, by)
	return true
}
