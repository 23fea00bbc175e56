package scripting

import (
	"github.com/arenakit/arena/internal/behavior"
	"github.com/arenakit/arena/internal/core/ecs"
	"github.com/arenakit/arena/internal/host"
	"github.com/arenakit/arena/internal/pool"
	lua "github.com/yuin/gopher-lua"
)

// Behavior is a pooled object whose logic lives in behaviors.<script>.
// Placement, visibility and ownership go through pool.Parked before the
// script runs, so the allocatable contract holds even for an empty script.
type Behavior struct {
	behavior.Base
	pool.Parked

	engine  *Engine
	script  string
	elapsed float64
	active  bool
}

func NewBehavior(h host.Host, handle ecs.EntityID, engine *Engine, script string) *Behavior {
	return &Behavior{
		Base:   behavior.NewBase(handle),
		Parked: pool.NewParked(h, handle),
		engine: engine,
		script: script,
	}
}

func (b *Behavior) Script() string { return b.script }

func (b *Behavior) Setup(a *behavior.Adapter) {
	b.Enlist(a.Registry())
	if b.engine.HasHook(b.script, "on_update") {
		a.Keep(behavior.ChannelUpdate)
	}
}

func (b *Behavior) Update(a *behavior.Adapter, ev host.TickEvent) {
	if !b.active {
		return
	}
	dt := ev.Dt.Seconds()
	b.elapsed += dt
	b.engine.CallHook(b.script, "on_update", map[string]lua.LValue{
		"handle":  lua.LNumber(b.Handle()),
		"dt":      lua.LNumber(dt),
		"elapsed": lua.LNumber(b.elapsed),
	})
}

func (b *Behavior) OnAllocate(pos host.Vec3, rot host.Quat, owner host.ActorID) {
	b.Parked.OnAllocate(pos, rot, owner)
	b.active = true
	b.elapsed = 0
	b.engine.CallHook(b.script, "on_allocate", map[string]lua.LValue{
		"handle": lua.LNumber(b.Handle()),
		"x":      lua.LNumber(pos.X),
		"y":      lua.LNumber(pos.Y),
		"z":      lua.LNumber(pos.Z),
		"owner":  lua.LNumber(owner),
	})
}

func (b *Behavior) OnFree() {
	b.Parked.OnFree()
	b.active = false
	b.engine.CallHook(b.script, "on_free", map[string]lua.LValue{
		"handle": lua.LNumber(b.Handle()),
	})
}
