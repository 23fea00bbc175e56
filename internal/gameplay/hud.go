package gameplay

import (
	"github.com/arenakit/arena/internal/behavior"
	"github.com/arenakit/arena/internal/core/ecs"
	"github.com/arenakit/arena/internal/host"
	"github.com/arenakit/arena/internal/pool"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const defaultHUDHealth = 100

// hudOffset places a HUD panel above its player.
var hudOffset = host.Vec3{Y: 2}

// HUD is a pooled per-player overlay.
type HUD struct {
	behavior.Base
	pool.Parked

	player host.ActorID
	name   string
	health int
	score  int
}

func NewHUD(h host.Host, handle ecs.EntityID) *HUD {
	return &HUD{
		Base:   behavior.NewBase(handle),
		Parked: pool.NewParked(h, handle),
	}
}

func (d *HUD) Setup(a *behavior.Adapter) {
	d.Enlist(a.Registry())
}

func (d *HUD) OnAllocate(pos host.Vec3, rot host.Quat, owner host.ActorID) {
	d.Parked.OnAllocate(pos, rot, owner)
	d.player = owner
	d.name = ""
	d.health = defaultHUDHealth
	d.score = 0
}

func (d *HUD) OnFree() {
	d.Parked.OnFree()
	d.player = host.NoActor
	d.name = ""
	d.health = 0
	d.score = 0
}

func (d *HUD) Player() host.ActorID { return d.player }
func (d *HUD) Name() string         { return d.name }
func (d *HUD) Health() int          { return d.health }
func (d *HUD) Score() int           { return d.score }

func (d *HUD) SetName(name string) { d.name = name }
func (d *HUD) SetHealth(hp int)    { d.health = hp }
func (d *HUD) SetScore(s int)      { d.score = s }

// HUDManager gives each joined player a HUD from a fixed pool. When the pool
// is exhausted the player simply has no HUD.
type HUDManager struct {
	pool    *pool.Pool
	deps    *Deps
	byActor map[host.ActorID]ecs.EntityID
	title   cases.Caser
}

func NewHUDManager(p *pool.Pool, deps *Deps) *HUDManager {
	return &HUDManager{
		pool:    p,
		deps:    deps,
		byActor: make(map[host.ActorID]ecs.EntityID),
		title:   cases.Title(language.English),
	}
}

// Join allocates a HUD for actor. It returns false when the pool is empty.
func (m *HUDManager) Join(actor host.ActorID, name string) bool {
	if _, ok := m.byActor[actor]; ok {
		return true
	}
	pos := hudOffset
	if a, ok := m.deps.World.Actor(actor); ok {
		pos = a.Position.Add(hudOffset)
	}
	h, ok := m.pool.Allocate(pos, host.Identity, actor)
	if !ok {
		m.deps.Log.Info("no hud available", zap.Uint32("actor", uint32(actor)), zap.String("name", name))
		return false
	}
	m.byActor[actor] = h
	if hud, ok := behavior.As[*HUD](m.deps.Registry, h); ok {
		hud.SetName(m.title.String(name))
	}
	return true
}

// Leave returns the actor's HUD to the pool.
func (m *HUDManager) Leave(actor host.ActorID) bool {
	h, ok := m.byActor[actor]
	if !ok {
		return false
	}
	delete(m.byActor, actor)
	return m.pool.Free(h)
}

// HUD returns the HUD behavior shown to actor.
func (m *HUDManager) HUD(actor host.ActorID) (*HUD, bool) {
	h, ok := m.byActor[actor]
	if !ok {
		return nil, false
	}
	return behavior.As[*HUD](m.deps.Registry, h)
}

func (m *HUDManager) SetHealth(actor host.ActorID, hp int) bool {
	hud, ok := m.HUD(actor)
	if ok {
		hud.SetHealth(hp)
	}
	return ok
}

func (m *HUDManager) SetScore(actor host.ActorID, score int) bool {
	hud, ok := m.HUD(actor)
	if ok {
		hud.SetScore(score)
	}
	return ok
}

// Active returns the number of players that currently have a HUD.
func (m *HUDManager) Active() int { return len(m.byActor) }
