package gameplay

import (
	"fmt"
	"time"

	"github.com/arenakit/arena/internal/behavior"
	"github.com/arenakit/arena/internal/core/ecs"
	"github.com/arenakit/arena/internal/data"
	"github.com/arenakit/arena/internal/host"
	"github.com/arenakit/arena/internal/persist"
	"github.com/arenakit/arena/internal/pool"
	"github.com/arenakit/arena/internal/weighted"
	"go.uber.org/zap"
)

// Loot is a pooled pickup lying in the world. A player touching it collects
// it.
type Loot struct {
	behavior.Base
	pool.Parked

	item    string
	spawner *LootSpawner
}

func NewLoot(h host.Host, handle ecs.EntityID, item string, spawner *LootSpawner) *Loot {
	return &Loot{
		Base:    behavior.NewBase(handle),
		Parked:  pool.NewParked(h, handle),
		item:    item,
		spawner: spawner,
	}
}

func (l *Loot) Item() string { return l.item }

func (l *Loot) Setup(a *behavior.Adapter) {
	l.Enlist(a.Registry())
	a.Keep(behavior.ChannelCollision)
}

func (l *Loot) Collide(_ *behavior.Adapter, ev host.CollisionEvent) {
	if ev.Kind != host.CollideActor {
		return
	}
	l.spawner.pickup(l, ev.Actor)
}

type lootTable struct {
	gate  weighted.Gate
	items *weighted.Table[string]
}

// LootSpawner rolls loot tables and places the result from per-item pools.
type LootSpawner struct {
	deps    *Deps
	tables  map[string]*lootTable
	pools   map[string]*pool.Pool
	values  map[string]int
	despawn time.Duration
}

// NewLootSpawner normalizes every table once. A table whose weights sum to
// zero is kept and never drops anything.
func NewLootSpawner(defs *data.LootTables, deps *Deps, despawn time.Duration) (*LootSpawner, error) {
	s := &LootSpawner{
		deps:    deps,
		tables:  make(map[string]*lootTable, defs.Count()),
		pools:   make(map[string]*pool.Pool),
		values:  make(map[string]int),
		despawn: despawn,
	}
	for _, name := range defs.Names() {
		def := defs.Get(name)
		entries := make([]weighted.Entry[string], len(def.Items))
		for i, it := range def.Items {
			entries[i] = weighted.Entry[string]{Candidate: it.Item, Weight: it.Weight}
		}
		tbl, err := weighted.New(entries)
		if err != nil {
			return nil, fmt.Errorf("loot table %s: %w", name, err)
		}
		if tbl.Degenerate() {
			deps.Log.Warn("loot table has zero total weight and never drops", zap.String("table", name))
		}
		s.tables[name] = &lootTable{gate: weighted.Gate{NoDrop: def.NoDropChance}, items: tbl}
	}
	return s, nil
}

// AddPool registers the pool that holds item pickups.
func (s *LootSpawner) AddPool(item string, p *pool.Pool) {
	s.pools[item] = p
}

// SetValue sets the score a pickup of item is worth. Unset items are worth 1.
func (s *LootSpawner) SetValue(item string, points int) {
	s.values[item] = points
}

// Drop rolls table at pos. It returns the placed pickup, or false when the
// gate said no, the table is degenerate, or the item's pool is exhausted.
func (s *LootSpawner) Drop(table string, pos host.Vec3) (ecs.EntityID, bool) {
	t, ok := s.tables[table]
	if !ok {
		s.deps.Log.Warn("unknown loot table", zap.String("table", table))
		return 0, false
	}
	if !t.gate.ShouldDrop(s.deps.Rand) {
		return 0, false
	}
	item, ok := t.items.Draw(s.deps.Rand)
	if !ok {
		return 0, false
	}
	p, ok := s.pools[item]
	if !ok {
		s.deps.Log.Warn("no pool for loot item", zap.String("item", item))
		return 0, false
	}
	h, ok := p.Allocate(pos, host.Identity, host.NoActor)
	if !ok {
		return 0, false
	}

	lease, _ := p.Lease(h)
	if s.despawn > 0 {
		s.deps.Scheduler.After(s.despawn, func() {
			// The pickup may have been collected and dropped again since.
			if p.Valid(lease) {
				p.Free(lease.Handle)
			}
		})
	}
	s.deps.record(entryAt(persist.KindDrop, p.Name(), item, host.NoActor, pos))
	return h, true
}

func (s *LootSpawner) pickup(l *Loot, actor host.ActorID) {
	p := l.Pool()
	if p == nil || !p.IsAllocated(l.Handle()) {
		return
	}
	pos := s.deps.World.Position(l.Handle())
	p.Free(l.Handle())

	points, ok := s.values[l.item]
	if !ok {
		points = 1
	}
	s.deps.Scores.Pickup(actor, points)
	s.deps.record(entryAt(persist.KindPickup, p.Name(), l.item, actor, pos))
}
