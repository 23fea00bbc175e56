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

// WavePhase is the spawner's progress through the current wave.
type WavePhase uint8

const (
	WaveIdle     WavePhase = iota // not started
	WaveSpawning                  // placing enemies on an interval
	WaveActive                    // all placed, waiting for kills
	WaveCleared                   // cooldown before the next wave
	WaveFinished                  // no waves left
)

func (p WavePhase) String() string {
	switch p {
	case WaveIdle:
		return "idle"
	case WaveSpawning:
		return "spawning"
	case WaveActive:
		return "active"
	case WaveCleared:
		return "cleared"
	case WaveFinished:
		return "finished"
	}
	return "unknown"
}

// HealthFormula scales enemy health per wave.
type HealthFormula interface {
	EnemyHealth(kind string, wave, base int) int
}

// WaveOptions tunes a WaveSpawner.
type WaveOptions struct {
	Cooldown   time.Duration
	SpawnPoint host.Vec3
	Spread     float64
	Health     HealthFormula // nil keeps template health
	Beacons    *pool.Pool    // nil disables spawn markers
}

// WaveSpawner draws enemy kinds per wave and places them from per-kind
// pools. An exhausted pool skips that spawn.
type WaveSpawner struct {
	deps    *Deps
	opts    WaveOptions
	table   *data.WaveTable
	kinds   []*weighted.Table[string]
	pools   map[string]*pool.Pool
	loot    *LootSpawner
	phase   WavePhase
	index   int
	timer   time.Duration
	spawned int
	skipped int
	alive   map[ecs.EntityID]struct{}
	beacon  ecs.EntityID
}

func NewWaveSpawner(table *data.WaveTable, loot *LootSpawner, deps *Deps, opts WaveOptions) (*WaveSpawner, error) {
	s := &WaveSpawner{
		deps:  deps,
		opts:  opts,
		table: table,
		pools: make(map[string]*pool.Pool),
		loot:  loot,
		alive: make(map[ecs.EntityID]struct{}),
	}
	for _, w := range table.Waves() {
		entries := make([]weighted.Entry[string], len(w.Enemies))
		for i, we := range w.Enemies {
			entries[i] = weighted.Entry[string]{Candidate: we.Kind, Weight: we.Weight}
		}
		tbl, err := weighted.New(entries)
		if err != nil {
			return nil, fmt.Errorf("wave %d: %w", w.Number, err)
		}
		s.kinds = append(s.kinds, tbl)
	}
	return s, nil
}

// AddPool registers the pool holding enemies of kind.
func (s *WaveSpawner) AddPool(kind string, p *pool.Pool) {
	s.pools[kind] = p
}

// Start begins the first wave. It is a no-op once started.
func (s *WaveSpawner) Start() bool {
	if s.phase != WaveIdle {
		return false
	}
	if s.table.Count() == 0 {
		s.phase = WaveFinished
		return false
	}
	s.begin(0)
	return true
}

func (s *WaveSpawner) Phase() WavePhase { return s.phase }
func (s *WaveSpawner) Alive() int       { return len(s.alive) }
func (s *WaveSpawner) Skipped() int     { return s.skipped }

// Wave returns the current wave number, 0 before the first wave.
func (s *WaveSpawner) Wave() int {
	if s.phase == WaveIdle || s.index >= s.table.Count() {
		return 0
	}
	return s.table.Waves()[s.index].Number
}

// Enemies returns the handles of living enemies.
func (s *WaveSpawner) Enemies() []ecs.EntityID {
	out := make([]ecs.EntityID, 0, len(s.alive))
	for h := range s.alive {
		out = append(out, h)
	}
	return out
}

// Update advances the wave state by one tick.
func (s *WaveSpawner) Update(dt time.Duration) {
	switch s.phase {
	case WaveSpawning:
		w := s.table.Waves()[s.index]
		s.timer -= dt
		for s.timer <= 0 && s.spawned < w.Count {
			s.spawnOne(w)
			s.spawned++
			s.timer += w.Interval
			if w.Interval <= 0 {
				s.timer = 0
			}
		}
		if s.spawned >= w.Count {
			s.phase = WaveActive
			s.clearBeacon()
		}
	case WaveActive:
		if len(s.alive) == 0 {
			s.phase = WaveCleared
			s.timer = s.opts.Cooldown
			s.deps.Log.Info("wave cleared", zap.Int("wave", s.Wave()), zap.Int("skipped", s.skipped))
		}
	case WaveCleared:
		s.timer -= dt
		if s.timer <= 0 {
			if s.index+1 >= s.table.Count() {
				s.phase = WaveFinished
				s.deps.Log.Info("all waves cleared")
				return
			}
			s.begin(s.index + 1)
		}
	}
}

func (s *WaveSpawner) begin(index int) {
	s.index = index
	s.phase = WaveSpawning
	s.timer = 0
	s.spawned = 0
	s.skipped = 0
	if s.opts.Beacons != nil {
		if h, ok := s.opts.Beacons.Allocate(s.opts.SpawnPoint, host.Identity, host.NoActor); ok {
			s.beacon = h
		}
	}
	s.deps.Log.Info("wave started", zap.Int("wave", s.Wave()), zap.Int("count", s.table.Waves()[index].Count))
}

func (s *WaveSpawner) clearBeacon() {
	if s.beacon != 0 {
		s.opts.Beacons.Free(s.beacon)
		s.beacon = 0
	}
}

func (s *WaveSpawner) spawnOne(w data.WaveDef) {
	kind, ok := s.kinds[s.index].Draw(s.deps.Rand)
	if !ok {
		s.skipped++
		return
	}
	p, ok := s.pools[kind]
	if !ok {
		s.deps.Log.Warn("no pool for enemy kind", zap.String("kind", kind))
		s.skipped++
		return
	}
	pos := s.opts.SpawnPoint
	if s.opts.Spread > 0 {
		pos.X += (s.deps.Rand.Float64()*2 - 1) * s.opts.Spread
	}
	h, ok := p.Allocate(pos, host.Identity, host.NoActor)
	if !ok {
		s.skipped++
		return
	}
	if e, ok := behavior.As[*Enemy](s.deps.Registry, h); ok {
		hp := e.def.Health
		if s.opts.Health != nil {
			hp = s.opts.Health.EnemyHealth(kind, w.Number, hp)
		}
		e.Arm(w.Number, hp)
	}
	s.alive[h] = struct{}{}
	e := entryAt(persist.KindSpawn, p.Name(), kind, host.NoActor, pos)
	e.Wave = w.Number
	s.deps.record(e)
}

func (s *WaveSpawner) defeated(e *Enemy, by host.ActorID) {
	h := e.Handle()
	if _, ok := s.alive[h]; !ok {
		return
	}
	delete(s.alive, h)
	pos := s.deps.World.Position(h)
	s.deps.Scores.Kill(by, e.def.Score)

	entry := entryAt(persist.KindKill, "", e.def.Kind, by, pos)
	entry.Wave = e.wave
	s.deps.record(entry)

	e.Release()
	if e.def.Loot != "" && s.loot != nil {
		s.loot.Drop(e.def.Loot, pos)
	}
}
