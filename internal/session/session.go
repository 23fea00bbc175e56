// Package session is the root of one game world: it owns the behavior
// registry, the host world, the event bus, the tick runner and every pool,
// and places all pooled objects at build time.
package session

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/arenakit/arena/internal/behavior"
	"github.com/arenakit/arena/internal/config"
	"github.com/arenakit/arena/internal/core/ecs"
	"github.com/arenakit/arena/internal/core/event"
	coresys "github.com/arenakit/arena/internal/core/system"
	"github.com/arenakit/arena/internal/data"
	"github.com/arenakit/arena/internal/gameplay"
	"github.com/arenakit/arena/internal/host"
	"github.com/arenakit/arena/internal/pool"
	"github.com/arenakit/arena/internal/scripting"
	"github.com/arenakit/arena/internal/system"
	"github.com/arenakit/arena/internal/weighted"
	"go.uber.org/zap"
)

// Pool names.
const (
	PoolHUD        = "hud"
	PoolProjectile = "projectile"
	PoolBeacon     = "beacon"
)

// LootPool and EnemyPool name the per-item and per-kind pools.
func LootPool(item string) string  { return "loot/" + item }
func EnemyPool(kind string) string { return "enemy/" + kind }

// parkingDepth keeps every pool's parked objects below the play area.
const parkingDepth = -100

// Options carries what a session is built from.
type Options struct {
	Config  *config.Config
	Loot    *data.LootTables
	Waves   *data.WaveTable
	Scripts *scripting.Engine   // nil disables Lua behaviors and formulas
	Ledger  system.LedgerWriter // nil keeps the ledger in memory
	Rand    weighted.Source     // nil seeds from config
}

type Session struct {
	Log       *zap.Logger
	Bus       *event.Bus
	World     *host.World
	Registry  *behavior.Registry
	Scheduler *coresys.Scheduler
	Runner    *coresys.Runner
	Ledger    *system.LedgerSystem

	Scores *gameplay.Scoreboard
	HUDs   *gameplay.HUDManager
	Loot   *gameplay.LootSpawner
	Waves  *gameplay.WaveSpawner
	Weapon *gameplay.Weapon

	cfg      *config.Config
	pools    map[string]*pool.Pool
	order    []string
	adapters []*behavior.Adapter
	policy   pool.Policy
	nextSlot int
}

// New builds the world: pools and their objects are placed, every behavior
// is initialized, then every behavior starts receiving callbacks.
func New(opts Options, log *zap.Logger) (*Session, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Defaults()
	}
	policy, err := pool.ParsePolicy(cfg.Pools.Policy)
	if err != nil {
		return nil, err
	}
	rng := opts.Rand
	if rng == nil {
		seed := cfg.World.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}

	bus := event.NewBus()
	s := &Session{
		Log:       log,
		Bus:       bus,
		World:     host.NewWorld(bus, log),
		Registry:  behavior.NewRegistry(log),
		Scheduler: coresys.NewScheduler(),
		Runner:    coresys.NewRunner(),
		Scores:    gameplay.NewScoreboard(),
		cfg:       cfg,
		pools:     make(map[string]*pool.Pool),
		policy:    policy,
	}
	s.Ledger = system.NewLedgerSystem(opts.Ledger, cfg.Ledger.FlushEvery, cfg.Ledger.MaxBuffered, cfg.Ledger.WriteTimeout, log)

	deps := &gameplay.Deps{
		World:     s.World,
		Registry:  s.Registry,
		Scheduler: s.Scheduler,
		Ledger:    s.Ledger,
		Scores:    s.Scores,
		Rand:      rng,
		Log:       log,
	}

	// HUDs
	hudPool := s.placePool(PoolHUD, cfg.Pools.HUD, func(h ecs.EntityID) behavior.Hooks {
		return gameplay.NewHUD(s.World, h)
	})
	s.HUDs = gameplay.NewHUDManager(hudPool, deps)
	s.Scores.AttachHUD(s.HUDs)

	// Loot
	lootDefs := opts.Loot
	if lootDefs == nil {
		if lootDefs, err = data.ParseLootTables(nil); err != nil {
			return nil, fmt.Errorf("empty loot tables: %w", err)
		}
	}
	s.Loot, err = gameplay.NewLootSpawner(lootDefs, deps, cfg.Loot.Despawn)
	if err != nil {
		return nil, err
	}
	for item, points := range cfg.Loot.Values {
		s.Loot.SetValue(item, points)
	}
	for _, item := range lootDefs.Items() {
		p := s.placePool(LootPool(item), cfg.Pools.LootItem, func(h ecs.EntityID) behavior.Hooks {
			return gameplay.NewLoot(s.World, h, item, s.Loot)
		})
		s.Loot.AddPool(item, p)
	}

	// Waves
	waveDefs := opts.Waves
	if waveDefs == nil {
		if waveDefs, err = data.ParseWaveTable(nil); err != nil {
			return nil, fmt.Errorf("empty wave table: %w", err)
		}
	}
	wopts := gameplay.WaveOptions{
		Cooldown:   cfg.Waves.Cooldown,
		SpawnPoint: host.Vec3{X: cfg.Waves.SpawnPoint[0], Y: cfg.Waves.SpawnPoint[1], Z: cfg.Waves.SpawnPoint[2]},
		Spread:     cfg.Waves.Spread,
	}
	if opts.Scripts != nil {
		opts.Scripts.BindHost(s.World)
		wopts.Health = opts.Scripts
		if cfg.Pools.Beacon > 0 && opts.Scripts.HasBehavior(PoolBeacon) {
			wopts.Beacons = s.placePool(PoolBeacon, cfg.Pools.Beacon, func(h ecs.EntityID) behavior.Hooks {
				return scripting.NewBehavior(s.World, h, opts.Scripts, PoolBeacon)
			})
		}
	}
	s.Waves, err = gameplay.NewWaveSpawner(waveDefs, s.Loot, deps, wopts)
	if err != nil {
		return nil, err
	}
	for _, kind := range waveDefs.Kinds() {
		def := waveDefs.Enemy(kind)
		p := s.placePool(EnemyPool(kind), cfg.Pools.EnemyKind, func(h ecs.EntityID) behavior.Hooks {
			return gameplay.NewEnemy(s.World, h, def, s.Waves)
		})
		s.Waves.AddPool(kind, p)
	}

	// Weapon
	projectiles := s.placePool(PoolProjectile, cfg.Pools.Projectile, func(h ecs.EntityID) behavior.Hooks {
		return gameplay.NewProjectile(s.World, h)
	})
	weaponHandle := s.World.Place("weapon", 0, host.Vec3{}, true)
	s.Weapon = gameplay.NewWeapon(s.World, weaponHandle, projectiles, gameplay.WeaponStats{
		Damage:   cfg.Weapon.Damage,
		Speed:    cfg.Weapon.ProjectileSpeed,
		Range:    cfg.Weapon.Range,
		Cooldown: cfg.Weapon.Cooldown,
		Charges:  cfg.Weapon.Charges,
	}, log)
	s.adapters = append(s.adapters, behavior.NewAdapter(s.Weapon, s.Registry, s.Bus, log))

	for _, a := range s.adapters {
		a.Init()
	}
	for _, a := range s.adapters {
		a.Start()
	}

	s.Runner.Register(system.NewEventDispatchSystem(s.Bus))
	s.Runner.Register(system.NewWaveSystem(s.Waves))
	s.Runner.Register(system.NewContinuationSystem(s.Scheduler))
	s.Runner.Register(s.Ledger)
	s.Runner.Register(system.NewCleanupSystem(s.World))

	for _, name := range s.order {
		p := s.pools[name]
		if p.FreeCount() != p.Size() {
			return nil, fmt.Errorf("pool %s: %d of %d objects free after setup", name, p.FreeCount(), p.Size())
		}
	}
	return s, nil
}

// placePool places a pool object and size hidden children under it. Each
// child's behavior enlists itself in the pool during Init.
func (s *Session) placePool(name string, size int, newBehavior func(ecs.EntityID) behavior.Hooks) *pool.Pool {
	origin := host.Vec3{X: float64(s.nextSlot) * 10, Y: parkingDepth}
	s.nextSlot++

	ph := s.World.Place(name, 0, origin, false)
	p := pool.New(ph, name, s.Registry, s.Log, pool.WithPolicy(s.policy))
	s.Registry.Register(ph, p)
	s.pools[name] = p
	s.order = append(s.order, name)

	for i := 0; i < size; i++ {
		h := s.World.Place(fmt.Sprintf("%s#%d", name, i), ph, origin, false)
		s.adapters = append(s.adapters, behavior.NewAdapter(newBehavior(h), s.Registry, s.Bus, s.Log))
	}
	return p
}

// Pool returns the named pool, or nil.
func (s *Session) Pool(name string) *pool.Pool { return s.pools[name] }

// PoolNames returns pool names in placement order.
func (s *Session) PoolNames() []string { return s.order }

// Tick runs one full tick of every system.
func (s *Session) Tick(dt time.Duration) { s.Runner.Tick(dt) }

// Join adds a player to the world and gives them a HUD if one is free.
func (s *Session) Join(name string, pos host.Vec3) (*host.Actor, bool) {
	a := s.World.Join(name, pos)
	return a, s.HUDs.Join(a.ID, name)
}

// Leave removes a player, returning their HUD and dropping their weapon.
func (s *Session) Leave(id host.ActorID) {
	s.HUDs.Leave(id)
	s.Scores.Forget(id)
	if s.Weapon.Holder() == id {
		s.World.Release(s.Weapon.Handle(), id)
	}
	s.World.Leave(id)
}

// Close disposes every behavior.
func (s *Session) Close() {
	for _, a := range s.adapters {
		a.Dispose()
	}
}
