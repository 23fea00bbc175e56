package gameplay

import (
	"testing"
	"time"

	"github.com/arenakit/arena/internal/behavior"
	"github.com/arenakit/arena/internal/core/ecs"
	"github.com/arenakit/arena/internal/data"
	"github.com/arenakit/arena/internal/host"
	"github.com/arenakit/arena/internal/persist"
	"github.com/arenakit/arena/internal/pool"
)

const lootYAML = `
tables:
  - name: common
    no_drop_chance: 0.5
    items:
      - { item: coin, weight: 3 }
      - { item: gem, weight: 1 }
  - name: empty
    no_drop_chance: 0
    items:
      - { item: coin, weight: 0 }
`

func newLoot(t *testing.T, r *rig, size int, despawn time.Duration) (*LootSpawner, map[string]*pool.Pool) {
	t.Helper()
	defs, err := data.ParseLootTables([]byte(lootYAML))
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewLootSpawner(defs, r.deps, despawn)
	if err != nil {
		t.Fatal(err)
	}
	pools := make(map[string]*pool.Pool)
	for _, item := range defs.Items() {
		p := r.pool("loot/"+item, size, func(h ecs.EntityID) behavior.Hooks {
			return NewLoot(r.deps.World, h, item, s)
		})
		s.AddPool(item, p)
		pools[item] = p
	}
	return s, pools
}

func TestLootGateAndDraw(t *testing.T) {
	r := newRig(t)
	s, pools := newLoot(t, r, 4, 0)

	// Gate below no-drop chance: nothing.
	r.deps.Rand = &fixedSource{vals: []float64{0.49}}
	if _, ok := s.Drop("common", host.Vec3{}); ok {
		t.Fatal("dropped below the no-drop chance")
	}

	// Gate passes, draw 0.7 of [0.75 coin, 0.25 gem] -> coin.
	r.deps.Rand = &fixedSource{vals: []float64{0.5, 0.7}}
	h, ok := s.Drop("common", host.Vec3{X: 4})
	if !ok || !pools["coin"].IsAllocated(h) {
		t.Fatalf("drop = %d, %v", h, ok)
	}
	if r.deps.World.Position(h) != (host.Vec3{X: 4}) || !r.deps.World.Visible(h) {
		t.Error("coin not placed at the drop point")
	}

	// Draw 0.8 -> gem.
	r.deps.Rand = &fixedSource{vals: []float64{0.9, 0.8}}
	if h, ok := s.Drop("common", host.Vec3{}); !ok || !pools["gem"].IsAllocated(h) {
		t.Error("expected gem")
	}
	if r.ledger.count(persist.KindDrop) != 2 {
		t.Errorf("drop entries = %d", r.ledger.count(persist.KindDrop))
	}
}

func TestLootDegenerateAndUnknownTables(t *testing.T) {
	r := newRig(t)
	s, _ := newLoot(t, r, 1, 0)
	if _, ok := s.Drop("empty", host.Vec3{}); ok {
		t.Error("zero-weight table dropped something")
	}
	if _, ok := s.Drop("nope", host.Vec3{}); ok {
		t.Error("unknown table dropped something")
	}
}

func TestLootExhaustedPoolSkips(t *testing.T) {
	r := newRig(t)
	s, _ := newLoot(t, r, 1, 0)
	r.deps.Rand = &fixedSource{vals: []float64{0.9, 0.1, 0.9, 0.1}}
	if _, ok := s.Drop("common", host.Vec3{}); !ok {
		t.Fatal("first drop failed")
	}
	if _, ok := s.Drop("common", host.Vec3{}); ok {
		t.Error("drop from exhausted pool succeeded")
	}
}

func TestLootDespawnRespectsReuse(t *testing.T) {
	r := newRig(t)
	s, pools := newLoot(t, r, 1, time.Second)
	coins := pools["coin"]
	r.deps.Rand = &fixedSource{vals: []float64{0.9, 0.1, 0.9, 0.1}}
	player := r.deps.World.Join("ann", host.Vec3{})

	first, _ := s.Drop("common", host.Vec3{})
	// Collected, then the same object is dropped again before the first
	// despawn timer fires.
	r.deps.World.Touch(first, player.ID)
	r.tick(400 * time.Millisecond)
	if coins.IsAllocated(first) {
		t.Fatal("pickup did not free the coin")
	}
	second, ok := s.Drop("common", host.Vec3{})
	if !ok || second != first {
		t.Fatalf("expected reuse of the same object, got %d %v", second, ok)
	}

	r.tick(700 * time.Millisecond) // first timer due
	if !coins.IsAllocated(second) {
		t.Fatal("stale despawn freed the reused object")
	}
	r.tick(time.Second) // second timer due
	if coins.IsAllocated(second) {
		t.Error("despawn did not free the object")
	}
}

func TestLootPickupScores(t *testing.T) {
	r := newRig(t)
	s, pools := newLoot(t, r, 2, 0)
	s.SetValue("gem", 5)
	player := r.deps.World.Join("ann", host.Vec3{})

	r.deps.Rand = &fixedSource{vals: []float64{0.9, 0.9}}
	gem, _ := s.Drop("common", host.Vec3{})
	r.deps.Rand = &fixedSource{vals: []float64{0.9, 0.1}}
	coin, _ := s.Drop("common", host.Vec3{})

	other := r.deps.World.Place("rock", 0, host.Vec3{}, true)
	r.deps.World.Collide(gem, other) // object contact is not a pickup
	r.deps.World.Touch(gem, player.ID)
	r.deps.World.Touch(coin, player.ID)
	r.deps.World.Touch(coin, player.ID) // already collected
	r.tick(time.Millisecond)

	st := r.deps.Scores.Stats(player.ID)
	if st.Pickups != 2 || st.Score != 6 {
		t.Errorf("stats = %+v", st)
	}
	if pools["gem"].AllocatedCount() != 0 || pools["coin"].AllocatedCount() != 0 {
		t.Error("picked up loot still allocated")
	}
	if r.ledger.count(persist.KindPickup) != 2 {
		t.Errorf("pickup entries = %d", r.ledger.count(persist.KindPickup))
	}
}

func TestLootRejectsNegativeWeights(t *testing.T) {
	r := newRig(t)
	defs, err := data.ParseLootTables([]byte(`
tables:
  - name: bad
    items:
      - { item: coin, weight: -1 }
`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewLootSpawner(defs, r.deps, 0); err == nil {
		t.Error("expected error for negative weight")
	}
}
