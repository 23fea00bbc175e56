package pool

import (
	"math/rand/v2"
	"testing"

	"github.com/arenakit/arena/internal/behavior"
	"github.com/arenakit/arena/internal/core/ecs"
	"github.com/arenakit/arena/internal/core/event"
	"github.com/arenakit/arena/internal/host"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// item is a minimal pooled behavior that counts its callbacks.
type item struct {
	behavior.Base
	Parked
	allocs int
	frees  int
}

func (i *item) OnAllocate(pos host.Vec3, rot host.Quat, owner host.ActorID) {
	i.Parked.OnAllocate(pos, rot, owner)
	i.allocs++
}

func (i *item) OnFree() {
	i.Parked.OnFree()
	i.frees++
}

type fixture struct {
	world *host.World
	reg   *behavior.Registry
	pool  *Pool
	items []*item
	logs  *observer.ObservedLogs
}

func newFixture(t *testing.T, size int, opts ...Option) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)
	w := host.NewWorld(event.NewBus(), log)
	reg := behavior.NewRegistry(log)

	origin := host.Vec3{X: 100, Y: -50}
	ph := w.Place("pool", 0, origin, false)
	p := New(ph, "test", reg, log, opts...)
	reg.Register(ph, p)

	f := &fixture{world: w, reg: reg, pool: p, logs: logs}
	for n := 0; n < size; n++ {
		h := w.Place("item", ph, origin, false)
		it := &item{Base: behavior.NewBase(h), Parked: NewParked(w, h)}
		reg.Register(h, it)
		if _, ok := it.Enlist(reg); !ok {
			t.Fatalf("item %d failed to enlist", n)
		}
		f.items = append(f.items, it)
	}
	return f
}

func (f *fixture) item(h ecs.EntityID) *item {
	for _, it := range f.items {
		if it.Handle() == h {
			return it
		}
	}
	return nil
}

func checkPartition(t *testing.T, p *Pool, size int) {
	t.Helper()
	if p.FreeCount()+p.AllocatedCount() != size {
		t.Fatalf("free %d + allocated %d != %d", p.FreeCount(), p.AllocatedCount(), size)
	}
	for h := range p.free {
		if _, dup := p.allocated[h]; dup {
			t.Fatalf("%d both free and allocated", h)
		}
	}
}

func TestPartitionUnderRandomOps(t *testing.T) {
	for _, policy := range []Policy{Unordered, LRU} {
		t.Run(policy.String(), func(t *testing.T) {
			const size = 5
			f := newFixture(t, size, WithPolicy(policy))
			rng := rand.New(rand.NewPCG(3, 4))
			var live []ecs.EntityID

			for step := 0; step < 500; step++ {
				if rng.IntN(2) == 0 {
					h, ok := f.pool.Allocate(host.Vec3{}, host.Identity, host.NoActor)
					if ok != (len(live) < size) {
						t.Fatalf("step %d: allocate ok=%v with %d live", step, ok, len(live))
					}
					if ok {
						live = append(live, h)
					}
				} else if len(live) > 0 {
					i := rng.IntN(len(live))
					if !f.pool.Free(live[i]) {
						t.Fatalf("step %d: free of allocated object failed", step)
					}
					live = append(live[:i], live[i+1:]...)
				}
				checkPartition(t, f.pool, size)
			}
		})
	}
}

func TestExhaustionDoesNotMutate(t *testing.T) {
	f := newFixture(t, 2)
	a, _ := f.pool.Allocate(host.Vec3{}, host.Identity, host.NoActor)
	b, _ := f.pool.Allocate(host.Vec3{}, host.Identity, host.NoActor)

	if h, ok := f.pool.Allocate(host.Vec3{}, host.Identity, host.NoActor); ok || h != 0 {
		t.Fatalf("exhausted allocate = %d, %v", h, ok)
	}
	if f.pool.AllocatedCount() != 2 || !f.pool.IsAllocated(a) || !f.pool.IsAllocated(b) {
		t.Error("exhausted allocate changed state")
	}
	entries := f.logs.FilterMessage("pool exhausted").All()
	if len(entries) != 1 || entries[0].Level != zapcore.ErrorLevel {
		t.Errorf("exhaustion diagnostics = %v", entries)
	}
}

func TestDoubleFreeIsNoop(t *testing.T) {
	f := newFixture(t, 1)
	h, _ := f.pool.Allocate(host.Vec3{}, host.Identity, host.NoActor)
	if !f.pool.Free(h) {
		t.Fatal("first free failed")
	}
	if f.pool.Free(h) {
		t.Fatal("second free succeeded")
	}
	if it := f.item(h); it.frees != 1 {
		t.Errorf("OnFree ran %d times", it.frees)
	}
	if f.pool.FreeCount() != 1 {
		t.Errorf("free count = %d", f.pool.FreeCount())
	}
	if f.logs.FilterMessage("free of unallocated object").Len() != 1 {
		t.Error("double free not logged")
	}
}

func TestFreeForeignHandle(t *testing.T) {
	f := newFixture(t, 1)
	if f.pool.Free(ecs.NewEntityID(77, 0)) {
		t.Error("freed a handle the pool never owned")
	}
	checkPartition(t, f.pool, 1)
}

func TestRoundTrip(t *testing.T) {
	f := newFixture(t, 1)
	const player host.ActorID = 7
	pos := host.Vec3{X: 1, Y: 2, Z: 3}
	rot := host.Quat{Y: 1}

	h, ok := f.pool.Allocate(pos, rot, player)
	if !ok {
		t.Fatal("allocate failed")
	}
	w := f.world
	if w.Position(h) != pos || w.Rotation(h) != rot || !w.Visible(h) || w.Owner(h) != player {
		t.Fatalf("allocated state: pos %+v rot %+v visible %v owner %d",
			w.Position(h), w.Rotation(h), w.Visible(h), w.Owner(h))
	}

	f.pool.Free(h)
	parked, _ := f.item(h).ParkedAt()
	if w.Position(h) != parked || w.Rotation(h) != host.Identity || w.Visible(h) || w.Owner(h) != host.ServerActor {
		t.Errorf("freed state: pos %+v rot %+v visible %v owner %d",
			w.Position(h), w.Rotation(h), w.Visible(h), w.Owner(h))
	}

	const other host.ActorID = 8
	pos2 := host.Vec3{X: -4, Y: 0.5, Z: 9}
	rot2 := host.Quat{X: 1}
	h2, ok := f.pool.Allocate(pos2, rot2, other)
	if !ok {
		t.Fatal("second allocate failed")
	}
	if h2 != h {
		t.Fatalf("single-object pool returned %v, want %v", h2, h)
	}
	if w.Position(h2) != pos2 || w.Rotation(h2) != rot2 || !w.Visible(h2) || w.Owner(h2) != other {
		t.Errorf("reallocated state: pos %+v rot %+v visible %v owner %d",
			w.Position(h2), w.Rotation(h2), w.Visible(h2), w.Owner(h2))
	}
	if it := f.item(h2); it.allocs != 2 || it.frees != 1 {
		t.Errorf("callbacks: %d allocs, %d frees", it.allocs, it.frees)
	}
	checkPartition(t, f.pool, 1)
}

func TestNoActorKeepsOwner(t *testing.T) {
	f := newFixture(t, 1)
	h, _ := f.pool.Allocate(host.Vec3{}, host.Identity, host.NoActor)
	if f.world.Owner(h) != host.ServerActor {
		t.Errorf("owner = %d, want server", f.world.Owner(h))
	}
}

func TestLRUOrder(t *testing.T) {
	f := newFixture(t, 3, WithPolicy(LRU))
	var got []ecs.EntityID
	for i := 0; i < 3; i++ {
		h, _ := f.pool.Allocate(host.Vec3{}, host.Identity, host.NoActor)
		got = append(got, h)
	}
	f.pool.Free(got[2])
	f.pool.Free(got[0])

	h, _ := f.pool.Allocate(host.Vec3{}, host.Identity, host.NoActor)
	if h != got[2] {
		t.Errorf("LRU handed out %d, want longest-free %d", h, got[2])
	}
	h, _ = f.pool.Allocate(host.Vec3{}, host.Identity, host.NoActor)
	if h != got[0] {
		t.Errorf("LRU handed out %d, want %d", h, got[0])
	}
}

func TestLeaseInvalidatedByReuse(t *testing.T) {
	f := newFixture(t, 1)
	h, _ := f.pool.Allocate(host.Vec3{}, host.Identity, host.NoActor)
	lease, ok := f.pool.Lease(h)
	if !ok || !f.pool.Valid(lease) {
		t.Fatal("fresh lease invalid")
	}
	f.pool.Free(h)
	if f.pool.Valid(lease) {
		t.Error("lease valid after free")
	}
	f.pool.Allocate(host.Vec3{}, host.Identity, host.NoActor)
	if f.pool.Valid(lease) {
		t.Error("old lease valid for the object's next allocation")
	}
	if _, ok := f.pool.Lease(ecs.NewEntityID(99, 0)); ok {
		t.Error("lease for unknown handle")
	}
}

func TestAllocateWithoutAllocatable(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)
	reg := behavior.NewRegistry(log)
	p := New(ecs.NewEntityID(1, 0), "bare", reg, log)
	p.AddEntity(ecs.NewEntityID(2, 0))

	h, ok := p.Allocate(host.Vec3{}, host.Identity, host.NoActor)
	if !ok || !p.IsAllocated(h) {
		t.Fatal("allocate failed")
	}
	if logs.FilterMessage("allocated object has no allocatable behavior").Len() != 1 {
		t.Error("missing behavior not logged")
	}
}

func TestAddEntity(t *testing.T) {
	f := newFixture(t, 2)
	if f.pool.AddEntity(f.items[0].Handle()) {
		t.Error("duplicate add accepted")
	}
	if f.pool.AddEntity(0) {
		t.Error("null handle accepted")
	}
	if f.pool.Size() != 2 {
		t.Errorf("size = %d", f.pool.Size())
	}
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]Policy{"": Unordered, "unordered": Unordered, "lru": LRU} {
		got, err := ParsePolicy(in)
		if err != nil || got != want {
			t.Errorf("ParsePolicy(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParsePolicy("fifo"); err == nil {
		t.Error("expected error")
	}
}
