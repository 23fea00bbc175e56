package pool

import (
	"testing"

	"github.com/arenakit/arena/internal/behavior"
	"github.com/arenakit/arena/internal/core/event"
	"github.com/arenakit/arena/internal/host"
	"go.uber.org/zap"
)

func TestEnlistCapturesPoolPosition(t *testing.T) {
	f := newFixture(t, 1)
	at, ok := f.items[0].ParkedAt()
	if !ok || at != (host.Vec3{X: 100, Y: -50}) {
		t.Errorf("parked at %+v, %v", at, ok)
	}
	if f.items[0].Pool() != f.pool {
		t.Error("item enlisted in the wrong pool")
	}

	// Moving the pool later does not move the parked position.
	f.world.SetPosition(f.pool.Handle(), host.Vec3{})
	p, _ := f.items[0].Enlist(f.reg)
	if p != f.pool {
		t.Error("re-enlist returned another pool")
	}
	if at, _ := f.items[0].ParkedAt(); at != (host.Vec3{X: 100, Y: -50}) {
		t.Errorf("parked position refreshed to %+v", at)
	}
}

func TestEnlistWithoutPoolParent(t *testing.T) {
	w := host.NewWorld(event.NewBus(), zap.NewNop())
	reg := behavior.NewRegistry(zap.NewNop())
	h := w.Place("orphan", 0, host.Vec3{}, false)
	p := NewParked(w, h)
	if _, ok := p.Enlist(reg); ok {
		t.Error("enlisted without a pool parent")
	}
	if p.Release() {
		t.Error("release without a pool succeeded")
	}
}

func TestReleaseFreesThroughPool(t *testing.T) {
	f := newFixture(t, 1)
	h, _ := f.pool.Allocate(host.Vec3{X: 5}, host.Identity, 9)
	it := f.item(h)
	if !it.Release() {
		t.Fatal("release failed")
	}
	if f.pool.IsAllocated(h) || it.frees != 1 {
		t.Errorf("allocated %v frees %d", f.pool.IsAllocated(h), it.frees)
	}
}

func TestOnFreeWithoutAllocate(t *testing.T) {
	f := newFixture(t, 1)
	it := f.items[0]
	it.Parked.OnFree()
	h := it.Handle()
	if f.world.Visible(h) || f.world.Owner(h) != host.ServerActor {
		t.Error("OnFree on a never-allocated object left it visible or owned")
	}
}
