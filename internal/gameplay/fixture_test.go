package gameplay

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/arenakit/arena/internal/behavior"
	"github.com/arenakit/arena/internal/core/ecs"
	"github.com/arenakit/arena/internal/core/event"
	coresys "github.com/arenakit/arena/internal/core/system"
	"github.com/arenakit/arena/internal/host"
	"github.com/arenakit/arena/internal/persist"
	"github.com/arenakit/arena/internal/pool"
	"go.uber.org/zap"
)

type memLedger struct {
	entries []persist.LedgerEntry
}

func (m *memLedger) Record(e persist.LedgerEntry) { m.entries = append(m.entries, e) }

func (m *memLedger) count(kind string) int {
	n := 0
	for _, e := range m.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// fixedSource replays values, then repeats the last one.
type fixedSource struct {
	vals []float64
	i    int
}

func (f *fixedSource) Float64() float64 {
	v := f.vals[f.i]
	if f.i < len(f.vals)-1 {
		f.i++
	}
	return v
}

type rig struct {
	t        *testing.T
	bus      *event.Bus
	deps     *Deps
	ledger   *memLedger
	adapters []*behavior.Adapter
	slot     int
}

func newRig(t *testing.T) *rig {
	t.Helper()
	log := zap.NewNop()
	bus := event.NewBus()
	led := &memLedger{}
	return &rig{
		t:      t,
		bus:    bus,
		ledger: led,
		deps: &Deps{
			World:     host.NewWorld(bus, log),
			Registry:  behavior.NewRegistry(log),
			Scheduler: coresys.NewScheduler(),
			Ledger:    led,
			Scores:    NewScoreboard(),
			Rand:      rand.New(rand.NewPCG(5, 6)),
			Log:       log,
		},
	}
}

// pool places a pool and size children and starts their behaviors.
func (r *rig) pool(name string, size int, mk func(ecs.EntityID) behavior.Hooks) *pool.Pool {
	r.t.Helper()
	w := r.deps.World
	origin := host.Vec3{X: float64(r.slot) * 10, Y: -100}
	r.slot++
	ph := w.Place(name, 0, origin, false)
	p := pool.New(ph, name, r.deps.Registry, r.deps.Log)
	r.deps.Registry.Register(ph, p)
	for i := 0; i < size; i++ {
		h := w.Place(name, ph, origin, false)
		r.start(mk(h))
	}
	if p.FreeCount() != size {
		r.t.Fatalf("pool %s: %d of %d enlisted", name, p.FreeCount(), size)
	}
	return p
}

func (r *rig) start(h behavior.Hooks) *behavior.Adapter {
	a := behavior.NewAdapter(h, r.deps.Registry, r.bus, r.deps.Log)
	a.Init()
	a.Start()
	r.adapters = append(r.adapters, a)
	return a
}

// tick delivers queued callbacks plus one update, then runs due
// continuations.
func (r *rig) tick(dt time.Duration) {
	event.Emit(r.bus, 0, host.TickEvent{Dt: dt})
	r.bus.SwapBuffers()
	r.bus.DispatchAll()
	r.deps.Scheduler.Advance(dt)
}
