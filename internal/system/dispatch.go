package system

import (
	"time"

	"github.com/arenakit/arena/internal/core/event"
	coresys "github.com/arenakit/arena/internal/core/system"
	"github.com/arenakit/arena/internal/host"
)

// EventDispatchSystem raises the per-tick update callback and delivers the
// input and collision callbacks queued since the previous tick.
// Phase 0 (Dispatch).
type EventDispatchSystem struct {
	bus  *event.Bus
	tick uint64
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhaseDispatch }

func (s *EventDispatchSystem) Update(dt time.Duration) {
	s.tick++
	event.Emit(s.bus, 0, host.TickEvent{Tick: s.tick, Dt: dt})
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}

// Tick returns the number of the last dispatched tick.
func (s *EventDispatchSystem) Tick() uint64 { return s.tick }
