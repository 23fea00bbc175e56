package system

import (
	"time"

	coresys "github.com/arenakit/arena/internal/core/system"
)

// ContinuationSystem advances game time for delayed continuations.
// Phase 2 (PostUpdate).
type ContinuationSystem struct {
	sched *coresys.Scheduler
}

func NewContinuationSystem(sched *coresys.Scheduler) *ContinuationSystem {
	return &ContinuationSystem{sched: sched}
}

func (s *ContinuationSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *ContinuationSystem) Update(dt time.Duration) {
	s.sched.Advance(dt)
}
