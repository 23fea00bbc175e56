package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseDispatch   Phase = iota // 0: swap event buffers, deliver host callbacks
	PhaseUpdate                  // 1: game-mode logic (waves, spawners)
	PhasePostUpdate              // 2: delayed continuations
	PhasePersist                 // 3: ledger flush
	PhaseCleanup                 // 4: remove queued entities
)

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
