package system

import (
	"time"

	coresys "github.com/arenakit/arena/internal/core/system"
	"github.com/arenakit/arena/internal/host"
)

// CleanupSystem flushes queued object removals at tick end.
// Phase 4 (Cleanup).
type CleanupSystem struct {
	world *host.World
}

func NewCleanupSystem(world *host.World) *CleanupSystem {
	return &CleanupSystem{world: world}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.world.Flush()
}
