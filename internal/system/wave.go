package system

import (
	"time"

	coresys "github.com/arenakit/arena/internal/core/system"
	"github.com/arenakit/arena/internal/gameplay"
)

// WaveSystem drives the wave spawner each tick. Phase 1 (Update).
type WaveSystem struct {
	spawner *gameplay.WaveSpawner
}

func NewWaveSystem(spawner *gameplay.WaveSpawner) *WaveSystem {
	return &WaveSystem{spawner: spawner}
}

func (s *WaveSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *WaveSystem) Update(dt time.Duration) {
	s.spawner.Update(dt)
}
