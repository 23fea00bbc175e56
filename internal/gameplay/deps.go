// Package gameplay holds the sample game-mode features built on the pooling
// core: player HUDs, loot drops, enemy waves, weapons and scores.
package gameplay

import (
	"github.com/arenakit/arena/internal/behavior"
	coresys "github.com/arenakit/arena/internal/core/system"
	"github.com/arenakit/arena/internal/host"
	"github.com/arenakit/arena/internal/persist"
	"github.com/arenakit/arena/internal/weighted"
	"go.uber.org/zap"
)

// Recorder receives ledger entries. The ledger system buffers and persists
// them; tests collect them in memory.
type Recorder interface {
	Record(e persist.LedgerEntry)
}

// Deps holds shared dependencies injected into every feature.
type Deps struct {
	World     *host.World
	Registry  *behavior.Registry
	Scheduler *coresys.Scheduler
	Ledger    Recorder
	Scores    *Scoreboard
	Rand      weighted.Source
	Log       *zap.Logger
}

func (d *Deps) record(e persist.LedgerEntry) {
	if d.Ledger != nil {
		d.Ledger.Record(e)
	}
}

func entryAt(kind, poolName, item string, actor host.ActorID, pos host.Vec3) persist.LedgerEntry {
	return persist.LedgerEntry{
		Kind:  kind,
		Pool:  poolName,
		Item:  item,
		Actor: uint32(actor),
		X:     pos.X,
		Y:     pos.Y,
		Z:     pos.Z,
	}
}
