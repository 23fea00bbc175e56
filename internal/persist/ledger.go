package persist

import (
	"context"
	"fmt"
	"time"
)

// Ledger entry kinds.
const (
	KindSpawn  = "spawn"
	KindDrop   = "drop"
	KindPickup = "pickup"
	KindKill   = "kill"
)

// LedgerEntry records one pooled-object event worth keeping after the
// session: an enemy spawned, loot dropped or picked up, a kill.
type LedgerEntry struct {
	Kind  string
	Pool  string
	Item  string
	Actor uint32
	Wave  int
	X     float64
	Y     float64
	Z     float64
	At    time.Time
}

type LedgerRepo struct {
	db *DB
}

func NewLedgerRepo(db *DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

// WriteBatch writes entries in a single transaction. On error nothing is
// written and the caller keeps the batch.
func (r *LedgerRepo) WriteBatch(ctx context.Context, entries []LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ledger begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		at := e.At
		if at.IsZero() {
			at = time.Now()
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO arena_ledger (kind, pool, item, actor_id, wave, x, y, z, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			e.Kind, e.Pool, e.Item, int32(e.Actor), e.Wave, e.X, e.Y, e.Z, at,
		); err != nil {
			return fmt.Errorf("ledger insert: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ledger commit: %w", err)
	}
	return nil
}

// CountByKind returns how many entries of each kind have been recorded.
func (r *LedgerRepo) CountByKind(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT kind, COUNT(*) FROM arena_ledger GROUP BY kind`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		out[kind] = n
	}
	return out, rows.Err()
}
