package system

import (
	"context"
	"time"

	coresys "github.com/arenakit/arena/internal/core/system"
	"github.com/arenakit/arena/internal/persist"
	"go.uber.org/zap"
)

// LedgerWriter persists a batch of ledger entries atomically.
type LedgerWriter interface {
	WriteBatch(ctx context.Context, entries []persist.LedgerEntry) error
}

// LedgerSystem buffers ledger entries recorded during gameplay and writes
// them every flushEvery ticks. Phase 3 (Persist).
//
// A failed write keeps the batch for the next flush. Once maxBuffered is
// reached the oldest entries are dropped. Without a writer entries are only
// counted.
type LedgerSystem struct {
	writer      LedgerWriter
	log         *zap.Logger
	flushEvery  int
	maxBuffered int
	timeout     time.Duration
	buf         []persist.LedgerEntry
	counter     int
	counts      map[string]int
	dropped     int
	now         func() time.Time
}

func NewLedgerSystem(writer LedgerWriter, flushEvery, maxBuffered int, timeout time.Duration, log *zap.Logger) *LedgerSystem {
	if flushEvery <= 0 {
		flushEvery = 1
	}
	return &LedgerSystem{
		writer:      writer,
		log:         log,
		flushEvery:  flushEvery,
		maxBuffered: maxBuffered,
		timeout:     timeout,
		buf:         make([]persist.LedgerEntry, 0, 64),
		counts:      make(map[string]int),
		now:         time.Now,
	}
}

func (s *LedgerSystem) Phase() coresys.Phase { return coresys.PhasePersist }

// Record implements gameplay.Recorder.
func (s *LedgerSystem) Record(e persist.LedgerEntry) {
	s.counts[e.Kind]++
	if s.writer == nil {
		return
	}
	if e.At.IsZero() {
		e.At = s.now()
	}
	if s.maxBuffered > 0 && len(s.buf) >= s.maxBuffered {
		s.buf = s.buf[1:]
		s.dropped++
	}
	s.buf = append(s.buf, e)
}

func (s *LedgerSystem) Update(_ time.Duration) {
	s.counter++
	if s.counter < s.flushEvery {
		return
	}
	s.counter = 0
	s.Flush(context.Background())
}

// Flush writes everything buffered now.
func (s *LedgerSystem) Flush(ctx context.Context) error {
	if s.writer == nil || len(s.buf) == 0 {
		return nil
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := s.writer.WriteBatch(ctx, s.buf); err != nil {
		s.log.Error("ledger flush failed", zap.Int("entries", len(s.buf)), zap.Error(err))
		return err
	}
	s.log.Debug("ledger flushed", zap.Int("entries", len(s.buf)))
	s.buf = s.buf[:0]
	return nil
}

// Count returns how many entries of kind were recorded this session.
func (s *LedgerSystem) Count(kind string) int { return s.counts[kind] }

// Buffered returns the number of entries waiting to be written.
func (s *LedgerSystem) Buffered() int { return len(s.buf) }

// Dropped returns how many entries were discarded because the buffer was full.
func (s *LedgerSystem) Dropped() int { return s.dropped }
