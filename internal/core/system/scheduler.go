package system

import (
	"sort"
	"time"
)

// Scheduler runs delayed continuations on the game loop. A continuation runs
// on the first tick at which the accumulated game time reaches its deadline;
// other ticks and events may run in between, so a continuation must
// re-validate whatever state it captured. There is no cancellation.
type Scheduler struct {
	now     time.Duration
	seq     uint64
	pending []scheduled
}

type scheduled struct {
	at  time.Duration
	seq uint64
	fn  func()
}

func NewScheduler() *Scheduler {
	return &Scheduler{pending: make([]scheduled, 0, 16)}
}

// After schedules fn to run once delay of game time has elapsed.
func (s *Scheduler) After(delay time.Duration, fn func()) {
	if delay < 0 {
		delay = 0
	}
	s.seq++
	s.pending = append(s.pending, scheduled{at: s.now + delay, seq: s.seq, fn: fn})
}

// Advance moves game time forward by dt and runs every due continuation in
// deadline order (ties in scheduling order). Continuations scheduled while
// running wait for a later Advance even when their delay is zero.
func (s *Scheduler) Advance(dt time.Duration) int {
	s.now += dt
	var due []scheduled
	keep := s.pending[:0]
	for _, p := range s.pending {
		if p.at <= s.now {
			due = append(due, p)
		} else {
			keep = append(keep, p)
		}
	}
	s.pending = keep
	sort.Slice(due, func(i, j int) bool {
		if due[i].at != due[j].at {
			return due[i].at < due[j].at
		}
		return due[i].seq < due[j].seq
	})
	for _, p := range due {
		p.fn()
	}
	return len(due)
}

// Now returns the accumulated game time.
func (s *Scheduler) Now() time.Duration { return s.now }

// Pending returns the number of continuations not yet run.
func (s *Scheduler) Pending() int { return len(s.pending) }
