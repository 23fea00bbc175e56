// Package pool recycles a fixed set of pre-placed objects instead of spawning
// and deleting them.
package pool

import (
	"fmt"
	"sort"

	"github.com/arenakit/arena/internal/behavior"
	"github.com/arenakit/arena/internal/core/ecs"
	"github.com/arenakit/arena/internal/host"
	"go.uber.org/zap"
)

// Allocatable is implemented by the behavior of every pooled object.
//
// OnAllocate makes the object visible at pos/rot and, when owner is not
// host.NoActor, hands authority to owner. It must not assume a prior OnFree.
// OnFree hides the object, returns it to its parked position and gives
// authority back to host.ServerActor. It must tolerate a missing OnAllocate.
type Allocatable interface {
	OnAllocate(pos host.Vec3, rot host.Quat, owner host.ActorID)
	OnFree()
}

// Policy chooses which free object Allocate hands out.
type Policy uint8

const (
	// Unordered hands out an arbitrary free object. No reuse order is
	// guaranteed and callers must not depend on one.
	Unordered Policy = iota
	// LRU hands out the object that has been free the longest.
	LRU
)

func (p Policy) String() string {
	if p == LRU {
		return "lru"
	}
	return "unordered"
}

// ParsePolicy maps a config value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "unordered":
		return Unordered, nil
	case "lru":
		return LRU, nil
	}
	return Unordered, fmt.Errorf("unknown pool policy %q", s)
}

// Lease identifies one specific allocation of an object. A deferred
// continuation holding a lease can tell whether the object it captured has
// since been freed or handed to someone else.
type Lease struct {
	Handle ecs.EntityID
	Epoch  uint64
}

// Pool partitions its objects into free and allocated. Every object ever
// added is in exactly one of the two sets. A Pool is also the behavior of
// its own placed object, so pooled children find it through the registry.
type Pool struct {
	handle    ecs.EntityID
	name      string
	reg       *behavior.Registry
	log       *zap.Logger
	policy    Policy
	free      map[ecs.EntityID]struct{}
	order     []ecs.EntityID // free handles, longest-free first (LRU only)
	allocated map[ecs.EntityID]uint64
	epoch     uint64
}

type Option func(*Pool)

func WithPolicy(p Policy) Option {
	return func(pl *Pool) { pl.policy = p }
}

func New(handle ecs.EntityID, name string, reg *behavior.Registry, log *zap.Logger, opts ...Option) *Pool {
	p := &Pool{
		handle:    handle,
		name:      name,
		reg:       reg,
		log:       log.With(zap.String("pool", name)),
		free:      make(map[ecs.EntityID]struct{}),
		allocated: make(map[ecs.EntityID]uint64),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Pool) Handle() ecs.EntityID { return p.handle }
func (p *Pool) Name() string         { return p.name }
func (p *Pool) Policy() Policy       { return p.policy }

// AddEntity puts h into the free set unless the pool already tracks it.
func (p *Pool) AddEntity(h ecs.EntityID) bool {
	if h.IsZero() {
		p.log.Warn("pool add with null handle")
		return false
	}
	if p.Has(h) {
		return false
	}
	p.free[h] = struct{}{}
	if p.policy == LRU {
		p.order = append(p.order, h)
	}
	return true
}

// Allocate takes a free object, marks it allocated and calls its OnAllocate.
// An exhausted pool logs an error and returns false without changing state;
// the caller decides whether to skip the spawn or fall back.
func (p *Pool) Allocate(pos host.Vec3, rot host.Quat, owner host.ActorID) (ecs.EntityID, bool) {
	h, ok := p.take()
	if !ok {
		p.log.Error("pool exhausted", zap.Int("size", p.Size()))
		return 0, false
	}
	p.epoch++
	p.allocated[h] = p.epoch

	if a, ok := behavior.As[Allocatable](p.reg, h); ok {
		a.OnAllocate(pos, rot, owner)
	} else {
		p.log.Warn("allocated object has no allocatable behavior", zap.Uint64("handle", uint64(h)))
	}
	return h, true
}

// Free returns an allocated object to the free set and calls its OnFree.
// Freeing an object that is not allocated is a logged no-op.
func (p *Pool) Free(h ecs.EntityID) bool {
	if _, ok := p.allocated[h]; !ok {
		p.log.Warn("free of unallocated object", zap.Uint64("handle", uint64(h)))
		return false
	}
	delete(p.allocated, h)
	p.free[h] = struct{}{}
	if p.policy == LRU {
		p.order = append(p.order, h)
	}

	if a, ok := behavior.As[Allocatable](p.reg, h); ok {
		a.OnFree()
	}
	return true
}

// Has reports whether h belongs to this pool.
func (p *Pool) Has(h ecs.EntityID) bool {
	if _, ok := p.free[h]; ok {
		return true
	}
	_, ok := p.allocated[h]
	return ok
}

func (p *Pool) IsAllocated(h ecs.EntityID) bool {
	_, ok := p.allocated[h]
	return ok
}

func (p *Pool) FreeCount() int      { return len(p.free) }
func (p *Pool) AllocatedCount() int { return len(p.allocated) }
func (p *Pool) Size() int           { return len(p.free) + len(p.allocated) }

// Allocated returns the allocated handles in index order.
func (p *Pool) Allocated() []ecs.EntityID {
	out := make([]ecs.EntityID, 0, len(p.allocated))
	for h := range p.allocated {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Lease returns the current allocation of h.
func (p *Pool) Lease(h ecs.EntityID) (Lease, bool) {
	e, ok := p.allocated[h]
	if !ok {
		return Lease{}, false
	}
	return Lease{Handle: h, Epoch: e}, true
}

// Valid reports whether l is still the live allocation of its object.
func (p *Pool) Valid(l Lease) bool {
	e, ok := p.allocated[l.Handle]
	return ok && e == l.Epoch
}

func (p *Pool) take() (ecs.EntityID, bool) {
	if len(p.free) == 0 {
		return 0, false
	}
	if p.policy == LRU {
		h := p.order[0]
		p.order = p.order[1:]
		delete(p.free, h)
		return h, true
	}
	for h := range p.free {
		delete(p.free, h)
		return h, true
	}
	return 0, false
}
