// Package behavior resolves "which script is on this object" for callers that
// only hold a handle, and adapts host lifecycle callbacks into hooks.
package behavior

import (
	"fmt"

	"github.com/arenakit/arena/internal/core/ecs"
	"go.uber.org/zap"
)

// Behavior is the scripted logic attached to a placed object.
type Behavior interface {
	Handle() ecs.EntityID
}

// Registry maps a handle to the behavior attached to it. One entry per
// handle, last registration wins. Entries live as long as the session
// unless their object is removed from the host.
// It is owned by the session root and passed to whoever needs lookups.
type Registry struct {
	entries map[ecs.EntityID]Behavior
	log     *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		entries: make(map[ecs.EntityID]Behavior, 64),
		log:     log,
	}
}

// Register attaches b to h, replacing any previous behavior.
func (r *Registry) Register(h ecs.EntityID, b Behavior) {
	if prev, ok := r.entries[h]; ok && prev != b {
		r.log.Debug("behavior replaced",
			zap.Uint64("handle", uint64(h)),
			zap.String("old", typeName(prev)),
			zap.String("new", typeName(b)),
		)
	}
	r.entries[h] = b
}

// Lookup returns the behavior registered for h. A null handle or a handle
// with no registration yields (nil, false) plus a diagnostic.
func (r *Registry) Lookup(h ecs.EntityID) (Behavior, bool) {
	if h.IsZero() {
		r.log.Warn("behavior lookup with null handle")
		return nil, false
	}
	b, ok := r.entries[h]
	if !ok {
		r.log.Debug("no behavior registered", zap.Uint64("handle", uint64(h)))
		return nil, false
	}
	return b, true
}

// Remove drops the entry for h. Used when the object itself is deleted.
func (r *Registry) Remove(h ecs.EntityID) {
	delete(r.entries, h)
}

// Len returns the number of registered handles.
func (r *Registry) Len() int { return len(r.entries) }

// As resolves the behavior on h and checks it offers capability T. A
// behavior that exists but lacks T is reported as missing.
func As[T any](r *Registry, h ecs.EntityID) (T, bool) {
	var zero T
	b, ok := r.Lookup(h)
	if !ok {
		return zero, false
	}
	c, ok := b.(T)
	if !ok {
		r.log.Debug("behavior lacks capability",
			zap.Uint64("handle", uint64(h)),
			zap.String("behavior", typeName(b)),
			zap.String("want", fmt.Sprintf("%T", (*T)(nil))[1:]),
		)
		return zero, false
	}
	return c, true
}

func typeName(b Behavior) string {
	return fmt.Sprintf("%T", b)
}
