package ecs

// Removable is implemented by all component stores so Stores can drop an
// entity's data from every store when it is removed from the world.
type Removable interface {
	Remove(id EntityID)
}

// PtrComponentStore is a generic typed map store for components.
type PtrComponentStore[T any] struct {
	data map[EntityID]*T
}

func NewPtrComponentStore[T any]() *PtrComponentStore[T] {
	return &PtrComponentStore[T]{
		data: make(map[EntityID]*T, 64),
	}
}

func (s *PtrComponentStore[T]) Set(id EntityID, c *T) {
	s.data[id] = c
}

func (s *PtrComponentStore[T]) Get(id EntityID) (*T, bool) {
	c, ok := s.data[id]
	return c, ok
}

func (s *PtrComponentStore[T]) Remove(id EntityID) {
	delete(s.data, id)
}

func (s *PtrComponentStore[T]) Has(id EntityID) bool {
	_, ok := s.data[id]
	return ok
}

func (s *PtrComponentStore[T]) Len() int {
	return len(s.data)
}

func (s *PtrComponentStore[T]) Each(fn func(EntityID, *T)) {
	for id, c := range s.data {
		fn(id, c)
	}
}

// Each2 iterates over entities that have both component A and B, walking the
// smaller store and probing the larger one.
func Each2[A, B any](sa *PtrComponentStore[A], sb *PtrComponentStore[B], fn func(EntityID, *A, *B)) {
	if sa.Len() <= sb.Len() {
		for id, a := range sa.data {
			if b, ok := sb.data[id]; ok {
				fn(id, a, b)
			}
		}
		return
	}
	for id, b := range sb.data {
		if a, ok := sa.data[id]; ok {
			fn(id, a, b)
		}
	}
}

// Stores tracks every component store of a world for bulk cleanup.
type Stores struct {
	stores []Removable
}

// Track adds a component store.
func (s *Stores) Track(store Removable) {
	s.stores = append(s.stores, store)
}

// RemoveAll clears the given entity from every tracked store.
func (s *Stores) RemoveAll(id EntityID) {
	for _, st := range s.stores {
		st.Remove(id)
	}
}
