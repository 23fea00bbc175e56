package ecs

// World owns the handle allocator, the component stores, and a deferred
// removal queue flushed at the end of each tick. Pooled objects are placed
// once and never go through the removal queue; it only serves objects the
// host spawns and deletes dynamically.
type World struct {
	pool         *EntityPool
	stores       Stores
	destroyQueue []EntityID
}

func NewWorld() *World {
	return &World{
		pool:         NewEntityPool(),
		destroyQueue: make([]EntityID, 0, 16),
	}
}

func (w *World) Stores() *Stores { return &w.stores }

func (w *World) CreateEntity() EntityID {
	return w.pool.Create()
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

func (w *World) Count() int {
	return w.pool.Count()
}

// MarkForDestruction queues an entity for end-of-tick removal.
func (w *World) MarkForDestruction(id EntityID) {
	w.destroyQueue = append(w.destroyQueue, id)
}

// FlushDestroyQueue removes all queued entities and clears their components.
func (w *World) FlushDestroyQueue() int {
	n := 0
	for _, id := range w.destroyQueue {
		if !w.pool.Alive(id) {
			continue
		}
		w.stores.RemoveAll(id)
		w.pool.Destroy(id)
		n++
	}
	w.destroyQueue = w.destroyQueue[:0]
	return n
}
