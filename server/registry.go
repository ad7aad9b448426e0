package server

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// ConnectionRegistry is the set of open subscriber handles. ForEach works on a snapshot
// so visitors never run under the lock, and a handle whose removal has completed is skipped.
type ConnectionRegistry[T comparable] struct {
	mutex   sync.RWMutex
	members map[T]struct{}
	order   []T
}

func NewConnectionRegistry[T comparable]() *ConnectionRegistry[T] {
	return &ConnectionRegistry[T]{
		members: make(map[T]struct{}),
		order:   make([]T, 0),
	}
}

func (r *ConnectionRegistry[T]) Add(handle T) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.members[handle]; ok {
		return
	}
	r.members[handle] = struct{}{}
	r.order = append(r.order, handle)
}

func (r *ConnectionRegistry[T]) Remove(handle T) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.members[handle]; !ok {
		return false
	}
	delete(r.members, handle)
	r.order = lo.Without(r.order, handle)
	return true
}

func (r *ConnectionRegistry[T]) Contains(handle T) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	_, ok := r.members[handle]
	return ok
}

func (r *ConnectionRegistry[T]) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.members)
}

// ForEach calls fn once per registered handle in insertion order. A handle for which fn
// returns an error is considered dead and removed. Returns the number of removed handles.
func (r *ConnectionRegistry[T]) ForEach(fn func(handle T) error) int {
	pruned := 0
	for _, handle := range r.snapshot() {
		if !r.Contains(handle) {
			continue
		}
		if err := fn(handle); err != nil {
			log.Trace().Err(err).Msg("Pruning dead handle from registry")
			if r.Remove(handle) {
				pruned++
			}
		}
	}
	return pruned
}

func (r *ConnectionRegistry[T]) snapshot() []T {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	handles := make([]T, len(r.order))
	copy(handles, r.order)
	return handles
}
