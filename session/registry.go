package session

import (
	"sync"

	"github.com/google/uuid"
)

// registry fans views out to subscribers in subscription order. Each
// subscriber channel holds one view; a newer view replaces an unread one.
type registry struct {
	mu     sync.RWMutex
	subs   map[string]chan View
	order  []string
	latest View
	closed bool
}

func newRegistry(initial View) *registry {
	return &registry{
		subs:   make(map[string]chan View),
		order:  make([]string, 0),
		latest: initial,
	}
}

// add registers a subscriber and hands it the latest view immediately.
func (r *registry) add() (string, <-chan View) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan View, 1)
	if r.closed {
		close(ch)
		return id, ch
	}
	ch <- r.latest.clone()

	r.subs[id] = ch
	r.order = append(r.order, id)
	return id, ch
}

func (r *registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, exists := r.subs[id]
	if !exists {
		return
	}
	close(ch)
	delete(r.subs, id)
	for i, sid := range r.order {
		if sid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *registry) publish(v View) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.latest = v
	for _, id := range r.order {
		ch := r.subs[id]
		// Only subscribers take from ch, so after draining there is room.
		select {
		case <-ch:
		default:
		}
		ch <- v.clone()
	}
}

func (r *registry) snapshot() View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest.clone()
}

func (r *registry) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.order {
		close(r.subs[id])
		delete(r.subs, id)
	}
	r.order = r.order[:0]
	r.closed = true
}

func (r *registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
