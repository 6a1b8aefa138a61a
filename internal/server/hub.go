package server

import (
	"sync"

	"taskhub/internal/service"
)

// Hub fans owner-scoped snapshots out to live subscriptions. Each
// mutation of an owner's tasks publishes that owner's full result set;
// slow consumers only ever miss intermediate snapshots, never the
// latest one.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[int]chan []service.Task
	next int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan []service.Task)}
}

// Subscribe registers a snapshot channel for ownerID. The returned
// cancel is idempotent and closes the channel.
func (h *Hub) Subscribe(ownerID string) (<-chan []service.Task, func()) {
	h.mu.Lock()
	h.next++
	id := h.next
	ch := make(chan []service.Task, 1)
	if h.subs[ownerID] == nil {
		h.subs[ownerID] = make(map[int]chan []service.Task)
	}
	h.subs[ownerID][id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[ownerID], id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers snap to every subscription for ownerID. A pending
// undelivered snapshot is replaced rather than queued.
func (h *Hub) Publish(ownerID string, snap []service.Task) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[ownerID] {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// SubscriberCount reports live subscriptions for ownerID.
func (h *Hub) SubscriberCount(ownerID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[ownerID])
}
