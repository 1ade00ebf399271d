package server

import (
	"sync"

	"github.com/google/uuid"

	"github.com/penwyp/go-dirac-console/internal/util"
)

const subscriberBuffer = 1024

// Hub broadcasts encoded console records to every live-stream subscriber.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]chan []byte
	dropped     int64
	closed      bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]chan []byte)}
}

// Subscribe returns the id and the buffered channel of a new subscriber.
// Each subscriber gets a copy of every frame.
func (h *Hub) Subscribe() (string, <-chan []byte) {
	id := uuid.NewString()
	ch := make(chan []byte, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return id, ch
	}
	h.subscribers[id] = ch
	util.LogDebugf("Live stream subscriber %s joined", id)
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subscribers[id]; ok {
		delete(h.subscribers, id)
		close(ch)
		util.LogDebugf("Live stream subscriber %s left", id)
	}
}

// Broadcast sends frame to all subscribers. A full subscriber misses the
// frame.
func (h *Hub) Broadcast(frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subscribers {
		select {
		case ch <- frame:
		default:
			h.dropped++
			util.LogWarnf("Dropped frame for slow subscriber %s (total dropped: %d)", id, h.dropped)
		}
	}
}

// Subscribers returns the number of live subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Dropped returns the total number of frames dropped for slow subscribers.
func (h *Hub) Dropped() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// Close closes every subscriber channel. Later subscribers get a closed
// channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
	h.closed = true
}
