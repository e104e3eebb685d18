// Package notifier fans outbound surface messages out to SSE streams.
package notifier

import (
	"sync"

	"github.com/leapstack-labs/mdtables/internal/transport"
)

// BufferSize is the per-listener queue length.
const BufferSize = 16

// Hub broadcasts messages to every listener subscribed to a document URI.
type Hub struct {
	mu        sync.RWMutex
	listeners map[string]map[chan transport.Outbound]struct{}
}

// New creates a new Hub instance.
func New() *Hub {
	return &Hub{
		listeners: make(map[string]map[chan transport.Outbound]struct{}),
	}
}

// Subscribe returns a channel that receives messages for uri.
// The caller must call Unsubscribe when done to prevent goroutine leaks.
func (h *Hub) Subscribe(uri string) chan transport.Outbound {
	ch := make(chan transport.Outbound, BufferSize)
	h.mu.Lock()
	set, ok := h.listeners[uri]
	if !ok {
		set = make(map[chan transport.Outbound]struct{})
		h.listeners[uri] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (h *Hub) Unsubscribe(uri string, ch chan transport.Outbound) {
	h.mu.Lock()
	if set, ok := h.listeners[uri]; ok {
		delete(set, ch)
		if len(set) == 0 {
			delete(h.listeners, uri)
		}
	}
	h.mu.Unlock()
	close(ch)
}

// Broadcast sends msg to all listeners of uri.
// Non-blocking: if a listener's channel is full, the message is dropped for
// that listener.
func (h *Hub) Broadcast(uri string, msg transport.Outbound) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.listeners[uri] {
		select {
		case ch <- msg:
		default:
			// Channel full, the next updateTableData carries the full state
		}
	}
}

// Listeners returns the number of listeners of uri.
func (h *Hub) Listeners(uri string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners[uri])
}
