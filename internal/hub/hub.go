package hub

import (
	"sync"
	"sync/atomic"

	"github.com/admbahm/devinsight/internal/model"
)

const subscriberBuffer = 1024

// Hub fans parsed log entries out from the single ingestion producer to
// any number of display consumers. Publish never blocks: a subscriber
// whose buffer is full, or that has gone away entirely, just misses
// entries. Each live subscriber sees entries in publish order.
type Hub struct {
	mu      sync.RWMutex
	subs    []chan model.LogEntry
	closed  bool
	dropped atomic.Int64
}

// New creates an empty Hub.
func New() *Hub {
	return &Hub{}
}

// Subscribe returns a buffered channel that receives published entries.
// The channel is closed when the Hub is closed.
func (h *Hub) Subscribe() <-chan model.LogEntry {
	ch := make(chan model.LogEntry, subscriberBuffer)
	h.mu.Lock()
	if h.closed {
		close(ch)
	} else {
		h.subs = append(h.subs, ch)
	}
	h.mu.Unlock()
	return ch
}

// Publish delivers an entry to every subscriber without ever waiting.
// With no subscribers it is a no-op.
func (h *Hub) Publish(entry model.LogEntry) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}
	for _, ch := range h.subs {
		select {
		case ch <- entry:
		default:
			h.dropped.Add(1)
		}
	}
}

// Dropped returns the total number of entries dropped across all slow
// consumers.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Close closes every subscriber channel. Publish becomes a no-op.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for _, ch := range h.subs {
		close(ch)
	}
	h.subs = nil
}
