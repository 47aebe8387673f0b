package gateway

import "sync"

// Hub is an in-process EventSource. The rpc Conn publishes decoded
// notifications through one, and the demo backend emits its own events on
// one directly.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

// NewHub creates an empty event hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]func(Event))}
}

// Subscribe registers a handler and returns its cancel function. A nil hub
// accepts the subscription and never delivers; callers that thread an
// optional *Hub through the EventSource interface get a quiet channel, not
// a crash.
func (h *Hub) Subscribe(fn func(Event)) (cancel func()) {
	if h == nil {
		return func() {}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	h.subs[id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
	}
}

// Publish delivers ev to all current subscribers.
func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}

	h.mu.Lock()
	handlers := make([]func(Event), 0, len(h.subs))
	for _, fn := range h.subs {
		handlers = append(handlers, fn)
	}
	h.mu.Unlock()

	for _, fn := range handlers {
		fn(ev)
	}
}
