package obs

import (
	"encoding/json"
	"sync"
)

// EventHandler receives the raw JSON of one event.
type EventHandler func(data json.RawMessage)

type subscription struct {
	eventType string
	handler   EventHandler
}

// Hub keeps the event subscriptions registered on a session. Subscriptions
// belong to the hub, not to a connection, so they survive reconnects.
type Hub struct {
	mu       sync.RWMutex
	handlers map[string]map[*subscription]bool // eventType -> subscriptions
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		handlers: make(map[string]map[*subscription]bool),
	}
}

// Register adds handler for eventType and returns the function that removes it.
// The returned function is safe to call more than once.
func (h *Hub) Register(eventType string, handler EventHandler) func() {
	sub := &subscription{eventType: eventType, handler: handler}

	h.mu.Lock()
	if h.handlers[eventType] == nil {
		h.handlers[eventType] = make(map[*subscription]bool)
	}
	h.handlers[eventType][sub] = true
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.unregister(sub) })
	}
}

func (h *Hub) unregister(sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.handlers[sub.eventType]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.handlers, sub.eventType)
		}
	}
}

// Dispatch calls every handler registered for eventType.
func (h *Hub) Dispatch(eventType string, data json.RawMessage) {
	h.mu.RLock()
	handlers := make([]EventHandler, 0, len(h.handlers[eventType]))
	for sub := range h.handlers[eventType] {
		handlers = append(handlers, sub.handler)
	}
	h.mu.RUnlock()

	for _, handler := range handlers {
		handler(data)
	}
}

// Count returns the number of handlers registered for eventType.
func (h *Hub) Count(eventType string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.handlers[eventType])
}
