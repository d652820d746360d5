package notify

import (
	"context"
	"log/slog"
	"sync"
)

// DefaultBuffer is the per-subscriber queue length used when none is given.
const DefaultBuffer = 16

// Hub is an in-process broadcaster keyed by table code.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}

	// OnDrop, if set, is called when a subscriber's queue is full.
	OnDrop func(eventType EventType)
}

// Subscription receives the events of one table.
type Subscription struct {
	hub    *Hub
	code   string
	events chan Event
	once   sync.Once
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscribe registers interest in code. buffer bounds how many undelivered
// events are queued before new ones are dropped.
func (h *Hub) Subscribe(code string, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	sub := &Subscription{hub: h, code: code, events: make(chan Event, buffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[code] == nil {
		h.subs[code] = make(map[*Subscription]struct{})
	}
	h.subs[code][sub] = struct{}{}
	return sub
}

// Subscribers returns how many subscriptions are open for code.
func (h *Hub) Subscribers(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[code])
}

// Notify queues event for every subscriber of event.Code without blocking.
func (h *Hub) Notify(ctx context.Context, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[event.Code] {
		select {
		case sub.events <- event:
		default:
			slog.Warn("Dropping table event for slow subscriber", "code", event.Code, "type", event.Type)
			if h.OnDrop != nil {
				h.OnDrop(event.Type)
			}
		}
	}
}

// Events returns the channel events arrive on. It is closed by Close.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close unregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		defer h.mu.Unlock()

		delete(h.subs[s.code], s)
		if len(h.subs[s.code]) == 0 {
			delete(h.subs, s.code)
		}
		close(s.events)
	})
}
