package event

import (
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Handler handles one event.
type Handler func(Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is a synchronous pub-sub event bus. Handlers run on the publishing
// goroutine, in registration order; a panicking handler is recovered and
// logged so it cannot block delivery to the rest.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Type][]subscription
	all    []subscription
	nextID atomic.Uint64
	logger *slog.Logger
}

// NewBus creates an event bus. A nil logger falls back to slog.Default.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subs:   make(map[Type][]subscription),
		logger: logger,
	}
}

// Subscribe registers handler for one event type and returns an id for
// Unsubscribe.
func (b *Bus) Subscribe(t Type, handler Handler) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID.Add(1)
	b.subs[t] = append(b.subs[t], subscription{id: id, handler: handler})
	return id
}

// SubscribeAll registers handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID.Add(1)
	b.all = append(b.all, subscription{id: id, handler: handler})
	return id
}

// Unsubscribe removes a subscription. Returns false if the id is unknown.
func (b *Bus) Unsubscribe(id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for t, subs := range b.subs {
		for i, sub := range subs {
			if sub.id == id {
				b.subs[t] = append(subs[:i], subs[i+1:]...)
				return true
			}
		}
	}
	for i, sub := range b.all {
		if sub.id == id {
			b.all = append(b.all[:i], b.all[i+1:]...)
			return true
		}
	}
	return false
}

// Publish delivers ev to type-specific handlers first, then wildcard
// handlers.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	specific := make([]subscription, len(b.subs[ev.EventType()]))
	copy(specific, b.subs[ev.EventType()])
	wildcard := make([]subscription, len(b.all))
	copy(wildcard, b.all)
	b.mu.RUnlock()

	for _, sub := range specific {
		b.safeCall(sub.handler, ev)
	}
	for _, sub := range wildcard {
		b.safeCall(sub.handler, ev)
	}
}

func (b *Bus) safeCall(handler Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"event", string(ev.EventType()),
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	handler(ev)
}
