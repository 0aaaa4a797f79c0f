// Package event provides a typed publish/subscribe bus used by the engines
// to surface domain events (revenue added, shares purchased, votes cast).
package event

import (
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SubscriberQueueSize is the buffer size of each subscriber channel.
const SubscriberQueueSize = 20

// Type identifies the kind of an event.
type Type string

// SubscriberID identifies an active subscription.
type SubscriberID int

// Event carries a typed payload to subscribers.
type Event struct {
	Timestamp time.Time
	Data      any
	Type      Type
}

// New creates an event with the current timestamp.
func New(eventType Type, data any) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// Bus delivers events to per-type subscriber channels. Publishing never
// blocks: events for a subscriber with a full queue are dropped and logged.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[Type]map[SubscriberID]chan Event
	lastSubID   SubscriberID
	logger      *slog.Logger
	published   *prometheus.CounterVec
}

// NewBus creates an event bus. logger may be nil; promRegistry may be nil to
// disable metrics.
func NewBus(promRegistry prometheus.Registerer, logger *slog.Logger) *Bus {
	b := &Bus{
		subscribers: make(map[Type]map[SubscriberID]chan Event),
		logger:      logger,
	}
	if promRegistry != nil {
		b.published = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "knowscroll_events_published_total",
				Help: "Number of events published, by event type",
			},
			[]string{"type"},
		)
		promRegistry.MustRegister(b.published)
	}
	return b
}

// Subscribe registers for events of the given type and returns the
// subscription id and delivery channel.
func (b *Bus) Subscribe(eventType Type) (SubscriberID, <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastSubID++
	id := b.lastSubID
	ch := make(chan Event, SubscriberQueueSize)
	if b.subscribers[eventType] == nil {
		b.subscribers[eventType] = make(map[SubscriberID]chan Event)
	}
	b.subscribers[eventType][id] = ch
	return id, ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(eventType Type, id SubscriberID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subs, ok := b.subscribers[eventType]; ok {
		if ch, ok := subs[id]; ok {
			delete(subs, id)
			close(ch)
		}
	}
}

// Publish delivers an event to all subscribers of its type.
func (b *Bus) Publish(eventType Type, evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.published != nil {
		b.published.WithLabelValues(string(eventType)).Inc()
	}
	for id, ch := range b.subscribers[eventType] {
		select {
		case ch <- evt:
		default:
			if b.logger != nil {
				b.logger.Warn(
					"dropping event for slow subscriber",
					"type", eventType,
					"subscriber", id,
				)
			}
		}
	}
}
