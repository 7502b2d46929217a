package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	TypeReservationsCreated = "reservations.created"
	TypeReservationCanceled = "reservation.cancelled"
	TypeReservationsWiped   = "reservations.wiped"
)

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// ReservationsCreated is the payload of TypeReservationsCreated.
type ReservationsCreated struct {
	IDs    []string `json:"ids"`
	Synced int      `json:"synced"`
}

// ReservationCancelled is the payload of TypeReservationCanceled.
type ReservationCancelled struct {
	ID          string `json:"id"`
	Paid        bool   `json:"paid"`
	CreditCents int64  `json:"credit_cents"`
}

// ReservationsWiped is the payload of TypeReservationsWiped.
type ReservationsWiped struct {
	Deleted int64 `json:"deleted"`
}

// EventHandler reacts to an event.
type EventHandler func(event Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	logger      *zerolog.Logger
}

// NewEventBus constructs an empty bus.
func NewEventBus(logger *zerolog.Logger) *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler), logger: logger}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		if err := handler(event); err != nil && b.logger != nil {
			b.logger.Warn().Err(err).Str("event", event.Type).Msg("event handler failed")
		}
	}
}

// PublishJSON marshals payload and publishes it. A nil bus is a no-op.
func (b *EventBus) PublishJSON(eventType string, payload any) {
	if b == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		if b.logger != nil {
			b.logger.Error().Err(err).Str("event", eventType).Msg("failed to encode event")
		}
		return
	}
	b.Publish(Event{Type: eventType, Payload: data})
}
