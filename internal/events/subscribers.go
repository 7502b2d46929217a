package events

import (
	"encoding/json"

	"agenda/internal/metrics"

	"github.com/rs/zerolog"
)

// SubscribeMetrics feeds reservation counters from bus events.
func SubscribeMetrics(bus *EventBus) {
	bus.Subscribe(TypeReservationsCreated, func(e Event) error {
		var p ReservationsCreated
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return err
		}
		metrics.IncReservationsCreated(len(p.IDs))
		return nil
	})
	bus.Subscribe(TypeReservationCanceled, func(e Event) error {
		var p ReservationCancelled
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return err
		}
		metrics.IncReservationCancelled(p.Paid)
		metrics.AddCreditGranted(p.CreditCents)
		return nil
	})
}

// SubscribeAuditLog writes every reservation event to logger.
func SubscribeAuditLog(bus *EventBus, logger *zerolog.Logger) {
	handler := func(e Event) error {
		logger.Info().
			Str("event", e.Type).
			RawJSON("payload", e.Payload).
			Time("at", e.CreatedAt).
			Msg("reservation event")
		return nil
	}
	for _, t := range []string{TypeReservationsCreated, TypeReservationCanceled, TypeReservationsWiped} {
		bus.Subscribe(t, handler)
	}
}
