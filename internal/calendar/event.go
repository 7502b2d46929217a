package calendar

import (
	"fmt"
	"strings"

	"agenda/internal/models"

	gcal "google.golang.org/api/calendar/v3"
)

const (
	eventColorID         = "9"
	emailReminderMinutes = 1440
	popupReminderMinutes = 15
)

// EventRequest carries the reservation fields mirrored into the calendar.
type EventRequest struct {
	ReservationID    string
	ProfessionalID   string
	ProfessionalName string
	Room             string
	Date             string
	StartTime        string
	EndTime          string
	UnitValue        models.Money
	PaymentMethod    string
	Summary          string
}

// EventRef points at a created event.
type EventRef struct {
	ID   string `json:"id"`
	Link string `json:"link,omitempty"`
}

// NewEventRequest copies what the calendar needs from a reservation.
func NewEventRequest(r *models.Reservation) EventRequest {
	return EventRequest{
		ReservationID:    r.ID,
		ProfessionalID:   r.ProfessionalID,
		ProfessionalName: r.ProfessionalName,
		Room:             r.Room,
		Date:             r.Date,
		StartTime:        r.StartTime,
		EndTime:          r.EndTime,
		UnitValue:        r.UnitValue,
		PaymentMethod:    string(r.PaymentMethod),
		Summary:          r.Summary,
	}
}

// localDateTime joins a date and an HH:MM clock into the zone-less form the API
// pairs with TimeZone. The hour is always zero-padded.
func localDateTime(date, clock string) string {
	if minutes, err := models.ParseClock(clock); err == nil {
		clock = models.FormatClock(minutes)
	}
	return fmt.Sprintf("%sT%s:00", date, clock)
}

func buildEvent(req EventRequest, timezone string) *gcal.Event {
	return &gcal.Event{
		Summary:     "Agendamento - " + req.ProfessionalID,
		Description: describe(req),
		ColorId:     eventColorID,
		Start: &gcal.EventDateTime{
			DateTime: localDateTime(req.Date, req.StartTime),
			TimeZone: timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: localDateTime(req.Date, req.EndTime),
			TimeZone: timezone,
		},
		Reminders: &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "email", Minutes: emailReminderMinutes},
				{Method: "popup", Minutes: popupReminderMinutes},
			},
			// UseDefault=false is the zero value and would otherwise be omitted.
			ForceSendFields: []string{"UseDefault"},
		},
	}
}

func describe(req EventRequest) string {
	lines := []string{
		"=== AGENDAMENTO CONFIRMADO ===",
		"",
		"ID Profissional: " + req.ProfessionalID,
		"Nome: " + req.ProfessionalName,
		"Sala: " + req.Room,
		"Valor: R$ " + req.UnitValue.String(),
		"Forma de pagamento: " + req.PaymentMethod,
	}
	if s := strings.TrimSpace(req.Summary); s != "" {
		lines = append(lines, "", s)
	}
	return strings.Join(lines, "\n")
}
