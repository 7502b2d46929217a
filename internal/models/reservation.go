package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PaymentMethod is how the professional pays for the slot.
type PaymentMethod string

const (
	PaymentAdvance PaymentMethod = "antecipado"
	PaymentOnDay   PaymentMethod = "no-dia"
)

// PaymentStatus is the payment axis of a reservation, independent of its lifecycle.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pendente"
	PaymentPaid    PaymentStatus = "Pago"
)

// ReservationStatus is the lifecycle state. Cancelled is terminal.
type ReservationStatus string

const (
	StatusActive    ReservationStatus = "ativa"
	StatusCancelled ReservationStatus = "cancelada"
)

const (
	DateLayout        = "2006-01-02"
	ClockLayout       = "15:04"
	DisplayDateLayout = "02/01/2006"

	DefaultDurationMinutes = 60
	DefaultUnitValue       = Money(3000)
)

// Reservation is one booked room slot.
type Reservation struct {
	ID               string            `json:"id" bson:"id"`
	Date             string            `json:"data" bson:"data"`
	Room             string            `json:"sala" bson:"sala"`
	Slot             string            `json:"horario" bson:"horario"`
	DurationMinutes  int               `json:"duracao_minutos" bson:"duracao_minutos"`
	ProfessionalID   string            `json:"id_profissional,omitempty" bson:"id_profissional,omitempty"`
	ProfessionalName string            `json:"nome_profissional,omitempty" bson:"nome_profissional,omitempty"`
	StartTime        string            `json:"horario_inicio" bson:"horario_inicio"`
	EndTime          string            `json:"horario_fim" bson:"horario_fim"`
	ExtraMinutes     int               `json:"acrescimo_minutos" bson:"acrescimo_minutos"`
	UnitValue        Money             `json:"valor_unitario" bson:"valor_unitario"`
	OriginalValue    Money             `json:"valor_original" bson:"valor_original"`
	CreditUsed       Money             `json:"credito_usado" bson:"credito_usado"`
	PaymentMethod    PaymentMethod     `json:"forma_pagamento" bson:"forma_pagamento"`
	PaymentStatus    PaymentStatus     `json:"status" bson:"status"`
	Status           ReservationStatus `json:"status_reserva" bson:"status_reserva"`
	Summary          string            `json:"resumo_adicional,omitempty" bson:"resumo_adicional,omitempty"`
	CancelledDate    string            `json:"data_cancelamento,omitempty" bson:"data_cancelamento,omitempty"`
	CancelledTime    string            `json:"hora_cancelamento,omitempty" bson:"hora_cancelamento,omitempty"`
	GoogleEventID    *string           `json:"google_event_id" bson:"google_event_id"`
	CreatedAt        time.Time         `json:"criado_em" bson:"criado_em"`
	UpdatedAt        time.Time         `json:"atualizado_em" bson:"atualizado_em"`
}

// IsActive reports whether the reservation still holds its slot.
func (r *Reservation) IsActive() bool {
	return r.Status == StatusActive
}

// IsPaid reports whether the slot was paid for.
func (r *Reservation) IsPaid() bool {
	return r.PaymentStatus == PaymentPaid
}

// HasProfessional reports whether the reservation can be mirrored to the calendar.
func (r *Reservation) HasProfessional() bool {
	return strings.TrimSpace(r.ProfessionalID) != "" && strings.TrimSpace(r.ProfessionalName) != ""
}

// EventID returns the mirrored calendar event id or "".
func (r *Reservation) EventID() string {
	if r.GoogleEventID == nil {
		return ""
	}
	return *r.GoogleEventID
}

// Interval returns the occupied span in minutes since midnight, end exclusive.
func (r *Reservation) Interval() (start, end int, err error) {
	start, err = ParseClock(r.StartTime)
	if err != nil {
		return 0, 0, err
	}
	if r.EndTime == "" {
		return start, start + r.DurationMinutes + r.ExtraMinutes, nil
	}
	end, err = ParseClock(r.EndTime)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// OverlapsWith reports whether two reservations occupy the same room at the same time.
// Intervals are half-open: a slot ending at 10:00 does not clash with one starting at 10:00.
func (r *Reservation) OverlapsWith(other *Reservation) bool {
	if r.Room != other.Room || r.Date != other.Date {
		return false
	}
	aStart, aEnd, err := r.Interval()
	if err != nil {
		return false
	}
	bStart, bEnd, err := other.Interval()
	if err != nil {
		return false
	}
	return aStart < bEnd && bStart < aEnd
}

// ParseClock converts HH:MM into minutes since midnight.
func ParseClock(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[0]) > 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", value)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", value)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", value)
	}
	return h*60 + m, nil
}

// FormatClock converts minutes since midnight into HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ReservationRequest is one item of a batch submission. Pointer fields distinguish
// an absent value, which takes the default, from an explicit zero.
type ReservationRequest struct {
	Date             string        `json:"data"`
	Room             string        `json:"sala"`
	Slot             string        `json:"horario"`
	DurationMinutes  *int          `json:"duracao_minutos,omitempty"`
	ProfessionalID   string        `json:"id_profissional,omitempty"`
	ProfessionalName string        `json:"nome_profissional,omitempty"`
	StartTime        string        `json:"horario_inicio"`
	EndTime          string        `json:"horario_fim,omitempty"`
	ExtraMinutes     *int          `json:"acrescimo_minutos,omitempty"`
	UnitValue        *Money        `json:"valor_unitario,omitempty"`
	OriginalValue    *Money        `json:"valor_original,omitempty"`
	CreditUsed       *Money        `json:"credito_usado,omitempty"`
	PaymentMethod    PaymentMethod `json:"forma_pagamento,omitempty"`
	PaymentStatus    PaymentStatus `json:"status,omitempty"`
	Summary          string        `json:"resumo_adicional,omitempty"`
}

// ToReservation applies defaults. It does not validate.
func (req *ReservationRequest) ToReservation() *Reservation {
	r := &Reservation{
		Date:             strings.TrimSpace(req.Date),
		Room:             strings.TrimSpace(req.Room),
		Slot:             strings.TrimSpace(req.Slot),
		DurationMinutes:  DefaultDurationMinutes,
		ProfessionalID:   NormalizeProfessionalID(req.ProfessionalID),
		ProfessionalName: strings.TrimSpace(req.ProfessionalName),
		StartTime:        strings.TrimSpace(req.StartTime),
		EndTime:          strings.TrimSpace(req.EndTime),
		UnitValue:        DefaultUnitValue,
		PaymentMethod:    req.PaymentMethod,
		PaymentStatus:    req.PaymentStatus,
		Status:           StatusActive,
		Summary:          strings.TrimSpace(req.Summary),
	}
	if req.DurationMinutes != nil {
		r.DurationMinutes = *req.DurationMinutes
	}
	if req.ExtraMinutes != nil {
		r.ExtraMinutes = *req.ExtraMinutes
	}
	if req.UnitValue != nil {
		r.UnitValue = *req.UnitValue
	}
	r.OriginalValue = r.UnitValue
	if req.OriginalValue != nil {
		r.OriginalValue = *req.OriginalValue
	}
	if req.CreditUsed != nil {
		r.CreditUsed = *req.CreditUsed
	}
	if r.PaymentMethod == "" {
		r.PaymentMethod = PaymentAdvance
	}
	if r.PaymentStatus == "" {
		r.PaymentStatus = PaymentPending
	}
	if r.Slot == "" {
		r.Slot = r.StartTime
	}
	if r.StartTime == "" {
		r.StartTime = r.Slot
	}
	if r.EndTime == "" {
		if start, err := ParseClock(r.StartTime); err == nil {
			r.EndTime = FormatClock(start + r.DurationMinutes)
		}
	}
	return r
}
