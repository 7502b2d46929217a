package booking

import (
	"time"

	"agenda/internal/models"
)

const minutesPerDay = 24 * 60

// prepare applies configured defaults to req and checks the result against now.
// It never touches storage.
func (s *Service) prepare(index int, req models.ReservationRequest, now time.Time) (*models.Reservation, error) {
	if req.DurationMinutes == nil {
		d := s.opts.DefaultDuration
		req.DurationMinutes = &d
	}
	if req.UnitValue == nil {
		v := s.opts.DefaultUnitValue
		req.UnitValue = &v
	}
	r := req.ToReservation()

	day, err := time.ParseInLocation(models.DateLayout, r.Date, s.opts.Location)
	if err != nil {
		return nil, invalid(index, "data", "invalid date %q, expected YYYY-MM-DD", r.Date)
	}
	if r.Room == "" {
		return nil, invalid(index, "sala", "is required")
	}
	if r.StartTime == "" {
		return nil, invalid(index, "horario_inicio", "is required")
	}
	start, err := models.ParseClock(r.StartTime)
	if err != nil {
		return nil, invalid(index, "horario_inicio", "%v", err)
	}
	if r.DurationMinutes < 0 {
		return nil, invalid(index, "duracao_minutos", "must not be negative")
	}
	if r.ExtraMinutes < 0 {
		return nil, invalid(index, "acrescimo_minutos", "must not be negative")
	}
	if start+r.DurationMinutes >= minutesPerDay && req.EndTime == "" {
		return nil, invalid(index, "horario_fim", "reservation must end before midnight")
	}
	end, err := models.ParseClock(r.EndTime)
	if err != nil {
		return nil, invalid(index, "horario_fim", "%v", err)
	}
	if end <= start {
		return nil, invalid(index, "horario_fim", "must be after horario_inicio")
	}
	r.StartTime = models.FormatClock(start)
	r.EndTime = models.FormatClock(end)
	if r.UnitValue < 0 {
		return nil, invalid(index, "valor_unitario", "must not be negative")
	}
	if r.CreditUsed < 0 {
		return nil, invalid(index, "credito_usado", "must not be negative")
	}
	switch r.PaymentMethod {
	case models.PaymentAdvance, models.PaymentOnDay:
	default:
		return nil, invalid(index, "forma_pagamento", "must be %q or %q", models.PaymentAdvance, models.PaymentOnDay)
	}
	switch r.PaymentStatus {
	case models.PaymentPending, models.PaymentPaid:
	default:
		return nil, invalid(index, "status", "must be %q or %q", models.PaymentPending, models.PaymentPaid)
	}

	local := now.In(s.opts.Location)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.opts.Location)
	switch {
	case day.Before(today):
		return nil, invalid(index, "data", "date %s is in the past", r.Date)
	case day.Equal(today) && start <= local.Hour()*60+local.Minute():
		return nil, invalid(index, "horario_inicio", "start time %s has already passed today", r.StartTime)
	}
	return r, nil
}

// findBatchConflict returns the first item overlapping an earlier item of the batch.
func findBatchConflict(items []*models.Reservation) *ConflictError {
	for i := 1; i < len(items); i++ {
		for j := 0; j < i; j++ {
			if items[i].OverlapsWith(items[j]) {
				return &ConflictError{Index: i, Room: items[i].Room, Date: items[i].Date, StartTime: items[i].StartTime}
			}
		}
	}
	return nil
}
