package booking

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"agenda/internal/calendar"
	"agenda/internal/events"
	"agenda/internal/models"

	"github.com/google/uuid"
)

// ListByMonth returns the reservations of mes/ano ordered by date and start time.
func (s *Service) ListByMonth(ctx context.Context, month, year int, includeCancelled bool) ([]models.Reservation, error) {
	if month < 1 || month > 12 {
		return nil, &ValidationError{Index: -1, Field: "mes", Message: fmt.Sprintf("month %d out of range 1-12", month)}
	}
	if year < 1970 || year > 9999 {
		return nil, &ValidationError{Index: -1, Field: "ano", Message: fmt.Sprintf("invalid year %d", year)}
	}
	return s.store.ListByMonth(ctx, year, month, includeCancelled)
}

// ListByDate returns the reservations of one YYYY-MM-DD day.
func (s *Service) ListByDate(ctx context.Context, date string, includeCancelled bool) ([]models.Reservation, error) {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, &ValidationError{Index: -1, Field: "data", Message: fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", date)}
	}
	return s.store.ListByDate(ctx, date, includeCancelled)
}

type WipeResult struct {
	Deleted  int64
	Calendar calendar.BulkDeleteResult
}

// WipeAll deletes every reservation and best-effort deletes their mirrored events.
// Event ids are collected before the records go away.
func (s *Service) WipeAll(ctx context.Context) (*WipeResult, error) {
	var eventIDs []string
	if s.calendar != nil {
		ids, err := s.store.ListEventIDs(ctx)
		if err != nil {
			return nil, err
		}
		eventIDs = ids
	}

	deleted, err := s.store.DeleteAll(ctx)
	if err != nil {
		return nil, err
	}
	result := &WipeResult{Deleted: deleted}
	if len(eventIDs) > 0 {
		result.Calendar = s.calendar.DeleteEventsBulk(ctx, eventIDs)
	}

	s.bus.PublishJSON(events.TypeReservationsWiped, events.ReservationsWiped{Deleted: deleted})
	s.logger.Warn().
		Int64("deleted", deleted).
		Int("events_deleted", result.Calendar.Deleted).
		Int("events_failed", len(result.Calendar.Failed)).
		Msg("all reservations wiped")
	return result, nil
}

// SeedDemo inserts a handful of upcoming reservations when the collection is empty.
// It returns the number of inserted records, zero when data already exists.
func (s *Service) SeedDemo(ctx context.Context) (int, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	now := s.opts.Now()
	local := now.In(s.opts.Location)
	demo := []struct {
		dayOffset int
		room      string
		start     string
		profID    string
		profName  string
		status    models.PaymentStatus
	}{
		{1, "01", "09:00", "011-K", "Yasmin Melo", models.PaymentPaid},
		{1, "02", "10:00", "011-T", "Anne Evans", models.PaymentPending},
		{2, "03", "14:00", "012-T", "Janete das Graças", models.PaymentPaid},
		{3, "04", "16:30", "009-V", "Ana Paula Vieites", models.PaymentPending},
	}

	list := make([]*models.Reservation, 0, len(demo))
	for i, d := range demo {
		duration := s.opts.DefaultDuration
		unit := s.opts.DefaultUnitValue
		req := models.ReservationRequest{
			Date:             local.AddDate(0, 0, d.dayOffset).Format(models.DateLayout),
			Room:             d.room,
			Slot:             d.start,
			StartTime:        d.start,
			DurationMinutes:  &duration,
			UnitValue:        &unit,
			ProfessionalID:   d.profID,
			ProfessionalName: d.profName,
			PaymentStatus:    d.status,
			Summary:          "Reserva de demonstração " + strconv.Itoa(i+1),
		}
		r := req.ToReservation()
		r.ID = uuid.NewString()
		r.CreatedAt = now.UTC()
		r.UpdatedAt = r.CreatedAt
		list = append(list, r)
	}

	n, err := s.store.InsertMany(ctx, list)
	if err != nil {
		return n, err
	}
	s.logger.Info().Int("count", n).Msg("demo reservations seeded")
	return n, nil
}
