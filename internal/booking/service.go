package booking

import (
	"context"
	"errors"
	"time"

	"agenda/internal/calendar"
	"agenda/internal/database"
	"agenda/internal/events"
	"agenda/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store is the reservation persistence the lifecycle needs.
type Store interface {
	Insert(ctx context.Context, r *models.Reservation) error
	InsertMany(ctx context.Context, list []*models.Reservation) (int, error)
	GetByID(ctx context.Context, id string) (*models.Reservation, error)
	ListByDate(ctx context.Context, date string, includeCancelled bool) ([]models.Reservation, error)
	ListByMonth(ctx context.Context, year, month int, includeCancelled bool) ([]models.Reservation, error)
	ListActiveInRoom(ctx context.Context, date, room string) ([]models.Reservation, error)
	ListEventIDs(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int64, error)
	SetEventID(ctx context.Context, id, eventID string) error
	MarkCancelled(ctx context.Context, id, date, clock string) error
	DeleteAll(ctx context.Context) (int64, error)
}

// Creditor grants credit to professionals.
type Creditor interface {
	Credit(ctx context.Context, id string, amount models.Money) (models.Money, error)
}

// Calendar mirrors reservations into the external calendar.
type Calendar interface {
	CreateEventsBulk(ctx context.Context, reqs []calendar.EventRequest) calendar.BulkCreateResult
	DeleteEvent(ctx context.Context, eventID string) error
	DeleteEventsBulk(ctx context.Context, eventIDs []string) calendar.BulkDeleteResult
}

type Options struct {
	Location         *time.Location
	DefaultDuration  int
	DefaultUnitValue models.Money
	Now              func() time.Time
}

// Service runs the reservation lifecycle. The calendar and the event bus are optional.
type Service struct {
	store    Store
	creditor Creditor
	calendar Calendar
	bus      *events.EventBus
	opts     Options
	logger   *zerolog.Logger
}

func NewService(store Store, creditor Creditor, cal Calendar, bus *events.EventBus, opts Options, logger *zerolog.Logger) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.DefaultDuration <= 0 {
		opts.DefaultDuration = models.DefaultDurationMinutes
	}
	if opts.DefaultUnitValue <= 0 {
		opts.DefaultUnitValue = models.DefaultUnitValue
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	l := logger.With().Str("component", "booking").Logger()
	return &Service{store: store, creditor: creditor, calendar: cal, bus: bus, opts: opts, logger: &l}
}

const (
	StagePersist  = "persist"
	StageCalendar = "calendar"
)

// ItemFailure is a batch item that was not persisted or not mirrored.
type ItemFailure struct {
	Index         int    `json:"indice"`
	ReservationID string `json:"id,omitempty"`
	Stage         string `json:"etapa"`
	Error         string `json:"erro"`
	err           error
}

// Err returns the underlying error.
func (f ItemFailure) Err() error { return f.err }

type SubmitResult struct {
	Created      int
	Reservations []models.Reservation
	SyncedCount  int
	EventIDs     []string
	Failures     []ItemFailure
}

// Submit validates the whole batch, then persists and mirrors each item independently.
// Any validation or conflict error aborts the batch before the first write.
func (s *Service) Submit(ctx context.Context, reqs []models.ReservationRequest) (*SubmitResult, error) {
	if len(reqs) == 0 {
		return nil, &ValidationError{Index: -1, Field: "reservas", Message: "at least one reservation is required"}
	}

	now := s.opts.Now()
	items := make([]*models.Reservation, 0, len(reqs))
	for i, req := range reqs {
		r, err := s.prepare(i, req, now)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if conflict := findBatchConflict(items); conflict != nil {
		return nil, conflict
	}
	if err := s.checkStoredConflicts(ctx, items); err != nil {
		return nil, err
	}

	result := &SubmitResult{EventIDs: []string{}}
	var persisted []*models.Reservation
	var persistedIndex []int
	for i, r := range items {
		r.ID = uuid.NewString()
		r.CreatedAt = now.UTC()
		r.UpdatedAt = r.CreatedAt
		if err := s.store.Insert(ctx, r); err != nil {
			s.logger.Error().Err(err).Int("index", i).Str("sala", r.Room).Str("data", r.Date).Msg("failed to persist reservation")
			result.Failures = append(result.Failures, ItemFailure{Index: i, Stage: StagePersist, Error: err.Error(), err: err})
			continue
		}
		persisted = append(persisted, r)
		persistedIndex = append(persistedIndex, i)
	}
	result.Created = len(persisted)

	s.sync(ctx, persisted, persistedIndex, result)

	for _, r := range persisted {
		result.Reservations = append(result.Reservations, *r)
	}
	if result.Created > 0 {
		ids := make([]string, 0, len(persisted))
		for _, r := range persisted {
			ids = append(ids, r.ID)
		}
		s.bus.PublishJSON(events.TypeReservationsCreated, events.ReservationsCreated{IDs: ids, Synced: result.SyncedCount})
	}
	s.logger.Info().
		Int("requested", len(reqs)).
		Int("created", result.Created).
		Int("synced", result.SyncedCount).
		Int("failures", len(result.Failures)).
		Msg("reservation batch processed")
	return result, nil
}

func (s *Service) checkStoredConflicts(ctx context.Context, items []*models.Reservation) error {
	type slot struct{ date, room string }
	existing := make(map[slot][]models.Reservation)
	for i, r := range items {
		key := slot{r.Date, r.Room}
		active, ok := existing[key]
		if !ok {
			var err error
			active, err = s.store.ListActiveInRoom(ctx, r.Date, r.Room)
			if err != nil {
				return err
			}
			existing[key] = active
		}
		for j := range active {
			if r.OverlapsWith(&active[j]) {
				return &ConflictError{Index: i, Room: r.Room, Date: r.Date, StartTime: r.StartTime, ExistingID: active[j].ID}
			}
		}
	}
	return nil
}

// sync mirrors persisted reservations that name a professional, in order.
func (s *Service) sync(ctx context.Context, persisted []*models.Reservation, index []int, result *SubmitResult) {
	if s.calendar == nil {
		return
	}
	var reqs []calendar.EventRequest
	var targets []*models.Reservation
	var targetIndex []int
	for i, r := range persisted {
		if !r.HasProfessional() {
			continue
		}
		reqs = append(reqs, calendar.NewEventRequest(r))
		targets = append(targets, r)
		targetIndex = append(targetIndex, index[i])
	}
	if len(reqs) == 0 {
		return
	}

	bulk := s.calendar.CreateEventsBulk(ctx, reqs)
	for _, created := range bulk.Created {
		r := targets[created.Index]
		if err := s.store.SetEventID(ctx, r.ID, created.Event.ID); err != nil {
			s.logger.Error().Err(err).Str("reservation_id", r.ID).Str("event_id", created.Event.ID).Msg("event created but id not stored")
			// Nothing points at the event any more, so remove it from the calendar.
			if derr := s.calendar.DeleteEvent(ctx, created.Event.ID); derr != nil && !errors.Is(derr, calendar.ErrEventNotFound) {
				s.logger.Warn().Err(derr).Str("event_id", created.Event.ID).Msg("orphaned calendar event not removed")
			}
			result.Failures = append(result.Failures, ItemFailure{Index: targetIndex[created.Index], ReservationID: r.ID, Stage: StageCalendar, Error: err.Error(), err: err})
			continue
		}
		eventID := created.Event.ID
		r.GoogleEventID = &eventID
		result.SyncedCount++
		result.EventIDs = append(result.EventIDs, eventID)
	}
	for _, failed := range bulk.Failed {
		r := targets[failed.Index]
		s.logger.Warn().Err(failed.Err).Str("reservation_id", r.ID).Msg("reservation kept without calendar event")
		result.Failures = append(result.Failures, ItemFailure{Index: targetIndex[failed.Index], ReservationID: r.ID, Stage: StageCalendar, Error: failed.Err.Error(), err: failed.Err})
	}
}

type CancelResult struct {
	ID                string
	CreditGranted     models.Money
	CreditError       string
	CancelledDate     string
	CancelledTime     string
	CalendarAttempted bool
	CalendarDeleted   bool
}

// Cancel moves an active reservation to cancelled, credits paid reservations and
// removes the mirrored event. The status transition happens first so a reservation
// is credited at most once.
func (s *Service) Cancel(ctx context.Context, id string) (*CancelResult, error) {
	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.IsActive() {
		return nil, ErrReservationCancelled
	}

	now := s.opts.Now().In(s.opts.Location)
	result := &CancelResult{
		ID:            r.ID,
		CancelledDate: now.Format(models.DisplayDateLayout),
		CancelledTime: now.Format(models.ClockLayout),
	}

	if err := s.store.MarkCancelled(ctx, r.ID, result.CancelledDate, result.CancelledTime); err != nil {
		if errors.Is(err, database.ErrNotActive) {
			return nil, ErrReservationCancelled
		}
		return nil, err
	}

	if r.IsPaid() {
		s.grantCredit(ctx, r, result)
	}

	if eventID := r.EventID(); eventID != "" && s.calendar != nil {
		result.CalendarAttempted = true
		err := s.calendar.DeleteEvent(ctx, eventID)
		switch {
		case err == nil:
			result.CalendarDeleted = true
		case errors.Is(err, calendar.ErrEventNotFound):
			s.logger.Warn().Str("reservation_id", r.ID).Str("event_id", eventID).Msg("calendar event already gone")
		default:
			s.logger.Error().Err(err).Str("reservation_id", r.ID).Str("event_id", eventID).Msg("calendar event not deleted")
		}
	}

	s.bus.PublishJSON(events.TypeReservationCanceled, events.ReservationCancelled{
		ID: r.ID, Paid: r.IsPaid(), CreditCents: int64(result.CreditGranted),
	})
	s.logger.Info().
		Str("reservation_id", r.ID).
		Str("credit", result.CreditGranted.String()).
		Bool("calendar_deleted", result.CalendarDeleted).
		Msg("reservation cancelled")
	return result, nil
}

func (s *Service) grantCredit(ctx context.Context, r *models.Reservation, result *CancelResult) {
	if r.UnitValue <= 0 || r.ProfessionalID == "" || s.creditor == nil {
		return
	}
	_, err := s.creditor.Credit(ctx, r.ProfessionalID, r.UnitValue)
	switch {
	case err == nil:
		result.CreditGranted = r.UnitValue
	case errors.Is(err, database.ErrProfessionalNotFound):
		s.logger.Warn().Str("reservation_id", r.ID).Str("id_profissional", r.ProfessionalID).Msg("professional not found, credit skipped")
	default:
		// The reservation is already cancelled; the credit has to be granted by hand.
		s.logger.Error().Err(err).
			Str("reservation_id", r.ID).
			Str("id_profissional", r.ProfessionalID).
			Str("amount", r.UnitValue.String()).
			Msg("credit failed after cancellation")
		result.CreditError = err.Error()
	}
}
