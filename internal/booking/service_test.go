package booking

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"agenda/internal/calendar"
	"agenda/internal/database"
	"agenda/internal/events"
	"agenda/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var saoPaulo = time.FixedZone("BRT", -3*60*60)

// 2030-06-10 12:00 local.
var fixedNow = time.Date(2030, 6, 10, 15, 0, 0, 0, time.UTC)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Insert(ctx context.Context, r *models.Reservation) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockStore) InsertMany(ctx context.Context, list []*models.Reservation) (int, error) {
	args := m.Called(ctx, list)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *mockStore) ListByDate(ctx context.Context, date string, includeCancelled bool) ([]models.Reservation, error) {
	args := m.Called(ctx, date, includeCancelled)
	return args.Get(0).([]models.Reservation), args.Error(1)
}

func (m *mockStore) ListByMonth(ctx context.Context, year, month int, includeCancelled bool) ([]models.Reservation, error) {
	args := m.Called(ctx, year, month, includeCancelled)
	return args.Get(0).([]models.Reservation), args.Error(1)
}

func (m *mockStore) ListActiveInRoom(ctx context.Context, date, room string) ([]models.Reservation, error) {
	args := m.Called(ctx, date, room)
	return args.Get(0).([]models.Reservation), args.Error(1)
}

func (m *mockStore) ListEventIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockStore) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) SetEventID(ctx context.Context, id, eventID string) error {
	return m.Called(ctx, id, eventID).Error(0)
}

func (m *mockStore) MarkCancelled(ctx context.Context, id, date, clock string) error {
	return m.Called(ctx, id, date, clock).Error(0)
}

func (m *mockStore) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockCreditor struct {
	mock.Mock
}

func (m *mockCreditor) Credit(ctx context.Context, id string, amount models.Money) (models.Money, error) {
	args := m.Called(ctx, id, amount)
	return args.Get(0).(models.Money), args.Error(1)
}

type mockCalendar struct {
	mock.Mock
}

func (m *mockCalendar) CreateEventsBulk(ctx context.Context, reqs []calendar.EventRequest) calendar.BulkCreateResult {
	return m.Called(ctx, reqs).Get(0).(calendar.BulkCreateResult)
}

func (m *mockCalendar) DeleteEvent(ctx context.Context, eventID string) error {
	return m.Called(ctx, eventID).Error(0)
}

func (m *mockCalendar) DeleteEventsBulk(ctx context.Context, eventIDs []string) calendar.BulkDeleteResult {
	return m.Called(ctx, eventIDs).Get(0).(calendar.BulkDeleteResult)
}

type fixture struct {
	store    *mockStore
	creditor *mockCreditor
	calendar *mockCalendar
	bus      *events.EventBus
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zerolog.Nop()
	f := &fixture{
		store:    new(mockStore),
		creditor: new(mockCreditor),
		calendar: new(mockCalendar),
		bus:      events.NewEventBus(&logger),
	}
	f.svc = NewService(f.store, f.creditor, f.calendar, f.bus, Options{
		Location: saoPaulo,
		Now:      func() time.Time { return fixedNow },
	}, &logger)
	return f
}

func intPtr(v int) *int { return &v }

func TestSubmit_RejectsBeforeWriting(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		reqs  []models.ReservationRequest
		field string
	}{
		{"empty batch", nil, "reservas"},
		{"past date", []models.ReservationRequest{{Date: "2030-06-09", Room: "01", StartTime: "10:00"}}, "data"},
		{"malformed date", []models.ReservationRequest{{Date: "10/06/2030", Room: "01", StartTime: "10:00"}}, "data"},
		{"today at now", []models.ReservationRequest{{Date: "2030-06-10", Room: "01", StartTime: "12:00"}}, "horario_inicio"},
		{"today earlier", []models.ReservationRequest{{Date: "2030-06-10", Room: "01", StartTime: "08:30"}}, "horario_inicio"},
		{"malformed start", []models.ReservationRequest{{Date: "2030-06-11", Room: "01", StartTime: "9h"}}, "horario_inicio"},
		{"missing room", []models.ReservationRequest{{Date: "2030-06-11", StartTime: "10:00"}}, "sala"},
		{"end before start", []models.ReservationRequest{{Date: "2030-06-11", Room: "01", StartTime: "10:00", EndTime: "09:00"}}, "horario_fim"},
		{"past midnight", []models.ReservationRequest{{Date: "2030-06-11", Room: "01", StartTime: "23:30"}}, "horario_fim"},
		{"negative extra", []models.ReservationRequest{{Date: "2030-06-11", Room: "01", StartTime: "10:00", ExtraMinutes: intPtr(-5)}}, "acrescimo_minutos"},
		{"unknown payment method", []models.ReservationRequest{{Date: "2030-06-11", Room: "01", StartTime: "10:00", PaymentMethod: "pix"}}, "forma_pagamento"},
		{"one bad item fails the batch", []models.ReservationRequest{
			{Date: "2030-06-11", Room: "01", StartTime: "10:00"},
			{Date: "2030-06-01", Room: "02", StartTime: "10:00"},
		}, "data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Submit(ctx, tt.reqs)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			f.store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
			f.store.AssertNotCalled(t, "ListActiveInRoom", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSubmit_TodayAfterNow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.store.On("ListActiveInRoom", ctx, "2030-06-10", "01").Return([]models.Reservation{}, nil)
	f.store.On("Insert", ctx, mock.AnythingOfType("*models.Reservation")).Return(nil)

	res, err := f.svc.Submit(ctx, []models.ReservationRequest{{Date: "2030-06-10", Room: "01", StartTime: "12:01"}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 0, res.SyncedCount)
	assert.Empty(t, res.EventIDs)

	r := res.Reservations[0]
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "13:01", r.EndTime)
	assert.Equal(t, models.StatusActive, r.Status)
	assert.Equal(t, models.PaymentPending, r.PaymentStatus)
	assert.Equal(t, models.Money(3000), r.UnitValue)
	f.calendar.AssertNotCalled(t, "CreateEventsBulk", mock.Anything, mock.Anything)
}

func TestSubmit_StoresCanonicalClock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.store.On("ListActiveInRoom", ctx, "2030-06-11", "02").Return([]models.Reservation{}, nil)
	f.store.On("Insert", ctx, mock.AnythingOfType("*models.Reservation")).Return(nil)
	f.store.On("SetEventID", ctx, mock.Anything, "evt-9").Return(nil)
	f.calendar.On("CreateEventsBulk", ctx, mock.MatchedBy(func(reqs []calendar.EventRequest) bool {
		return len(reqs) == 1 && reqs[0].StartTime == "09:00" && reqs[0].EndTime == "10:05"
	})).Return(calendar.BulkCreateResult{
		Created: []calendar.CreatedEvent{{Index: 0, Event: calendar.EventRef{ID: "evt-9"}}},
	})

	res, err := f.svc.Submit(ctx, []models.ReservationRequest{
		{Date: "2030-06-11", Room: "02", StartTime: "9:00", EndTime: "10:05", ProfessionalID: "011-K"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Created)
	assert.Equal(t, "09:00", res.Reservations[0].StartTime)
	assert.Equal(t, "10:05", res.Reservations[0].EndTime)

	f.store.AssertCalled(t, "Insert", ctx, mock.MatchedBy(func(r *models.Reservation) bool {
		return r.StartTime == "09:00"
	}))
}

func TestSubmit_EndDerivedFromDuration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.store.On("ListActiveInRoom", ctx, "2030-06-11", "01").Return([]models.Reservation{}, nil)
	f.store.On("Insert", ctx, mock.AnythingOfType("*models.Reservation")).Return(nil)

	res, err := f.svc.Submit(ctx, []models.ReservationRequest{
		{Date: "2030-06-11", Room: "01", StartTime: "10:00", DurationMinutes: intPtr(90), ExtraMinutes: intPtr(30)},
	})
	require.NoError(t, err)
	assert.Equal(t, "11:30", res.Reservations[0].EndTime)
	assert.Equal(t, 30, res.Reservations[0].ExtraMinutes)
}

func TestSubmit_Conflicts(t *testing.T) {
	ctx := context.Background()

	t.Run("within batch", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Submit(ctx, []models.ReservationRequest{
			{Date: "2030-06-11", Room: "03", StartTime: "10:00"},
			{Date: "2030-06-11", Room: "03", StartTime: "10:30"},
		})
		var cerr *ConflictError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, 1, cerr.Index)
		assert.Empty(t, cerr.ExistingID)
	})

	t.Run("adjacent slots do not clash", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("ListActiveInRoom", ctx, "2030-06-11", "03").Return([]models.Reservation{}, nil).Once()
		f.store.On("Insert", ctx, mock.Anything).Return(nil)

		res, err := f.svc.Submit(ctx, []models.ReservationRequest{
			{Date: "2030-06-11", Room: "03", StartTime: "10:00"},
			{Date: "2030-06-11", Room: "03", StartTime: "11:00"},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, res.Created)
	})

	t.Run("with stored reservation", func(t *testing.T) {
		f := newFixture(t)
		existing := models.Reservation{ID: "r-1", Date: "2030-06-11", Room: "03", StartTime: "10:00", EndTime: "11:15"}
		f.store.On("ListActiveInRoom", ctx, "2030-06-11", "03").Return([]models.Reservation{existing}, nil)

		_, err := f.svc.Submit(ctx, []models.ReservationRequest{{Date: "2030-06-11", Room: "03", StartTime: "11:00"}})
		var cerr *ConflictError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "r-1", cerr.ExistingID)
		f.store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})
}

func TestSubmit_SyncsProfessionalReservations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.store.On("ListActiveInRoom", ctx, mock.Anything, mock.Anything).Return([]models.Reservation{}, nil)
	f.store.On("Insert", ctx, mock.Anything).Return(nil)
	f.store.On("SetEventID", ctx, mock.Anything, "evt-1").Return(nil)
	f.calendar.On("CreateEventsBulk", ctx, mock.MatchedBy(func(reqs []calendar.EventRequest) bool {
		return len(reqs) == 1 && reqs[0].ProfessionalID == "001-Q" && reqs[0].EndTime == "11:15"
	})).Return(calendar.BulkCreateResult{
		Created: []calendar.CreatedEvent{{Index: 0, Event: calendar.EventRef{ID: "evt-1"}}},
	})

	res, err := f.svc.Submit(ctx, []models.ReservationRequest{
		{Date: "2030-06-11", Room: "02", StartTime: "08:00"},
		{Date: "2030-12-26", Room: "03", StartTime: "10:00", EndTime: "11:15", ProfessionalID: "001-q", ProfessionalName: "Dra. Teste"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.SyncedCount)
	assert.Equal(t, []string{"evt-1"}, res.EventIDs)
	assert.Empty(t, res.Failures)
	assert.Nil(t, res.Reservations[0].GoogleEventID)
	assert.Equal(t, "evt-1", res.Reservations[1].EventID())

	f.store.AssertCalled(t, "SetEventID", ctx, res.Reservations[1].ID, "evt-1")
}

func TestSubmit_CalendarFailureKeepsReservation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.store.On("ListActiveInRoom", ctx, mock.Anything, mock.Anything).Return([]models.Reservation{}, nil)
	f.store.On("Insert", ctx, mock.Anything).Return(nil)
	f.calendar.On("CreateEventsBulk", ctx, mock.Anything).Return(calendar.BulkCreateResult{
		Failed: []calendar.CreateFailure{{Index: 0, Err: &calendar.UpstreamError{Status: 500, Message: "backend error"}}},
	})

	res, err := f.svc.Submit(ctx, []models.ReservationRequest{
		{Date: "2030-06-11", Room: "02", StartTime: "08:00", ProfessionalID: "011-K", ProfessionalName: "Yasmin Melo"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 0, res.SyncedCount)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, StageCalendar, res.Failures[0].Stage)
	assert.Equal(t, res.Reservations[0].ID, res.Failures[0].ReservationID)
	f.store.AssertNotCalled(t, "SetEventID", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_UnrecordedEventIsRemoved(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.store.On("ListActiveInRoom", ctx, mock.Anything, mock.Anything).Return([]models.Reservation{}, nil)
	f.store.On("Insert", ctx, mock.Anything).Return(nil)
	f.calendar.On("CreateEventsBulk", ctx, mock.Anything).Return(calendar.BulkCreateResult{
		Created: []calendar.CreatedEvent{{Index: 0, Event: calendar.EventRef{ID: "evt-7"}}},
	})
	f.store.On("SetEventID", ctx, mock.Anything, "evt-7").Return(errors.New("write concern timeout"))
	f.calendar.On("DeleteEvent", ctx, "evt-7").Return(nil)

	res, err := f.svc.Submit(ctx, []models.ReservationRequest{
		{Date: "2030-06-11", Room: "02", StartTime: "08:00", ProfessionalID: "011-K"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 0, res.SyncedCount)
	assert.Empty(t, res.EventIDs)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, StageCalendar, res.Failures[0].Stage)
	assert.Nil(t, res.Reservations[0].GoogleEventID)
	f.calendar.AssertCalled(t, "DeleteEvent", ctx, "evt-7")
}

func TestSubmit_PersistFailureIsPerItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.store.On("ListActiveInRoom", ctx, mock.Anything, mock.Anything).Return([]models.Reservation{}, nil)
	f.store.On("Insert", ctx, mock.MatchedBy(func(r *models.Reservation) bool { return r.Room == "01" })).Return(database.ErrSlotTaken)
	f.store.On("Insert", ctx, mock.MatchedBy(func(r *models.Reservation) bool { return r.Room == "02" })).Return(nil)

	res, err := f.svc.Submit(ctx, []models.ReservationRequest{
		{Date: "2030-06-11", Room: "01", StartTime: "08:00"},
		{Date: "2030-06-11", Room: "02", StartTime: "08:00"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, 0, res.Failures[0].Index)
	assert.Equal(t, StagePersist, res.Failures[0].Stage)
	assert.ErrorIs(t, res.Failures[0].Err(), database.ErrSlotTaken)
}

func paidReservation() *models.Reservation {
	eventID := "evt-9"
	return &models.Reservation{
		ID:             "r-9",
		Date:           "2030-06-12",
		Room:           "03",
		StartTime:      "10:00",
		ProfessionalID: "011-K",
		UnitValue:      models.Money(3800),
		PaymentStatus:  models.PaymentPaid,
		Status:         models.StatusActive,
		GoogleEventID:  &eventID,
	}
}

func TestCancel_PaidCreditsAndDeletesEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.store.On("GetByID", ctx, "r-9").Return(paidReservation(), nil)
	f.store.On("MarkCancelled", ctx, "r-9", "10/06/2030", "12:00").Return(nil)
	f.creditor.On("Credit", ctx, "011-K", models.Money(3800)).Return(models.Money(3800), nil)
	f.calendar.On("DeleteEvent", ctx, "evt-9").Return(nil)

	res, err := f.svc.Cancel(ctx, "r-9")
	require.NoError(t, err)
	assert.Equal(t, models.Money(3800), res.CreditGranted)
	assert.Equal(t, "10/06/2030", res.CancelledDate)
	assert.Equal(t, "12:00", res.CancelledTime)
	assert.True(t, res.CalendarAttempted)
	assert.True(t, res.CalendarDeleted)
	assert.Empty(t, res.CreditError)

	f.store.AssertExpectations(t)
	f.creditor.AssertExpectations(t)
	f.calendar.AssertExpectations(t)
}

func TestCancel_PendingWithoutEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	r := paidReservation()
	r.PaymentStatus = models.PaymentPending
	r.GoogleEventID = nil
	f.store.On("GetByID", ctx, "r-9").Return(r, nil)
	f.store.On("MarkCancelled", ctx, "r-9", mock.Anything, mock.Anything).Return(nil)

	res, err := f.svc.Cancel(ctx, "r-9")
	require.NoError(t, err)
	assert.Equal(t, models.Money(0), res.CreditGranted)
	assert.False(t, res.CalendarAttempted)
	assert.False(t, res.CalendarDeleted)
	f.creditor.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything)
	f.calendar.AssertNotCalled(t, "DeleteEvent", mock.Anything, mock.Anything)
}

func TestCancel_EventAlreadyGone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	r := paidReservation()
	r.PaymentStatus = models.PaymentPending
	f.store.On("GetByID", ctx, "r-9").Return(r, nil)
	f.store.On("MarkCancelled", ctx, "r-9", mock.Anything, mock.Anything).Return(nil)
	f.calendar.On("DeleteEvent", ctx, "evt-9").Return(calendar.ErrEventNotFound)

	res, err := f.svc.Cancel(ctx, "r-9")
	require.NoError(t, err)
	assert.True(t, res.CalendarAttempted)
	assert.False(t, res.CalendarDeleted)
}

func TestCancel_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("GetByID", ctx, "nope").Return(nil, database.ErrReservationNotFound)
		_, err := f.svc.Cancel(ctx, "nope")
		assert.ErrorIs(t, err, database.ErrReservationNotFound)
	})

	t.Run("already cancelled", func(t *testing.T) {
		f := newFixture(t)
		r := paidReservation()
		r.Status = models.StatusCancelled
		f.store.On("GetByID", ctx, "r-9").Return(r, nil)

		_, err := f.svc.Cancel(ctx, "r-9")
		assert.ErrorIs(t, err, ErrReservationCancelled)
		f.store.AssertNotCalled(t, "MarkCancelled", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.creditor.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("lost race to another cancel", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("GetByID", ctx, "r-9").Return(paidReservation(), nil)
		f.store.On("MarkCancelled", ctx, "r-9", mock.Anything, mock.Anything).Return(database.ErrNotActive)

		_, err := f.svc.Cancel(ctx, "r-9")
		assert.ErrorIs(t, err, ErrReservationCancelled)
		f.creditor.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing professional skips credit", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("GetByID", ctx, "r-9").Return(paidReservation(), nil)
		f.store.On("MarkCancelled", ctx, "r-9", mock.Anything, mock.Anything).Return(nil)
		f.creditor.On("Credit", ctx, "011-K", models.Money(3800)).Return(models.Money(0), database.ErrProfessionalNotFound)
		f.calendar.On("DeleteEvent", ctx, "evt-9").Return(nil)

		res, err := f.svc.Cancel(ctx, "r-9")
		require.NoError(t, err)
		assert.Equal(t, models.Money(0), res.CreditGranted)
		assert.Empty(t, res.CreditError)
	})

	t.Run("credit failure is reported", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("GetByID", ctx, "r-9").Return(paidReservation(), nil)
		f.store.On("MarkCancelled", ctx, "r-9", mock.Anything, mock.Anything).Return(nil)
		f.creditor.On("Credit", ctx, "011-K", models.Money(3800)).Return(models.Money(0), errors.New("write concern timeout"))
		f.calendar.On("DeleteEvent", ctx, "evt-9").Return(nil)

		res, err := f.svc.Cancel(ctx, "r-9")
		require.NoError(t, err)
		assert.Equal(t, models.Money(0), res.CreditGranted)
		assert.Equal(t, "write concern timeout", res.CreditError)
		assert.True(t, res.CalendarDeleted)
	})
}

func TestListing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.store.On("ListByMonth", ctx, 2030, 6, false).Return([]models.Reservation{{ID: "a"}}, nil)
	f.store.On("ListByDate", ctx, "2030-06-11", true).Return([]models.Reservation{{ID: "b"}}, nil)

	list, err := f.svc.ListByMonth(ctx, 6, 2030, false)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = f.svc.ListByDate(ctx, "2030-06-11", true)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	var verr *ValidationError
	_, err = f.svc.ListByMonth(ctx, 13, 2030, false)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "mes", verr.Field)

	_, err = f.svc.ListByDate(ctx, "2030-6-1", false)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "data", verr.Field)
}

func TestWipeAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var wiped events.ReservationsWiped
	f.bus.Subscribe(events.TypeReservationsWiped, func(e events.Event) error {
		return json.Unmarshal(e.Payload, &wiped)
	})

	f.store.On("ListEventIDs", ctx).Return([]string{"e1", "e2"}, nil)
	f.store.On("DeleteAll", ctx).Return(int64(5), nil)
	f.calendar.On("DeleteEventsBulk", ctx, []string{"e1", "e2"}).Return(calendar.BulkDeleteResult{Deleted: 1, NotFound: 1})

	res, err := f.svc.WipeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.Deleted)
	assert.Equal(t, 1, res.Calendar.Deleted)
	assert.Equal(t, int64(5), wiped.Deleted)
}

func TestWipeAll_WithoutCalendar(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	logger := zerolog.Nop()
	svc := NewService(store, nil, nil, nil, Options{}, &logger)

	store.On("DeleteAll", ctx).Return(int64(0), nil)
	res, err := svc.WipeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Deleted)
	store.AssertNotCalled(t, "ListEventIDs", mock.Anything)
}

func TestSeedDemo(t *testing.T) {
	ctx := context.Background()

	t.Run("skips populated collection", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("Count", ctx).Return(int64(3), nil)
		n, err := f.svc.SeedDemo(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
		f.store.AssertNotCalled(t, "InsertMany", mock.Anything, mock.Anything)
	})

	t.Run("inserts upcoming reservations", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("Count", ctx).Return(int64(0), nil)
		f.store.On("InsertMany", ctx, mock.MatchedBy(func(list []*models.Reservation) bool {
			for _, r := range list {
				if r.ID == "" || r.Date <= "2030-06-10" || r.Status != models.StatusActive {
					return false
				}
			}
			return len(list) == 4
		})).Return(4, nil)

		n, err := f.svc.SeedDemo(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
	})
}
