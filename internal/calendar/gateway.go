package calendar

import (
	"context"
	"errors"

	"agenda/internal/metrics"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	gcal "google.golang.org/api/calendar/v3"
)

// CreatedEvent pairs a bulk item with its event.
type CreatedEvent struct {
	Index         int
	ReservationID string
	Event         EventRef
}

// CreateFailure is a bulk item that could not be created.
type CreateFailure struct {
	Index         int
	ReservationID string
	Err           error
}

type BulkCreateResult struct {
	Created []CreatedEvent
	Failed  []CreateFailure
}

// DeleteFailure is an event id that could not be deleted.
type DeleteFailure struct {
	EventID string
	Err     error
}

type BulkDeleteResult struct {
	Deleted  int
	NotFound int
	Failed   []DeleteFailure
}

// Gateway mirrors reservations into a single calendar. It keeps no client between calls.
type Gateway struct {
	factory    ClientFactory
	calendarID string
	timezone   string
	limiter    *rate.Limiter
	logger     *zerolog.Logger
}

// NewGateway builds a gateway. limiter may be nil.
func NewGateway(factory ClientFactory, calendarID, timezone string, limiter *rate.Limiter, logger *zerolog.Logger) *Gateway {
	l := logger.With().Str("component", "calendar").Logger()
	return &Gateway{
		factory:    factory,
		calendarID: calendarID,
		timezone:   timezone,
		limiter:    limiter,
		logger:     &l,
	}
}

// CreateEvent inserts one event.
func (g *Gateway) CreateEvent(ctx context.Context, req EventRequest) (EventRef, error) {
	svc, err := g.factory.NewService(ctx)
	if err != nil {
		metrics.IncCalendarSync("create", "auth_error")
		return EventRef{}, classify(err)
	}
	return g.insert(ctx, svc, req)
}

// DeleteEvent removes one event. A missing event yields ErrEventNotFound.
func (g *Gateway) DeleteEvent(ctx context.Context, eventID string) error {
	svc, err := g.factory.NewService(ctx)
	if err != nil {
		metrics.IncCalendarSync("delete", "auth_error")
		return classify(err)
	}
	return g.delete(ctx, svc, eventID)
}

// CreateEventsBulk inserts events one after another. Items fail independently;
// when no client can be built every item fails with the same error.
func (g *Gateway) CreateEventsBulk(ctx context.Context, reqs []EventRequest) BulkCreateResult {
	var result BulkCreateResult
	if len(reqs) == 0 {
		return result
	}

	svc, err := g.factory.NewService(ctx)
	if err != nil {
		err = classify(err)
		g.logger.Error().Err(err).Int("items", len(reqs)).Msg("calendar client unavailable, skipping bulk create")
		for i, req := range reqs {
			metrics.IncCalendarSync("create", "auth_error")
			result.Failed = append(result.Failed, CreateFailure{Index: i, ReservationID: req.ReservationID, Err: err})
		}
		return result
	}

	for i, req := range reqs {
		ref, err := g.insert(ctx, svc, req)
		if err != nil {
			result.Failed = append(result.Failed, CreateFailure{Index: i, ReservationID: req.ReservationID, Err: err})
			continue
		}
		result.Created = append(result.Created, CreatedEvent{Index: i, ReservationID: req.ReservationID, Event: ref})
	}
	g.logger.Info().Int("created", len(result.Created)).Int("failed", len(result.Failed)).Msg("bulk calendar create finished")
	return result
}

// DeleteEventsBulk removes events one after another. Missing events are counted, not failed.
func (g *Gateway) DeleteEventsBulk(ctx context.Context, eventIDs []string) BulkDeleteResult {
	var result BulkDeleteResult
	if len(eventIDs) == 0 {
		return result
	}

	svc, err := g.factory.NewService(ctx)
	if err != nil {
		err = classify(err)
		g.logger.Error().Err(err).Int("items", len(eventIDs)).Msg("calendar client unavailable, skipping bulk delete")
		for _, id := range eventIDs {
			metrics.IncCalendarSync("delete", "auth_error")
			result.Failed = append(result.Failed, DeleteFailure{EventID: id, Err: err})
		}
		return result
	}

	for _, id := range eventIDs {
		err := g.delete(ctx, svc, id)
		switch {
		case err == nil:
			result.Deleted++
		case errors.Is(err, ErrEventNotFound):
			result.NotFound++
		default:
			result.Failed = append(result.Failed, DeleteFailure{EventID: id, Err: err})
		}
	}
	g.logger.Info().Int("deleted", result.Deleted).Int("not_found", result.NotFound).Int("failed", len(result.Failed)).Msg("bulk calendar delete finished")
	return result
}

func (g *Gateway) insert(ctx context.Context, svc *gcal.Service, req EventRequest) (EventRef, error) {
	if err := g.wait(ctx); err != nil {
		return EventRef{}, &UpstreamError{Message: err.Error()}
	}

	created, err := svc.Events.Insert(g.calendarID, buildEvent(req, g.timezone)).Context(ctx).Do()
	if err != nil {
		err = classify(err)
		metrics.IncCalendarSync("create", "error")
		g.logger.Error().Err(err).Str("reservation_id", req.ReservationID).Msg("failed to create calendar event")
		return EventRef{}, err
	}

	metrics.IncCalendarSync("create", "ok")
	g.logger.Info().Str("reservation_id", req.ReservationID).Str("event_id", created.Id).Msg("calendar event created")
	return EventRef{ID: created.Id, Link: created.HtmlLink}, nil
}

func (g *Gateway) delete(ctx context.Context, svc *gcal.Service, eventID string) error {
	if err := g.wait(ctx); err != nil {
		return &UpstreamError{Message: err.Error()}
	}

	err := svc.Events.Delete(g.calendarID, eventID).Context(ctx).Do()
	switch {
	case err == nil:
		metrics.IncCalendarSync("delete", "ok")
		g.logger.Info().Str("event_id", eventID).Msg("calendar event deleted")
		return nil
	case isGone(err):
		metrics.IncCalendarSync("delete", "not_found")
		g.logger.Warn().Str("event_id", eventID).Msg("calendar event not found, nothing to delete")
		return ErrEventNotFound
	default:
		err = classify(err)
		metrics.IncCalendarSync("delete", "error")
		g.logger.Error().Err(err).Str("event_id", eventID).Msg("failed to delete calendar event")
		return err
	}
}

func (g *Gateway) wait(ctx context.Context) error {
	if g.limiter == nil {
		return nil
	}
	return g.limiter.Wait(ctx)
}
