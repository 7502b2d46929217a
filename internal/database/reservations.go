package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agenda/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReservationRepository stores reservations keyed by their string id.
type ReservationRepository struct {
	coll *mongo.Collection
}

func (r *ReservationRepository) Insert(ctx context.Context, res *models.Reservation) error {
	if _, err := r.coll.InsertOne(ctx, res); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

// InsertMany inserts in order and stops at the first failure.
func (r *ReservationRepository) InsertMany(ctx context.Context, list []*models.Reservation) (int, error) {
	if len(list) == 0 {
		return 0, nil
	}
	docs := make([]interface{}, 0, len(list))
	for _, res := range list {
		docs = append(docs, res)
	}
	out, err := r.coll.InsertMany(ctx, docs)
	if err != nil {
		inserted := 0
		if out != nil {
			inserted = len(out.InsertedIDs)
		}
		if mongo.IsDuplicateKeyError(err) {
			return inserted, ErrSlotTaken
		}
		return inserted, fmt.Errorf("insert reservations: %w", err)
	}
	return len(out.InsertedIDs), nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	var res models.Reservation
	err := r.coll.FindOne(ctx, bson.D{{Key: "id", Value: id}}).Decode(&res)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find reservation %s: %w", id, err)
	}
	return &res, nil
}

func (r *ReservationRepository) ListByDate(ctx context.Context, date string, includeCancelled bool) ([]models.Reservation, error) {
	return r.find(ctx, dateFilter(date, includeCancelled))
}

func (r *ReservationRepository) ListByMonth(ctx context.Context, year, month int, includeCancelled bool) ([]models.Reservation, error) {
	return r.find(ctx, monthFilter(year, month, includeCancelled))
}

// ListActiveInRoom returns the active reservations competing for room on date.
func (r *ReservationRepository) ListActiveInRoom(ctx context.Context, date, room string) ([]models.Reservation, error) {
	return r.find(ctx, roomFilter(date, room))
}

// ListEventIDs returns every non-empty calendar event id.
func (r *ReservationRepository) ListEventIDs(ctx context.Context) ([]string, error) {
	filter := bson.D{{Key: "google_event_id", Value: bson.D{{Key: "$nin", Value: bson.A{nil, ""}}}}}
	opts := options.Find().SetProjection(bson.D{{Key: "google_event_id", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list event ids: %w", err)
	}
	var docs []struct {
		EventID string `bson:"google_event_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode event ids: %w", err)
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.EventID)
	}
	return ids, nil
}

func (r *ReservationRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count reservations: %w", err)
	}
	return n, nil
}

func (r *ReservationRepository) SetEventID(ctx context.Context, id, eventID string) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "google_event_id", Value: eventID},
		{Key: "atualizado_em", Value: time.Now().UTC()},
	}}}
	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "id", Value: id}}, update)
	if err != nil {
		return fmt.Errorf("set event id on %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// MarkCancelled moves an active reservation to cancelled. Only one caller can win:
// the filter matches active records only, so a repeated or concurrent call gets ErrNotActive.
func (r *ReservationRepository) MarkCancelled(ctx context.Context, id, date, clock string) error {
	res, err := r.coll.UpdateOne(ctx, cancelFilter(id), cancelUpdate(date, clock, time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("cancel reservation %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotActive
	}
	return nil
}

func (r *ReservationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete reservation %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("delete reservations: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *ReservationRepository) find(ctx context.Context, filter bson.D) ([]models.Reservation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "data", Value: 1}, {Key: "horario_inicio", Value: 1}, {Key: "sala", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find reservations: %w", err)
	}
	out := []models.Reservation{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode reservations: %w", err)
	}
	return out, nil
}

func activeOnly(filter bson.D, includeCancelled bool) bson.D {
	if includeCancelled {
		return filter
	}
	return append(filter, bson.E{Key: "status_reserva", Value: string(models.StatusActive)})
}

func dateFilter(date string, includeCancelled bool) bson.D {
	return activeOnly(bson.D{{Key: "data", Value: date}}, includeCancelled)
}

// monthFilter matches the stored YYYY-MM-DD string by prefix.
func monthFilter(year, month int, includeCancelled bool) bson.D {
	prefix := fmt.Sprintf("^%04d-%02d-", year, month)
	return activeOnly(bson.D{{Key: "data", Value: bson.D{{Key: "$regex", Value: prefix}}}}, includeCancelled)
}

func roomFilter(date, room string) bson.D {
	return activeOnly(bson.D{{Key: "data", Value: date}, {Key: "sala", Value: room}}, false)
}

func cancelFilter(id string) bson.D {
	return bson.D{{Key: "id", Value: id}, {Key: "status_reserva", Value: string(models.StatusActive)}}
}

func cancelUpdate(date, clock string, now time.Time) bson.D {
	return bson.D{{Key: "$set", Value: bson.D{
		{Key: "status_reserva", Value: string(models.StatusCancelled)},
		{Key: "data_cancelamento", Value: date},
		{Key: "hora_cancelamento", Value: clock},
		{Key: "atualizado_em", Value: now},
	}}}
}
