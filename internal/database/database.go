package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	collectionProfessionals  = "profissionais"
	collectionReservations   = "reservas"
	collectionCalendarTokens = "calendar_tokens"
)

var (
	ErrReservationNotFound  = errors.New("reservation not found")
	ErrProfessionalNotFound = errors.New("professional not found")
	ErrNotActive            = errors.New("reservation is not active")
	ErrSlotTaken            = errors.New("slot already reserved")
	ErrTokenNotFound        = errors.New("calendar token not found")
)

// DB wraps the Mongo client and hands out the repositories.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zerolog.Logger
}

// Connect opens the client, verifies the connection and ensures indexes.
func Connect(ctx context.Context, uri, name string, timeout time.Duration, logger *zerolog.Logger) (*DB, error) {
	opts := options.Client().ApplyURI(uri).SetConnectTimeout(timeout).SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	instance := &DB{client: client, db: client.Database(name), logger: logger}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := instance.Ping(pingCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	if err := instance.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	logger.Info().Str("database", name).Msg("Database initialized")
	return instance, nil
}

func (d *DB) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, readpref.Primary())
}

func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

// EnsureIndexes is idempotent. The partial unique index on active slots
// rejects the second of two concurrent inserts for the same room and start time.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		collectionProfessionals: {
			{Keys: bson.D{{Key: "id_profissional", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		collectionReservations: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "data", Value: 1}, {Key: "sala", Value: 1}}},
			{
				Keys: bson.D{{Key: "sala", Value: 1}, {Key: "data", Value: 1}, {Key: "horario_inicio", Value: 1}},
				Options: options.Index().
					SetName("active_slot_unique").
					SetUnique(true).
					SetPartialFilterExpression(bson.D{{Key: "status_reserva", Value: "ativa"}}),
			},
		},
		collectionCalendarTokens: {
			{Keys: bson.D{{Key: "key", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for coll, idx := range indexes {
		if _, err := d.db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("%s: %w", coll, err)
		}
	}
	return nil
}

func (d *DB) Professionals() *ProfessionalRepository {
	return &ProfessionalRepository{coll: d.db.Collection(collectionProfessionals)}
}

func (d *DB) Reservations() *ReservationRepository {
	return &ReservationRepository{coll: d.db.Collection(collectionReservations)}
}

func (d *DB) CalendarTokens() *TokenRepository {
	return &TokenRepository{coll: d.db.Collection(collectionCalendarTokens)}
}
