package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CalendarToken is a persisted OAuth token for the calendar integration.
type CalendarToken struct {
	Key          string    `bson:"key"`
	AccessToken  string    `bson:"access_token"`
	TokenType    string    `bson:"token_type"`
	RefreshToken string    `bson:"refresh_token"`
	Expiry       time.Time `bson:"expiry"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

// TokenRepository upserts tokens by key.
type TokenRepository struct {
	coll *mongo.Collection
}

func (r *TokenRepository) Save(ctx context.Context, tok *CalendarToken) error {
	tok.UpdatedAt = time.Now().UTC()
	opts := options.Replace().SetUpsert(true)
	if _, err := r.coll.ReplaceOne(ctx, bson.D{{Key: "key", Value: tok.Key}}, tok, opts); err != nil {
		return fmt.Errorf("save calendar token: %w", err)
	}
	return nil
}

func (r *TokenRepository) Load(ctx context.Context, key string) (*CalendarToken, error) {
	var tok CalendarToken
	err := r.coll.FindOne(ctx, bson.D{{Key: "key", Value: key}}).Decode(&tok)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load calendar token: %w", err)
	}
	return &tok, nil
}
