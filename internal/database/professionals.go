package database

import (
	"context"
	"errors"
	"fmt"

	"agenda/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProfessionalRepository stores the professional directory.
type ProfessionalRepository struct {
	coll *mongo.Collection
}

func (r *ProfessionalRepository) FindByID(ctx context.Context, id string) (*models.Professional, error) {
	var p models.Professional
	err := r.coll.FindOne(ctx, professionalFilter(id)).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrProfessionalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find professional %s: %w", id, err)
	}
	return &p, nil
}

func (r *ProfessionalRepository) List(ctx context.Context) ([]models.Professional, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "id_profissional", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list professionals: %w", err)
	}
	out := []models.Professional{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode professionals: %w", err)
	}
	return out, nil
}

// ReplaceAll clears the collection and inserts list. It is not atomic:
// a failed insert leaves the directory empty.
func (r *ProfessionalRepository) ReplaceAll(ctx context.Context, list []models.Professional) (int, error) {
	if _, err := r.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return 0, fmt.Errorf("clear professionals: %w", err)
	}
	if len(list) == 0 {
		return 0, nil
	}
	docs := make([]interface{}, 0, len(list))
	for i := range list {
		docs = append(docs, list[i])
	}
	res, err := r.coll.InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("insert professionals: %w", err)
	}
	return len(res.InsertedIDs), nil
}

// AddCredit atomically increments credito and returns the new balance.
func (r *ProfessionalRepository) AddCredit(ctx context.Context, id string, amount models.Money) (models.Money, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Professional
	err := r.coll.FindOneAndUpdate(ctx, professionalFilter(id), creditUpdate(amount), opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, ErrProfessionalNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("credit professional %s: %w", id, err)
	}
	return p.Credit, nil
}

func professionalFilter(id string) bson.D {
	return bson.D{{Key: "id_profissional", Value: models.NormalizeProfessionalID(id)}}
}

func creditUpdate(amount models.Money) bson.D {
	return bson.D{{Key: "$inc", Value: bson.D{{Key: "credito", Value: amount.Float64()}}}}
}
