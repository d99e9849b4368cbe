package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	loaderrors "freightline/internal/loads/errors"
	"freightline/pkg/model"
)

const loadsCollection = "Loads"

type mongoLoadStore struct {
	collection *mongo.Collection
}

func NewMongoLoadStore(db *mongo.Database) LoadStore {
	return &mongoLoadStore{collection: db.Collection(loadsCollection)}
}

func (s *mongoLoadStore) Get(ctx context.Context, id string) (*model.Load, error) {
	var load model.Load
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&load)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, loaderrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find load: %w", err)
	}
	return &load, nil
}

func (s *mongoLoadStore) List(ctx context.Context) ([]*model.Load, error) {
	cursor, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list loads: %w", err)
	}
	defer cursor.Close(ctx)

	var loads []*model.Load
	if err := cursor.All(ctx, &loads); err != nil {
		return nil, fmt.Errorf("failed to decode loads: %w", err)
	}
	return loads, nil
}

// UpdateStatus relies on a single FindOneAndUpdate with the expected status in
// the filter, so the compare-and-swap happens server-side.
func (s *mongoLoadStore) UpdateStatus(ctx context.Context, id string, from, to model.LoadStatus) error {
	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to}}

	err := s.collection.FindOneAndUpdate(ctx, filter, update).Err()
	if err == nil {
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("failed to update load status: %w", err)
	}

	// Distinguish a missing load from a lost race.
	count, countErr := s.collection.CountDocuments(ctx, bson.M{"_id": id})
	if countErr != nil {
		return fmt.Errorf("failed to check load existence: %w", countErr)
	}
	if count == 0 {
		return loaderrors.ErrNotFound
	}
	return loaderrors.ErrStatusConflict
}

func (s *mongoLoadStore) CountByStatus(ctx context.Context) (map[model.LoadStatus]int64, error) {
	cursor, err := s.collection.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count loads: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status model.LoadStatus `bson:"_id"`
		Count  int64            `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode load counts: %w", err)
	}

	counts := make(map[model.LoadStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Seed inserts the given loads if the collection is empty. Used to bootstrap
// a fresh database with the demo load board.
func Seed(ctx context.Context, db *mongo.Database, loads []model.Load) error {
	collection := db.Collection(loadsCollection)

	count, err := collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to inspect loads collection: %w", err)
	}
	if count > 0 {
		return nil
	}

	docs := make([]any, len(loads))
	for i := range loads {
		docs[i] = loads[i]
	}
	if _, err := collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to seed loads: %w", err)
	}
	return nil
}
