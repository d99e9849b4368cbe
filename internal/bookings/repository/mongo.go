package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingerrors "freightline/internal/bookings/errors"
	"freightline/pkg/model"
)

const bookingsCollection = "Bookings"

type mongoBookingStore struct {
	collection *mongo.Collection
}

func NewMongoBookingStore(db *mongo.Database) BookingStore {
	return &mongoBookingStore{collection: db.Collection(bookingsCollection)}
}

// EnsureBookingIndexes creates the unique index that enforces at most one
// booking per load at the database level.
func EnsureBookingIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(bookingsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "load_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}

func (s *mongoBookingStore) Create(ctx context.Context, booking *model.BookingRecord) error {
	_, err := s.collection.InsertOne(ctx, booking)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingerrors.ErrAlreadyBooked
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (s *mongoBookingStore) Get(ctx context.Context, id string) (*model.BookingRecord, error) {
	var booking model.BookingRecord
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &booking, nil
}

func (s *mongoBookingStore) FindByLoad(ctx context.Context, loadID string) (*model.BookingRecord, error) {
	var booking model.BookingRecord
	err := s.collection.FindOne(ctx, bson.M{"load_id": loadID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking for load: %w", err)
	}
	return &booking, nil
}

func (s *mongoBookingStore) List(ctx context.Context) ([]*model.BookingRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "booked_at", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.BookingRecord
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (s *mongoBookingStore) Count(ctx context.Context) (int64, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}
