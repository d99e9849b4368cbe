package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	negotiationerrors "freightline/internal/negotiation/errors"
	"freightline/pkg/model"
)

const sessionsCollection = "Negotiation_sessions"

type mongoSessionStore struct {
	collection *mongo.Collection
}

func NewMongoSessionStore(db *mongo.Database) SessionStore {
	return &mongoSessionStore{collection: db.Collection(sessionsCollection)}
}

// EnsureSessionIndexes creates the partial unique index that enforces at most
// one Open session per load at the database level.
func EnsureSessionIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(sessionsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "load_id", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"status": string(model.SessionOpen)}),
	})
	if err != nil {
		return fmt.Errorf("failed to create session indexes: %w", err)
	}
	return nil
}

func (s *mongoSessionStore) Create(ctx context.Context, session *model.NegotiationSession) error {
	_, err := s.collection.InsertOne(ctx, session)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return negotiationerrors.ErrOpenSessionExists
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (s *mongoSessionStore) Get(ctx context.Context, id string) (*model.NegotiationSession, error) {
	var session model.NegotiationSession
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, negotiationerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return &session, nil
}

func (s *mongoSessionStore) Update(ctx context.Context, session *model.NegotiationSession) error {
	result, err := s.collection.ReplaceOne(ctx, bson.M{"_id": session.ID}, session)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if result.MatchedCount == 0 {
		return negotiationerrors.ErrNotFound
	}
	return nil
}

func (s *mongoSessionStore) FindCurrentByLoad(ctx context.Context, loadID string) (*model.NegotiationSession, error) {
	filter := bson.M{
		"load_id": loadID,
		"status":  bson.M{"$in": []string{string(model.SessionOpen), string(model.SessionAccepted)}},
	}

	var session model.NegotiationSession
	err := s.collection.FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, negotiationerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find session for load: %w", err)
	}
	return &session, nil
}

func (s *mongoSessionStore) ListIdleOpen(ctx context.Context, cutoff time.Time) ([]*model.NegotiationSession, error) {
	filter := bson.M{
		"status":     string(model.SessionOpen),
		"updated_at": bson.M{"$lt": cutoff},
	}

	cursor, err := s.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list idle sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var sessions []*model.NegotiationSession
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode idle sessions: %w", err)
	}
	return sessions, nil
}

func (s *mongoSessionStore) Count(ctx context.Context) (int64, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}
