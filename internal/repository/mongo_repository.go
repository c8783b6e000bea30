package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const predictionsCollection = "predictions"

// MongoPredictionRepository persists predictions to MongoDB.
type MongoPredictionRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoPredictionRepository connects to uri and verifies the connection
// with a ping before returning.
func NewMongoPredictionRepository(ctx context.Context, uri, database string) (*MongoPredictionRepository, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoPredictionRepository{
		client:     client,
		collection: client.Database(database).Collection(predictionsCollection),
	}, nil
}

func (r *MongoPredictionRepository) Save(ctx context.Context, record *PredictionRecord) error {
	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert prediction %s: %w: %w", record.ID, ErrRepositoryUnavailable, err)
	}
	return nil
}

func (r *MongoPredictionRepository) FindByID(ctx context.Context, id string) (*PredictionRecord, error) {
	var rec PredictionRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPredictionNotFound
		}
		return nil, fmt.Errorf("failed to query prediction %s: %w: %w", id, ErrRepositoryUnavailable, err)
	}
	return &rec, nil
}

// Close disconnects the underlying client.
func (r *MongoPredictionRepository) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}
