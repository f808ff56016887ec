package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCollection = "snapshots"

type snapshotDocument struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStorage keeps one document per key in the snapshots collection.
type MongoStorage struct {
	collection *mongo.Collection
}

func NewMongoStorage(db *mongo.Database) *MongoStorage {
	return &MongoStorage{
		collection: db.Collection(mongoCollection),
	}
}

func (m *MongoStorage) Get(ctx context.Context, key string) (string, error) {
	var doc snapshotDocument

	err := m.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get snapshot: %w", err)
	}

	return doc.Value, nil
}

func (m *MongoStorage) Set(ctx context.Context, key, value string) error {
	filter := bson.M{"_id": key}
	update := bson.M{
		"$set": bson.M{
			"value":      value,
			"updated_at": time.Now(),
		},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := m.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	return nil
}

func (m *MongoStorage) Ping(ctx context.Context) error {
	if err := m.collection.Database().Client().Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo ping failed: %w", err)
	}
	return nil
}

// CreateIndexes expires snapshots that were not written for ttl.
func (m *MongoStorage) CreateIndexes(ctx context.Context, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "updated_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds())),
	}

	if _, err := m.collection.Indexes().CreateOne(ctx, index); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (m *MongoStorage) Disconnect(ctx context.Context) error {
	return m.collection.Database().Client().Disconnect(ctx)
}
