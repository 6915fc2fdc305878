package dictionary

import (
	"context"
	"fmt"
	"time"

	"japanesedict/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps entries in a MongoDB collection, one document per entry.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

var (
	_ Store   = (*MongoStore)(nil)
	_ Clearer = (*MongoStore)(nil)
)

// MongoConfig holds MongoDB connection configuration
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// DefaultMongoConfig returns default MongoDB configuration
func DefaultMongoConfig() *MongoConfig {
	return &MongoConfig{
		URI:        "mongodb://localhost:27017",
		Database:   "japanesedict",
		Collection: "entries",
	}
}

// mongoEntry is the stored document. Keys holds every spelling and reading so
// exact lookups hit a single multikey index.
type mongoEntry struct {
	model.Entry `bson:",inline"`
	Keys        []string `bson:"keys"`
}

// NewMongoStore connects, pings and ensures the key index.
func NewMongoStore(ctx context.Context, config *MongoConfig) (*MongoStore, error) {
	if config == nil {
		config = DefaultMongoConfig()
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	s := &MongoStore{
		client:     client,
		collection: client.Database(config.Database).Collection(config.Collection),
	}
	if err := s.createIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	return s, nil
}

func (s *MongoStore) createIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "keys", Value: 1}},
	})
	return err
}

// Write upserts entries by ID in one unordered bulk write.
func (s *MongoStore) Write(ctx context.Context, entries []model.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(entries))
	for _, e := range entries {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": e.ID}).
			SetReplacement(mongoEntry{Entry: e, Keys: e.Keys()}).
			SetUpsert(true))
	}
	if _, err := s.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("failed to write entries to MongoDB: %w", err)
	}
	return nil
}

// LookupExact finds entries having any of spans as a spelling or reading.
// Common entries come first.
func (s *MongoStore) LookupExact(ctx context.Context, spans []string, limit int) ([]model.Entry, error) {
	if len(spans) == 0 {
		return nil, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "common", Value: -1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.collection.Find(ctx, bson.M{"keys": bson.M{"$in": spans}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoEntry
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode entries: %w", err)
	}
	out := make([]model.Entry, len(docs))
	for i, d := range docs {
		out[i] = d.Entry
	}
	return out, nil
}

// Count returns the number of stored entries.
func (s *MongoStore) Count(ctx context.Context) (int, error) {
	count, err := s.collection.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return int(count), nil
}

// Clear removes every entry.
func (s *MongoStore) Clear(ctx context.Context) error {
	if _, err := s.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
